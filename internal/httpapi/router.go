package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"resourcedesk/internal/actionlog"
	"resourcedesk/internal/api"
	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/metrics"
	"resourcedesk/internal/queue"
	"resourcedesk/internal/requests"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/config"
)

type Dependencies struct {
	Cfg       config.Config
	Log       *logrus.Logger
	Backend   *backend.Client
	ActionLog actionlog.Recorder
	Queue     *queue.Watcher
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestLogger(deps.Log))
	r.Use(metrics.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, deps.Cfg.MetricsPath, metrics.Handler())

	validate := requests.NewValidator()
	recordHandlers := requests.Handlers{
		Backend:       deps.Backend,
		ActionLog:     deps.ActionLog,
		Validate:      validate,
		StatsPageSize: deps.Cfg.Stats.PageSize,
		StatsMaxPages: deps.Cfg.Stats.MaxPages,
	}
	scheduleHandlers := requests.ScheduleHandlers{
		Backend:  deps.Backend,
		Location: deps.Cfg.Location(),
		Validate: validate,
	}

	r.Route("/v1", func(r chi.Router) {
		// The browser console lives on its own origin.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.ConsoleAllowedOrigins,
			MaxAgeSeconds:  600,
		}))
		r.Use(api.ViewerAuth(api.ViewerOptions{
			Secret:       deps.Cfg.Viewer.TokenSecret,
			Audience:     deps.Cfg.Viewer.TokenAudience,
			AllowHeaders: !deps.Cfg.IsProd(),
			Now:          time.Now,
		}))

		r.Get("/schedule", scheduleHandlers.Grid)

		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/records", recordHandlers.List)
			r.Get("/records/{id}", recordHandlers.Get)
			r.Put("/records/{id}/status", recordHandlers.Transition)
			r.Get("/records/{id}/receipt", recordHandlers.Receipt)
			r.Get("/records/{id}/actions", recordHandlers.Actions)
			r.Get("/stats", recordHandlers.Stats)
		})

		if deps.Queue != nil {
			queueHandlers := queue.Handlers{Watcher: deps.Queue}
			r.Group(func(r chi.Router) {
				r.Use(api.RequireRole(lifecycle.RoleAdmin))
				r.Get("/queue", queueHandlers.Get)
				r.Post("/queue/refresh", queueHandlers.Refresh)
			})
		}
	})

	return r
}
