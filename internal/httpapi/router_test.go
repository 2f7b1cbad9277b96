package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"resourcedesk/internal/actionlog"
	"resourcedesk/internal/queue"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/config"
)

func testRouter(t *testing.T, appEnv string) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bookings":
			_, _ = io.WriteString(w, `{"data":[{"id":7,"status":"Submit","is_conflicting":"1","start_time":"2024-01-10T09:00:00Z","resource_id":3}],"pagination":{"total":1,"total_pages":1,"page":1}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client := backend.New(upstream.URL, "", 2*time.Second)
	return NewRouter(Dependencies{
		Cfg: config.Config{
			AppEnv:                appEnv,
			MetricsPath:           "/metrics",
			ScheduleTimezone:      "UTC",
			ConsoleAllowedOrigins: []string{"http://localhost:5173"},
			Viewer:                config.ViewerConfig{TokenSecret: "s", TokenAudience: "resourcedesk"},
			Stats:                 config.StatsConfig{PageSize: 50, MaxPages: 2},
		},
		Log:       log,
		Backend:   client,
		ActionLog: actionlog.NewMemory(),
		Queue:     queue.NewWatcher(client, 10, log),
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := testRouter(t, "dev")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "resourcedesk_api_requests_total")
}

func TestRouter_ListThroughBackend(t *testing.T) {
	h := testRouter(t, "dev")

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/records", nil)
	req.Header.Set("X-Viewer-Role", "admin")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	require.True(t, strings.Contains(body, `"conflict_class":"NeedsReview"`), body)
	require.True(t, strings.Contains(body, `"kind":"reassign"`), body)
}

func TestRouter_ProdRequiresToken(t *testing.T) {
	h := testRouter(t, "prod")

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/records", nil)
	req.Header.Set("X-Viewer-Role", "admin")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_QueueIsAdminOnly(t *testing.T) {
	h := testRouter(t, "dev")

	req := httptest.NewRequest(http.MethodGet, "/v1/queue", nil)
	req.Header.Set("X-Viewer-Role", "requester")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/queue/refresh", nil)
	req.Header.Set("X-Viewer-Role", "admin")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
