package requests

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"resourcedesk/internal/api"
	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/internal/schedule"
	"resourcedesk/pkg/backend"
)

type ScheduleBackend interface {
	Schedule(ctx context.Context, q backend.ScheduleQuery) ([]record.Record, error)
	Resources(ctx context.Context, group string) ([]schedule.Resource, error)
}

type ScheduleHandlers struct {
	Backend  ScheduleBackend
	Location *time.Location
	Validate *validator.Validate
}

type scheduleParams struct {
	Date   string `validate:"required,datetime=2006-01-02"`
	Status string
	Group  string
}

// Grid answers GET /v1/schedule. Bookings and the resource order are fetched
// concurrently, then assembled into one column per resource.
func (h ScheduleHandlers) Grid(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.ViewerFromContext(r.Context()); !ok {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing viewer")
		return
	}
	v := h.Validate
	if v == nil {
		v = NewValidator()
	}

	p := scheduleParams{
		Date:   r.URL.Query().Get("date"),
		Status: r.URL.Query().Get("status"),
		Group:  r.URL.Query().Get("group"),
	}
	if err := v.Struct(p); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, validationMessage(err))
		return
	}
	statuses, err := parseStatuses(p.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
		return
	}
	day, _ := time.Parse(schedule.DateFormat, p.Date)

	grid, err := BuildGrid(r.Context(), h.Backend, day, statuses, p.Group, h.Location)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"data": grid})
}

// BuildGrid fetches one day's bookings and resources and assembles the grid.
// A group narrows the columns to that group's resources.
func BuildGrid(ctx context.Context, b ScheduleBackend, day time.Time, statuses []lifecycle.Status, group string, loc *time.Location) (schedule.Grid, error) {
	var (
		recs      []record.Record
		resources []schedule.Resource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = b.Schedule(gctx, backend.ScheduleQuery{
			Date:     day.Format(schedule.DateFormat),
			Statuses: statuses,
			Group:    group,
		})
		return err
	})
	g.Go(func() error {
		var err error
		resources, err = b.Resources(gctx, group)
		return err
	})
	if err := g.Wait(); err != nil {
		return schedule.Grid{}, err
	}

	q := schedule.Query{
		Date:     day,
		Location: loc,
		Statuses: statuses,
		Order:    resources,
	}
	if group != "" {
		q.Grouped = true
		q.Resources = make([]string, 0, len(resources))
		for _, res := range resources {
			q.Resources = append(q.Resources, res.ID)
		}
	}
	return schedule.Assemble(schedule.FromRecords(recs), q), nil
}
