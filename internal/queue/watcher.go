package queue

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/metrics"
	"resourcedesk/internal/record"
	"resourcedesk/internal/view"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/logging"
)

// Snapshot is the review queue as last refreshed.
type Snapshot struct {
	Items       []record.View                  `json:"items"`
	Counts      map[lifecycle.DisplayClass]int `json:"counts"`
	Total       int                            `json:"total"`
	RefreshedAt time.Time                      `json:"refreshedAt"`
	Error       string                         `json:"error,omitempty"`
}

// Watcher keeps the pending-booking queue warm. Cron and manual refreshes
// share one list, so an older refresh finishing late is discarded.
type Watcher struct {
	list     *view.List
	pageSize int
	log      *logrus.Logger
	cron     *cron.Cron
}

func NewWatcher(src view.Source, pageSize int, log *logrus.Logger) *Watcher {
	if pageSize <= 0 {
		pageSize = 50
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := view.NewList(lifecycle.KindBooking, src)
	l.OnStale = metrics.StaleDiscarded
	return &Watcher{list: l, pageSize: pageSize, log: log}
}

func (w *Watcher) query() backend.ListQuery {
	return backend.ListQuery{
		Page:     1,
		PerPage:  w.pageSize,
		Statuses: []lifecycle.Status{lifecycle.StatusSubmit},
	}
}

// Refresh fetches the queue once. A discarded (stale) response is not an error.
func (w *Watcher) Refresh(ctx context.Context) error {
	entry := w.log.WithField("job", "review_queue")
	ctx = logging.WithLogger(ctx, entry)

	applied, err := w.list.Refresh(ctx, w.query())
	if err != nil {
		entry.WithError(err).Warn("queue refresh failed")
		return errors.Wrap(err, "refresh review queue")
	}
	if !applied {
		return nil
	}

	snap := w.Snapshot()
	metrics.QueueDepth(snap.Counts)
	entry.WithFields(logrus.Fields{
		"total":        snap.Total,
		"needs_review": snap.Counts[lifecycle.ClassNeedsReview],
	}).Info("review queue refreshed")
	return nil
}

// Snapshot annotates the current page for an admin, conflicts first.
func (w *Watcher) Snapshot() Snapshot {
	st := w.list.Snapshot()
	items := record.AnnotateAll(w.list.Kind, st.Records, lifecycle.RoleAdmin)
	record.SortForReview(items)

	counts := map[lifecycle.DisplayClass]int{}
	for _, it := range items {
		counts[it.ConflictClass]++
	}
	s := Snapshot{
		Items:       items,
		Counts:      counts,
		Total:       st.Pagination.Total,
		RefreshedAt: st.FetchedAt,
	}
	if st.Err != nil {
		s.Error = st.Err.Error()
	}
	return s
}

// Start schedules Refresh on spec (robfig/cron syntax, e.g. "@every 1m")
// and runs one refresh right away.
func (w *Watcher) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		rctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		_ = w.Refresh(rctx)
	}); err != nil {
		return errors.Wrapf(err, "queue schedule %q", spec)
	}
	w.cron = c
	c.Start()
	w.log.WithField("schedule", spec).Info("review queue watcher started")

	go func() { _ = w.Refresh(ctx) }()
	return nil
}

// Stop waits for a running refresh to finish or ctx to expire.
func (w *Watcher) Stop(ctx context.Context) {
	if w.cron == nil {
		return
	}
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
	}
}
