package queue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/pkg/backend"
)

type stubSource struct {
	mu    sync.Mutex
	page  record.Page
	err   error
	calls []backend.ListQuery
}

func (s *stubSource) List(ctx context.Context, kind lifecycle.Kind, q backend.ListQuery) (record.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	return s.page, s.err
}

func (s *stubSource) Transition(ctx context.Context, kind lifecycle.Kind, id string, req backend.TransitionRequest) (*record.Record, error) {
	return nil, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRefresh_QueuesPendingConflictsFirst(t *testing.T) {
	src := &stubSource{page: record.Page{
		Data: []record.Record{
			{ID: "1", Status: lifecycle.StatusSubmit},
			{ID: "2", Status: lifecycle.StatusSubmit, IsConflicting: true},
			{ID: "3", Status: lifecycle.StatusSubmit},
		},
		Pagination: record.Pagination{Total: 3, TotalPages: 1, Page: 1},
	}}
	w := NewWatcher(src, 25, quietLogger())

	require.NoError(t, w.Refresh(context.Background()))
	require.Equal(t, []lifecycle.Status{lifecycle.StatusSubmit}, src.calls[0].Statuses)
	require.Equal(t, 25, src.calls[0].PerPage)

	snap := w.Snapshot()
	require.Equal(t, 3, snap.Total)
	require.Equal(t, "2", snap.Items[0].ID)
	require.Equal(t, []string{"2", "1", "3"}, []string{snap.Items[0].ID, snap.Items[1].ID, snap.Items[2].ID})
	require.Equal(t, 1, snap.Counts[lifecycle.ClassNeedsReview])
	require.Equal(t, 2, snap.Counts[lifecycle.ClassNormal])
	require.Equal(t, lifecycle.ActionReassign, snap.Items[0].Actions[0].Kind)
}

func TestRefresh_FailureEmptiesQueue(t *testing.T) {
	src := &stubSource{page: record.Page{Data: []record.Record{{ID: "1", Status: lifecycle.StatusSubmit}}}}
	w := NewWatcher(src, 0, quietLogger())
	require.NoError(t, w.Refresh(context.Background()))

	src.err = &backend.Error{Kind: backend.ErrFetchFailed, Op: "list", Status: 503}
	err := w.Refresh(context.Background())
	require.True(t, backend.IsFetchFailed(err))

	snap := w.Snapshot()
	require.Empty(t, snap.Items)
	require.NotEmpty(t, snap.Error)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	w := NewWatcher(&stubSource{}, 10, quietLogger())
	require.Error(t, w.Start(context.Background(), "every now and then"))
	w.Stop(context.Background())
}

func TestHandlers_RefreshAndGet(t *testing.T) {
	src := &stubSource{page: record.Page{Data: []record.Record{{ID: "9", Status: lifecycle.StatusSubmit}}}}
	h := Handlers{Watcher: NewWatcher(src, 10, quietLogger())}

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/v1/queue/refresh", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/queue", nil))
	var body struct {
		Data Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)

	src.err = &backend.Error{Kind: backend.ErrFetchFailed, Op: "list"}
	rr = httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/v1/queue/refresh", nil))
	require.Equal(t, http.StatusBadGateway, rr.Code)
}
