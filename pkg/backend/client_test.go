package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resourcedesk/internal/lifecycle"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "svc-token", 5*time.Second)
}

func TestList_SendsFiltersAndDecodesPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bookings", r.URL.Path)
		require.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		q := r.URL.Query()
		require.Equal(t, "room", q.Get("search"))
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "10", q.Get("per_page"))
		require.Equal(t, "Submit,Approved", q.Get("status"))
		require.Equal(t, "2024-01-10", q.Get("date"))

		_, _ = io.WriteString(w, `{"data":[{"id":1,"status":"Submit","is_conflicting":true,"start_time":"2024-01-10T09:00:00Z","resource_id":"r1"}],"pagination":{"total":11,"total_pages":2,"page":2}}`)
	})

	page, err := c.List(context.Background(), lifecycle.KindBooking, ListQuery{
		Search:   "room",
		Page:     2,
		PerPage:  10,
		Statuses: []lifecycle.Status{lifecycle.StatusSubmit, lifecycle.StatusApproved},
		Date:     "2024-01-10",
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "1", page.Data[0].ID)
	require.True(t, page.Data[0].Conflicting())
	require.Equal(t, 2, page.Pagination.TotalPages)
}

func TestList_ServerErrorIsFetchFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"message":"upstream down"}`)
	})
	_, err := c.List(context.Background(), lifecycle.KindOrder, ListQuery{})
	require.Error(t, err)
	require.True(t, IsFetchFailed(err))
	require.Contains(t, err.Error(), "upstream down")
}

func TestGet_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vehicle-requests/v9", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Get(context.Background(), lifecycle.KindVehicle, "v9")
	require.True(t, IsNotFound(err))
}

func TestTransition_SendsTargetStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/bookings/b1/status", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Rejected", body["status"])
		require.Equal(t, "room closed", body["rejection_reason"])
		_, _ = io.WriteString(w, `{"data":{"id":"b1","status":"Rejected","start_time":"2024-01-10T09:00:00Z","approved_by":"admin-1"}}`)
	})
	rec, err := c.Transition(context.Background(), lifecycle.KindBooking, "b1", TransitionRequest{
		Status:          lifecycle.StatusRejected,
		RejectionReason: "room closed",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, lifecycle.StatusRejected, rec.Status)
	require.Equal(t, "admin-1", *rec.ApprovedBy)
}

func TestTransition_RefusalIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"booking already approved"}`)
	})
	_, err := c.Transition(context.Background(), lifecycle.KindBooking, "b1", TransitionRequest{Status: lifecycle.StatusApproved})
	require.True(t, IsTransitionRejected(err))

	var be *Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, "booking already approved", be.Message)
}

func TestTransition_FailurePayloadOn200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"vehicle not assigned"}`)
	})
	_, err := c.Transition(context.Background(), lifecycle.KindVehicle, "v1", TransitionRequest{Status: lifecycle.StatusInProgress})
	require.True(t, IsTransitionRejected(err))
}

func TestTransition_EmptyAck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec, err := c.Transition(context.Background(), lifecycle.KindOrder, "o1", TransitionRequest{Status: lifecycle.StatusCanceled})
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestScheduleAndResources(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedule":
			require.Equal(t, "2024-01-10", r.URL.Query().Get("date"))
			require.Equal(t, "floor-2", r.URL.Query().Get("group"))
			_, _ = io.WriteString(w, `{"data":[{"id":"b1","status":"Approved","start_time":"2024-01-10T09:00:00Z","resource_id":"r\u002F3"}]}`)
		case "/resources":
			_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Aster"},{"id":"r2","name":"Bougainvillea"},{"id":"r\u002F3","name":"Camellia"}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	recs, err := c.Schedule(context.Background(), ScheduleQuery{Date: "2024-01-10", Group: "floor-2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	res, err := c.Resources(context.Background(), "floor-2")
	require.NoError(t, err)
	require.Equal(t, "1", res[0].ID)
	require.Equal(t, "r2", res[1].ID)
	// escaped ids decode the same on both sides
	require.Equal(t, "r/3", res[2].ID)
	require.Equal(t, res[2].ID, *recs[0].ResourceID)
}

func TestReceipt_KeepsDocumentOpaque(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vehicle-requests/v1/receipt", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="spj-v1.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	})
	doc, err := c.Receipt(context.Background(), lifecycle.KindVehicle, "v1")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.Equal(t, "spj-v1.pdf", doc.Filename)
	require.Equal(t, []byte("%PDF-1.4 fake"), doc.Body)
}

func TestObserverSeesEveryCall(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.Observe = func(endpoint, result string, _ time.Duration) { seen = append(seen, endpoint+":"+result) }

	_, _ = c.List(context.Background(), lifecycle.KindBooking, ListQuery{})
	require.Equal(t, []string{"list:5xx"}, seen)
}
