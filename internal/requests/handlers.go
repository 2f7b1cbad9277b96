package requests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"resourcedesk/internal/actionlog"
	"resourcedesk/internal/api"
	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/metrics"
	"resourcedesk/internal/record"
	"resourcedesk/internal/stats"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/logging"
)

// Backend is the part of the records backend the console handlers call.
type Backend interface {
	List(ctx context.Context, kind lifecycle.Kind, q backend.ListQuery) (record.Page, error)
	Get(ctx context.Context, kind lifecycle.Kind, id string) (record.Record, error)
	Transition(ctx context.Context, kind lifecycle.Kind, id string, req backend.TransitionRequest) (*record.Record, error)
	Receipt(ctx context.Context, kind lifecycle.Kind, id string) (backend.Document, error)
}

type Handlers struct {
	Backend   Backend
	ActionLog actionlog.Recorder
	Validate  *validator.Validate

	StatsPageSize int
	StatsMaxPages int
}

func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func (h Handlers) validate() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return NewValidator()
}

// kindAndViewer reads the {kind} param and the viewer, writing the error
// response itself when either is missing.
func kindAndViewer(w http.ResponseWriter, r *http.Request) (lifecycle.Kind, api.Viewer, bool) {
	v, ok := api.ViewerFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing viewer")
		return "", api.Viewer{}, false
	}
	kind, err := lifecycle.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "unknown record kind")
		return "", api.Viewer{}, false
	}
	return kind, v, true
}

func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context()).WithError(err)
	switch {
	case backend.IsNotFound(err):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "record not found")
	case backend.IsTransitionRejected(err):
		log.Info("backend rejected transition")
		api.WriteError(w, http.StatusConflict, api.CodeTransitionRejected, backendMessage(err, "transition rejected"))
	default:
		log.Warn("backend fetch failed")
		api.WriteError(w, http.StatusBadGateway, api.CodeFetchFailed, "records backend unavailable")
	}
}

func backendMessage(err error, fallback string) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

func listQuery(r *http.Request) (backend.ListQuery, error) {
	q := r.URL.Query()
	out := backend.ListQuery{
		Search: q.Get("search"),
		Date:   q.Get("date"),
	}
	var err error
	if out.Page, err = optionalInt(q.Get("page")); err != nil {
		return out, err
	}
	if out.PerPage, err = optionalInt(q.Get("per_page")); err != nil {
		return out, err
	}
	if out.Statuses, err = parseStatuses(q.Get("status")); err != nil {
		return out, err
	}
	return out, nil
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errInvalidNumber
	}
	return n, nil
}

func parseStatuses(csv string) ([]lifecycle.Status, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []lifecycle.Status
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := lifecycle.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type listResponse struct {
	Data       []record.View     `json:"data"`
	Pagination record.Pagination `json:"pagination"`
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	kind, viewer, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	q, err := listQuery(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
		return
	}

	page, err := h.Backend.List(r.Context(), kind, q)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}

	views := record.AnnotateAll(kind, page.Data, viewer.Role)
	if r.URL.Query().Get("sort") == "review" {
		record.SortForReview(views)
	}
	api.WriteJSON(w, http.StatusOK, listResponse{Data: views, Pagination: page.Pagination})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	kind, viewer, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	rec, err := h.Backend.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"data": record.Annotate(kind, rec, viewer.Role)})
}

type TransitionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject cancel start complete"`
	Reason string `json:"reason" validate:"max=500"`
}

// Transition applies one lifecycle action. The action must be among those
// the current record offers this viewer; the backend still has the last word.
func (h Handlers) Transition(w http.ResponseWriter, r *http.Request) {
	kind, viewer, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	req.Reason = strings.TrimSpace(req.Reason)
	if err := h.validate().Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, validationMessage(err))
		return
	}
	action := lifecycle.ActionKind(req.Action)
	target, _ := lifecycle.TargetStatus(action)

	current, err := h.Backend.Get(r.Context(), kind, id)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	if !record.Annotate(kind, current, viewer.Role).Offers(action) {
		api.WriteError(w, http.StatusConflict, api.CodeActionNotAvailable, "action not available for this record")
		return
	}

	log := logging.FromContext(r.Context()).WithFields(logrus.Fields{
		"kind":   kind,
		"id":     id,
		"action": action,
		"from":   current.Status,
		"to":     target,
	})

	treq := backend.TransitionRequest{Status: target}
	if action == lifecycle.ActionReject {
		treq.RejectionReason = req.Reason
	}
	echoed, err := h.Backend.Transition(r.Context(), kind, id, treq)

	entry := actionlog.Entry{
		Kind:       kind,
		RecordID:   id,
		Action:     action,
		FromStatus: current.Status,
		ToStatus:   target,
		Actor:      viewer.ID,
		Reason:     req.Reason,
		Outcome:    actionlog.OutcomeAccepted,
	}
	if err != nil {
		entry.Outcome = actionlog.OutcomeFailed
		if backend.IsTransitionRejected(err) {
			entry.Outcome = actionlog.OutcomeRejected
		}
		entry.Detail = map[string]any{"error": backendMessage(err, err.Error())}
	}
	h.appendAction(r.Context(), entry)
	metrics.Transition(kind, action, string(entry.Outcome))

	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	log.Info("transition accepted")

	// the refetched record is authoritative; the echo or a local patch only
	// stand in when the refetch fails
	updated, ferr := h.Backend.Get(r.Context(), kind, id)
	if ferr != nil {
		log.WithError(ferr).Warn("refetch after transition failed")
		switch {
		case echoed != nil:
			updated = *echoed
		default:
			updated = current
			updated.Status = target
		}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"data": record.Annotate(kind, updated, viewer.Role)})
}

func (h Handlers) appendAction(ctx context.Context, e actionlog.Entry) {
	if h.ActionLog == nil {
		return
	}
	if err := h.ActionLog.Append(ctx, e); err != nil {
		logging.FromContext(ctx).WithError(err).Error("action log append failed")
	}
}

// Receipt streams the printable document for records that offer print.
func (h Handlers) Receipt(w http.ResponseWriter, r *http.Request) {
	kind, viewer, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	rec, err := h.Backend.Get(r.Context(), kind, id)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	if !record.Annotate(kind, rec, viewer.Role).Offers(lifecycle.ActionPrint) {
		api.WriteError(w, http.StatusConflict, api.CodeActionNotAvailable, "no printable document for this record")
		return
	}

	doc, err := h.Backend.Receipt(r.Context(), kind, id)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func (h Handlers) Actions(w http.ResponseWriter, r *http.Request) {
	kind, _, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	if h.ActionLog == nil {
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": []actionlog.Entry{}})
		return
	}
	items, err := h.ActionLog.ListByRecord(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("action log list failed")
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Stats reads every page matching the list filters (up to StatsMaxPages)
// and returns the status distribution.
func (h Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	kind, _, ok := kindAndViewer(w, r)
	if !ok {
		return
	}
	q, err := listQuery(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, err.Error())
		return
	}
	q.PerPage = h.StatsPageSize
	if q.PerPage <= 0 {
		q.PerPage = 100
	}

	fetch := func(ctx context.Context, page int) (record.Page, error) {
		pq := q
		pq.Page = page
		return h.Backend.List(ctx, kind, pq)
	}
	recs, truncated, err := stats.Gather(r.Context(), fetch, h.StatsMaxPages)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	sum := stats.Summarize(recs)
	sum.Truncated = truncated
	api.WriteJSON(w, http.StatusOK, map[string]any{"kind": kind, "data": sum})
}
