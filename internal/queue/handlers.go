package queue

import (
	"net/http"

	"resourcedesk/internal/api"
	"resourcedesk/pkg/backend"
)

type Handlers struct {
	Watcher *Watcher
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"data": h.Watcher.Snapshot()})
}

func (h Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Watcher.Refresh(r.Context()); err != nil {
		if backend.IsFetchFailed(err) {
			api.WriteError(w, http.StatusBadGateway, api.CodeFetchFailed, "records backend unavailable")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"data": h.Watcher.Snapshot()})
}
