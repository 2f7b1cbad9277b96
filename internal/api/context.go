package api

import (
	"context"

	"resourcedesk/internal/lifecycle"
)

type ctxKey string

const ctxKeyViewer ctxKey = "viewer"

// Viewer is whoever is looking at the console. Role drives which actions
// records offer.
type Viewer struct {
	ID   string         `json:"id"`
	Name string         `json:"name,omitempty"`
	Role lifecycle.Role `json:"role"`
}

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, ctxKeyViewer, v)
}

func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(ctxKeyViewer).(Viewer)
	return v, ok
}
