package actionlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"resourcedesk/internal/lifecycle"
)

// Memory keeps entries in process. Used when no database is configured.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(_ context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) ListByRecord(_ context.Context, kind lifecycle.Kind, recordID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.Kind == kind && e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}
