package view

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/logging"
)

// Source is the slice of the backend a List needs.
type Source interface {
	List(ctx context.Context, kind lifecycle.Kind, q backend.ListQuery) (record.Page, error)
	Transition(ctx context.Context, kind lifecycle.Kind, id string, req backend.TransitionRequest) (*record.Record, error)
}

// State is what a List currently displays.
type State struct {
	Query      backend.ListQuery
	Records    []record.Record
	Pagination record.Pagination
	// Err is the last fetch failure; Records is empty whenever it is set.
	Err error
	// Patched is true between an optimistic patch and the refetch that replaces it.
	Patched   bool
	Seq       uint64
	FetchedAt time.Time
}

// List owns one displayed page of records of a single kind.
type List struct {
	Kind lifecycle.Kind

	// OnStale is called for every response dropped because a newer fetch was issued.
	OnStale func(kind lifecycle.Kind)

	src Source
	seq Sequencer

	mu    sync.RWMutex
	state State
}

func NewList(kind lifecycle.Kind, src Source) *List {
	return &List{
		Kind:  kind,
		src:   src,
		state: State{Records: []record.Record{}},
	}
}

// Refresh fetches q and applies it unless a newer fetch was issued meanwhile.
// applied is false for a discarded response; err is the fetch failure, if any,
// of an applied response.
func (l *List) Refresh(ctx context.Context, q backend.ListQuery) (applied bool, err error) {
	return l.fetch(ctx, l.seq.Next(), q)
}

func (l *List) fetch(ctx context.Context, seq uint64, q backend.ListQuery) (bool, error) {
	page, err := l.src.List(ctx, l.Kind, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.seq.Accept(seq) {
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"kind":   l.Kind,
			"seq":    seq,
			"latest": l.seq.Latest(),
		}).Debug("discarding stale response")
		if l.OnStale != nil {
			l.OnStale(l.Kind)
		}
		return false, nil
	}

	next := State{Query: q, Seq: seq, FetchedAt: time.Now()}
	if err != nil {
		next.Records = []record.Record{}
		next.Err = err
		l.state = next
		return true, err
	}
	next.Records = page.Data
	if next.Records == nil {
		next.Records = []record.Record{}
	}
	next.Pagination = page.Pagination
	l.state = next
	return true, nil
}

// Snapshot returns a copy of the displayed state.
func (l *List) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.state
	s.Records = append([]record.Record(nil), l.state.Records...)
	return s
}

// Views annotates the displayed records for role.
func (l *List) Views(role lifecycle.Role) []record.View {
	return record.AnnotateAll(l.Kind, l.Snapshot().Records, role)
}

// Patch replaces the displayed record with the same id. It returns false
// when the record is not on the page.
func (l *List) Patch(rec record.Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.state.Records {
		if l.state.Records[i].ID == rec.ID {
			l.state.Records[i] = rec
			l.state.Patched = true
			return true
		}
	}
	return false
}

func (l *List) find(id string) (record.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.state.Records {
		if r.ID == id {
			return r, true
		}
	}
	return record.Record{}, false
}

// Transition asks the backend to move id to req.Status. On confirmation the
// displayed row is patched and the page refetched; the refetch result wins.
// A rejected transition also refetches so the page resyncs.
func (l *List) Transition(ctx context.Context, id string, req backend.TransitionRequest) (record.Record, error) {
	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"kind":   l.Kind,
		"id":     id,
		"status": req.Status,
	})

	q := l.Snapshot().Query
	updated, err := l.src.Transition(ctx, l.Kind, id, req)
	if err != nil {
		if backend.IsTransitionRejected(err) {
			log.WithError(err).Info("transition rejected, resyncing")
			if _, ferr := l.Refresh(ctx, q); ferr != nil {
				log.WithError(ferr).Warn("resync after rejected transition failed")
			}
		}
		return record.Record{}, errors.Wrap(err, "transition")
	}

	// anything in flight predates the transition
	seq := l.seq.Next()

	var patched record.Record
	switch {
	case updated != nil:
		patched = *updated
	default:
		cur, ok := l.find(id)
		if !ok {
			cur = record.Record{ID: id}
		}
		cur.Status = req.Status
		patched = cur
	}
	l.Patch(patched)

	if _, ferr := l.fetch(ctx, seq, q); ferr != nil {
		log.WithError(ferr).Warn("refetch after transition failed")
		return patched, nil
	}
	if fresh, ok := l.find(id); ok {
		return fresh, nil
	}
	return patched, nil
}
