package actionlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/pkg/db"
)

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Entry is one action taken through the console.
type Entry struct {
	ID         string               `json:"id"`
	Kind       lifecycle.Kind       `json:"kind"`
	RecordID   string               `json:"recordId"`
	Action     lifecycle.ActionKind `json:"action"`
	FromStatus lifecycle.Status     `json:"fromStatus"`
	ToStatus   lifecycle.Status     `json:"toStatus"`
	Actor      string               `json:"actor"`
	Reason     string               `json:"reason,omitempty"`
	Outcome    Outcome              `json:"outcome"`
	Detail     any                  `json:"detail,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// Recorder is what handlers need from the action log.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
	ListByRecord(ctx context.Context, kind lifecycle.Kind, recordID string) ([]Entry, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, e Entry) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return Insert(ctx, tx, e)
	})
}

// Insert writes e inside tx. A missing ID is generated.
func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var detail *string
	if e.Detail != nil {
		b, err := json.Marshal(e.Detail)
		if err != nil {
			return errors.Wrap(err, "encode action detail")
		}
		s := string(b)
		detail = &s
	}
	const q = `
INSERT INTO console_actions (id, kind, record_id, action, from_status, to_status, actor, reason, outcome, detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CAST($10 AS jsonb))
`
	_, err := tx.Exec(ctx, q,
		e.ID, string(e.Kind), e.RecordID, string(e.Action),
		string(e.FromStatus), string(e.ToStatus), e.Actor, e.Reason, string(e.Outcome), detail,
	)
	return errors.Wrap(err, "insert console action")
}

func (r *Repository) ListByRecord(ctx context.Context, kind lifecycle.Kind, recordID string) ([]Entry, error) {
	const q = `
SELECT id::text, kind, record_id, action, from_status, to_status, actor, reason, outcome,
       COALESCE(detail, '{}'::jsonb), created_at
FROM console_actions
WHERE kind = $1 AND record_id = $2
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, string(kind), recordID)
	if err != nil {
		return nil, errors.Wrap(err, "list console actions")
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e                            Entry
			k, action, from, to, outcome string
			detail                       map[string]any
		)
		if err := rows.Scan(&e.ID, &k, &e.RecordID, &action, &from, &to, &e.Actor, &e.Reason, &outcome, &detail, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan console action")
		}
		e.Kind = lifecycle.Kind(k)
		e.Action = lifecycle.ActionKind(action)
		e.FromStatus = lifecycle.Status(from)
		e.ToStatus = lifecycle.Status(to)
		e.Outcome = Outcome(outcome)
		if len(detail) > 0 {
			e.Detail = detail
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
