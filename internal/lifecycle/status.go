package lifecycle

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusSubmit     Status = "Submit"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusCanceled   Status = "Canceled"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// AllStatuses lists every lifecycle state in graph order.
var AllStatuses = []Status{
	StatusSubmit,
	StatusApproved,
	StatusRejected,
	StatusCanceled,
	StatusInProgress,
	StatusCompleted,
}

// ParseStatus accepts the backend's spellings case-insensitively
// ("submit", "in_progress", "cancelled", ...).
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "", " ", "").Replace(norm)
	switch norm {
	case "submit", "submitted":
		return StatusSubmit, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	case "inprogress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmit, StatusApproved, StatusRejected, StatusCanceled, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

var allowedTransitions = map[Status]map[Status]bool{
	StatusSubmit:     {StatusApproved: true, StatusRejected: true, StatusCanceled: true},
	StatusApproved:   {StatusCanceled: true, StatusInProgress: true},
	StatusInProgress: {StatusCompleted: true},
	StatusRejected:   {},
	StatusCanceled:   {},
	StatusCompleted:  {},
}

// CanTransition reports whether the lifecycle graph has an edge from -> to.
// The backend remains the authority; this is used for display and for
// guarding optimistic patches.
func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// NextStatuses returns the outbound edges of from in graph order.
func NextStatuses(from Status) []Status {
	m := allowedTransitions[from]
	out := make([]Status, 0, len(m))
	for _, s := range AllStatuses {
		if m[s] {
			out = append(out, s)
		}
	}
	return out
}

func IsTerminal(s Status) bool {
	switch s {
	case StatusRejected, StatusCanceled, StatusCompleted:
		return true
	default:
		return false
	}
}
