package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrFetchFailed covers transport failures and backend 5xx/undecodable responses.
	ErrFetchFailed = errors.New("backend request failed")
	// ErrTransitionRejected means the backend refused a status change.
	ErrTransitionRejected = errors.New("transition rejected")
	ErrNotFound           = errors.New("record not found")
)

// Error carries the classification plus whatever the backend said.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status=%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// failurePayload is the backend's error body shape.
type failurePayload struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error,omitempty"`
}

func failureMessage(body []byte) string {
	var p failurePayload
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Message != "" {
			return p.Message
		}
		var s string
		if len(p.Error) > 0 && json.Unmarshal(p.Error, &s) == nil {
			return s
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

// classify maps a non-2xx status on op to an *Error.
func classify(op string, status int, body []byte, mutating bool) *Error {
	e := &Error{Op: op, Status: status, Message: failureMessage(body)}
	switch {
	case status == http.StatusNotFound:
		e.Kind = ErrNotFound
	case mutating && status >= 400 && status < 500:
		e.Kind = ErrTransitionRejected
	default:
		e.Kind = ErrFetchFailed
	}
	return e
}

func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsTransitionRejected(err error) bool { return errors.Is(err, ErrTransitionRejected) }
func IsFetchFailed(err error) bool        { return errors.Is(err, ErrFetchFailed) }
