package lifecycle

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleRequester Role = "Requester"
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "requester", "user":
		return RoleRequester, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

type ActionKind string

const (
	ActionApprove  ActionKind = "approve"
	ActionReject   ActionKind = "reject"
	ActionCancel   ActionKind = "cancel"
	ActionEdit     ActionKind = "edit"
	ActionReassign ActionKind = "reassign"
	ActionStart    ActionKind = "start"
	ActionComplete ActionKind = "complete"
	ActionPrint    ActionKind = "print"
)

// Action is what the view renders as a button.
type Action struct {
	Label string     `json:"label"`
	Kind  ActionKind `json:"kind"`
}

var defaultLabels = map[ActionKind]string{
	ActionApprove:  "Approve",
	ActionReject:   "Reject",
	ActionCancel:   "Cancel",
	ActionEdit:     "Edit",
	ActionReassign: "Resolve schedule conflict",
	ActionStart:    "Start",
	ActionComplete: "Complete",
	ActionPrint:    "Print",
}

func action(k ActionKind) Action {
	return Action{Label: defaultLabels[k], Kind: k}
}

// TargetStatus maps a transition action to the status sent to the backend.
// edit, reassign and print are not transitions.
func TargetStatus(k ActionKind) (Status, bool) {
	switch k {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	case ActionCancel:
		return StatusCanceled, true
	case ActionStart:
		return StatusInProgress, true
	case ActionComplete:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Subject is everything the authorizer looks at.
type Subject struct {
	Status      Status
	Conflicting bool
	Role        Role
	// Assigned is true when a vehicle request carries driver/vehicle assignment data.
	Assigned bool
}

// genericPolicy is what ComputeActions authorizes against: conflicts can be
// reassigned, no receipt, no assignment-gated start.
var genericPolicy = Policy{Reassign: true}

func ComputeActions(status Status, conflicting bool, role Role) []Action {
	return genericPolicy.Actions(Subject{Status: status, Conflicting: conflicting, Role: role})
}

// Actions returns the ordered actions offered for s. It never fails:
// unknown statuses, unknown roles and statuses outside the kind's subset
// all yield an empty set.
func (p Policy) Actions(s Subject) []Action {
	out := []Action{}
	if !p.Allows(s.Status) {
		return out
	}
	switch s.Role {
	case RoleAdmin, RoleRequester:
	default:
		return out
	}

	switch s.Status {
	case StatusSubmit:
		switch {
		case s.Conflicting:
			// approve/reject stay hidden until the overlap is resolved
			if p.Reassign {
				out = append(out, action(ActionReassign))
			}
			return out
		case s.Role == RoleAdmin:
			out = append(out, action(ActionApprove), action(ActionReject))
		case s.Role == RoleRequester:
			out = append(out, action(ActionEdit), action(ActionCancel))
		}

	case StatusApproved:
		if s.Role == RoleAdmin {
			out = append(out, action(ActionCancel))
			if p.Print {
				a := action(ActionPrint)
				if p.PrintLabel != "" {
					a.Label = p.PrintLabel
				}
				out = append(out, a)
			}
		}
		if p.Assignment && s.Assigned {
			out = append(out, action(ActionStart))
		}

	case StatusInProgress:
		out = append(out, action(ActionComplete))

	case StatusRejected, StatusCanceled, StatusCompleted:
	}
	return out
}

// Offers reports whether k is among the actions offered for s.
func (p Policy) Offers(s Subject, k ActionKind) bool {
	for _, a := range p.Actions(s) {
		if a.Kind == k {
			return true
		}
	}
	return false
}
