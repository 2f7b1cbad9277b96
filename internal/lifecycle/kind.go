package lifecycle

import (
	"fmt"
	"strings"
)

// Kind is a request type served by the console.
type Kind string

const (
	KindBooking       Kind = "booking"
	KindOrder         Kind = "order"
	KindAccommodation Kind = "accommodation"
	KindTransport     Kind = "transport"
	KindVehicle       Kind = "vehicle"
)

var AllKinds = []Kind{KindBooking, KindOrder, KindAccommodation, KindTransport, KindVehicle}

// ParseKind accepts singular or plural route segments ("bookings", "vehicle-requests").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "booking", "bookings":
		return KindBooking, nil
	case "order", "orders", "catering":
		return KindOrder, nil
	case "accommodation", "accommodations":
		return KindAccommodation, nil
	case "transport", "transports", "transportation":
		return KindTransport, nil
	case "vehicle", "vehicles", "vehicle-request", "vehicle-requests":
		return KindVehicle, nil
	default:
		return "", fmt.Errorf("unknown request kind: %s", s)
	}
}

// Policy is the per-kind configuration the authorizer runs against.
type Policy struct {
	// Statuses the kind can be in. Empty means every status.
	Statuses []Status
	// Print enables the receipt action on approved records.
	Print      bool
	PrintLabel string
	// Reassign offers conflict resolution on conflicting Submit records.
	Reassign bool
	// Assignment enables start/complete once a driver/vehicle is assigned.
	Assignment bool
	// Location is true for kinds whose records name a resource or a free-text place.
	Location bool
	// Path is the backend collection path.
	Path string
}

var basicStatuses = []Status{StatusSubmit, StatusApproved, StatusRejected, StatusCanceled}

var policies = map[Kind]Policy{
	KindBooking: {
		Statuses: basicStatuses,
		Reassign: true,
		Location: true,
		Path:     "/bookings",
	},
	KindOrder: {
		Statuses: basicStatuses,
		Location: true,
		Path:     "/orders",
	},
	KindAccommodation: {
		Statuses:   basicStatuses,
		Print:      true,
		PrintLabel: "Print receipt",
		Path:       "/accommodations",
	},
	KindTransport: {
		Statuses:   basicStatuses,
		Print:      true,
		PrintLabel: "Print receipt",
		Path:       "/transports",
	},
	KindVehicle: {
		Statuses:   AllStatuses,
		Print:      true,
		PrintLabel: "Print SPJ",
		Assignment: true,
		Path:       "/vehicle-requests",
	},
}

// PolicyFor returns the policy of k. Unknown kinds get the zero policy,
// which still authorizes generically.
func PolicyFor(k Kind) Policy {
	return policies[k]
}

// Allows reports whether s belongs to the kind's status subset.
func (p Policy) Allows(s Status) bool {
	if !s.Valid() {
		return false
	}
	if len(p.Statuses) == 0 {
		return true
	}
	for _, v := range p.Statuses {
		if v == s {
			return true
		}
	}
	return false
}
