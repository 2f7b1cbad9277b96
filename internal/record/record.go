package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resourcedesk/internal/lifecycle"
)

// Flag decodes the backend's conflict indicator, which arrives as a bool,
// a 0/1 number or a numeric string depending on the endpoint.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return f.parse(s)
	}
	return f.parse(string(b))
}

func (f *Flag) parse(s string) error {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "false", "0":
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid conflict flag: %q", s)
	}
	*f = n != 0
	return nil
}

type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Resource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// Assignment is the driver/vehicle pairing on a vehicle request.
type Assignment struct {
	DriverID  string `json:"driver_id,omitempty"`
	VehicleID string `json:"vehicle_id,omitempty"`
}

func (a *Assignment) Present() bool {
	return a != nil && (a.DriverID != "" || a.VehicleID != "")
}

// Record generalizes bookings, orders, accommodation and transport orders
// and vehicle requests as the backend returns them.
type Record struct {
	ID            string           `json:"id"`
	Status        lifecycle.Status `json:"status"`
	IsConflicting Flag             `json:"is_conflicting"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       *time.Time       `json:"end_time,omitempty"`
	ResourceID    *string          `json:"resource_id,omitempty"`
	Location      *string          `json:"location,omitempty"`
	Title         string           `json:"title,omitempty"`
	ApprovedBy    *string          `json:"approved_by,omitempty"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`

	User       *Person     `json:"user,omitempty"`
	Resource   *Resource   `json:"resource,omitempty"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// UnmarshalJSON normalizes status spellings and ids that arrive as numbers.
func (r *Record) UnmarshalJSON(b []byte) error {
	type alias Record
	var raw struct {
		alias
		ID         json.RawMessage `json:"id"`
		Status     string          `json:"status"`
		ResourceID json.RawMessage `json:"resource_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Record(raw.alias)
	r.ID = DecodeID(raw.ID)
	if id := DecodeID(raw.ResourceID); id != "" {
		r.ResourceID = &id
	} else {
		r.ResourceID = nil
	}
	// unknown spellings are kept verbatim; the authorizer treats them fail-safe
	if st, err := lifecycle.ParseStatus(raw.Status); err == nil {
		r.Status = st
	} else {
		r.Status = lifecycle.Status(raw.Status)
	}
	return nil
}

// DecodeID reads an id the backend sends as either a JSON string or a number.
func DecodeID(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return string(b)
}

func (r Record) Conflicting() bool { return bool(r.IsConflicting) }

func (r Record) ResourceKey() string {
	if r.ResourceID == nil {
		return ""
	}
	return *r.ResourceID
}

// Validate checks the location invariant for location-bearing kinds:
// exactly one of resource id and free-text location is set.
func (r Record) Validate(p lifecycle.Policy) error {
	if !p.Location {
		return nil
	}
	hasResource := r.ResourceID != nil && strings.TrimSpace(*r.ResourceID) != ""
	hasLocation := r.Location != nil && strings.TrimSpace(*r.Location) != ""
	switch {
	case hasResource && hasLocation:
		return fmt.Errorf("record %s: both resource_id and location set", r.ID)
	case !hasResource && !hasLocation:
		return fmt.Errorf("record %s: neither resource_id nor location set", r.ID)
	}
	return nil
}

type Pagination struct {
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Page       int `json:"page"`
}

// Page is one backend list response.
type Page struct {
	Data       []Record   `json:"data"`
	Pagination Pagination `json:"pagination"`
}
