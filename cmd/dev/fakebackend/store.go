package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/internal/schedule"
)

// store is an in-memory records backend speaking the same wire format as
// the real one, so the api and console can be run without it.
type store struct {
	mu        sync.Mutex
	records   map[lifecycle.Kind][]record.Record
	resources []resource
	now       func() time.Time
}

type resource struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

func newStore(day time.Time) *store {
	s := &store{
		records: map[lifecycle.Kind][]record.Record{},
		resources: []resource{
			{ID: 1, Name: "Main Hall", Group: "halls"},
			{ID: 2, Name: "Meeting Room A", Group: "rooms"},
			{ID: 3, Name: "Meeting Room B", Group: "rooms"},
		},
		now: time.Now,
	}
	s.seed(day)
	return s
}

func (s *store) seed(day time.Time) {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
	}
	ptr := func(t time.Time) *time.Time { return &t }
	str := func(v string) *string { return &v }
	requester := &record.Person{ID: "u-14", Name: "Dana Ruiz"}

	s.records[lifecycle.KindBooking] = []record.Record{
		{ID: "101", Status: lifecycle.StatusSubmit, Title: "Quarterly review", StartTime: at(9, 0), EndTime: ptr(at(11, 0)), ResourceID: str("2"), User: requester},
		{ID: "102", Status: lifecycle.StatusSubmit, IsConflicting: true, Title: "Vendor demo", StartTime: at(10, 0), EndTime: ptr(at(12, 0)), ResourceID: str("2"), User: requester},
		{ID: "103", Status: lifecycle.StatusApproved, IsConflicting: true, Title: "Town hall", StartTime: at(13, 0), EndTime: ptr(at(15, 0)), ResourceID: str("1"), ApprovedBy: str("admin")},
		{ID: "104", Status: lifecycle.StatusSubmit, Title: "Standup", StartTime: at(8, 30), ResourceID: str("3")},
	}
	s.records[lifecycle.KindOrder] = []record.Record{
		{ID: "201", Status: lifecycle.StatusSubmit, Title: "Coffee for 20", StartTime: at(9, 0), Location: str("Meeting Room A"), User: requester},
		{ID: "202", Status: lifecycle.StatusRejected, Title: "Lunch boxes", StartTime: at(12, 0), Location: str("Main Hall")},
	}
	s.records[lifecycle.KindAccommodation] = []record.Record{
		{ID: "301", Status: lifecycle.StatusApproved, Title: "Hotel, 2 nights", StartTime: at(15, 0), EndTime: ptr(at(11, 0).AddDate(0, 0, 2)), User: requester},
	}
	s.records[lifecycle.KindTransport] = []record.Record{
		{ID: "401", Status: lifecycle.StatusSubmit, Title: "Airport pickup", StartTime: at(7, 0), User: requester},
	}
	s.records[lifecycle.KindVehicle] = []record.Record{
		{ID: "501", Status: lifecycle.StatusApproved, Title: "Site visit", StartTime: at(8, 0), EndTime: ptr(at(17, 0)),
			Assignment: &record.Assignment{DriverID: "d-3", VehicleID: "v-7"}},
		{ID: "502", Status: lifecycle.StatusApproved, Title: "Supply run", StartTime: at(10, 0)},
	}
}

func (s *store) routes() http.Handler {
	r := chi.NewRouter()
	for kind := range s.records {
		kind := kind
		p := lifecycle.PolicyFor(kind).Path
		r.Get(p, s.list(kind))
		r.Get(p+"/{id}", s.get(kind))
		r.Put(p+"/{id}/status", s.transition(kind))
		r.Get(p+"/{id}/receipt", s.receipt(kind))
	}
	r.Get("/schedule", s.schedule)
	r.Get("/resources", s.listResources)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseStatuses(raw string) map[lifecycle.Status]bool {
	out := map[lifecycle.Status]bool{}
	for _, part := range strings.Split(raw, ",") {
		if st, err := lifecycle.ParseStatus(part); err == nil {
			out[st] = true
		}
	}
	return out
}

func matches(rec record.Record, statuses map[lifecycle.Status]bool, search, date string) bool {
	if len(statuses) > 0 && !statuses[rec.Status] {
		return false
	}
	if search != "" && !strings.Contains(strings.ToLower(rec.Title), strings.ToLower(search)) {
		return false
	}
	if date != "" && rec.StartTime.Format(schedule.DateFormat) != date {
		return false
	}
	return true
}

func (s *store) list(kind lifecycle.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		if perPage < 1 {
			perPage = 10
		}
		statuses := parseStatuses(q.Get("status"))

		s.mu.Lock()
		var hits []record.Record
		for _, rec := range s.records[kind] {
			if matches(rec, statuses, q.Get("search"), q.Get("date")) {
				hits = append(hits, rec)
			}
		}
		s.mu.Unlock()

		total := len(hits)
		from := (page - 1) * perPage
		if from > total {
			from = total
		}
		to := from + perPage
		if to > total {
			to = total
		}
		writeJSON(w, http.StatusOK, record.Page{
			Data: append([]record.Record{}, hits[from:to]...),
			Pagination: record.Pagination{
				Total:      total,
				TotalPages: (total + perPage - 1) / perPage,
				Page:       page,
			},
		})
	}
}

func (s *store) find(kind lifecycle.Kind, id string) (int, bool) {
	for i, rec := range s.records[kind] {
		if rec.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *store) get(kind lifecycle.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i, ok := s.find(kind, chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": s.records[kind][i]})
	}
}

func (s *store) transition(kind lifecycle.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status          string `json:"status"`
			RejectionReason string `json:"rejection_reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid json"})
			return
		}
		to, err := lifecycle.ParseStatus(body.Status)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		i, ok := s.find(kind, chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
			return
		}
		rec := s.records[kind][i]
		if !lifecycle.PolicyFor(kind).Allows(to) || !lifecycle.CanTransition(rec.Status, to) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": fmt.Sprintf("cannot move %s from %s to %s", rec.ID, rec.Status, to),
			})
			return
		}

		rec.Status = to
		now := s.now().UTC()
		rec.UpdatedAt = &now
		if to == lifecycle.StatusApproved {
			by := "admin"
			rec.ApprovedBy = &by
			// approving one side of a conflict resolves it for the others on the resource
			s.settleConflicts(kind, rec)
		}
		s.records[kind][i] = rec
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
	}
}

func (s *store) settleConflicts(kind lifecycle.Kind, approved record.Record) {
	if approved.ResourceID == nil {
		return
	}
	for i, rec := range s.records[kind] {
		if rec.ID == approved.ID || rec.ResourceID == nil || *rec.ResourceID != *approved.ResourceID {
			continue
		}
		if rec.Status == lifecycle.StatusSubmit && overlaps(rec, approved) {
			s.records[kind][i].IsConflicting = true
		}
	}
}

func overlaps(a, b record.Record) bool {
	end := func(r record.Record) time.Time {
		if r.EndTime != nil {
			return *r.EndTime
		}
		return r.StartTime
	}
	return !a.StartTime.After(end(b)) && !b.StartTime.After(end(a))
}

func (s *store) receipt(kind lifecycle.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		i, ok := s.find(kind, chi.URLParam(r, "id"))
		var rec record.Record
		if ok {
			rec = s.records[kind][i]
		}
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
			return
		}
		if !lifecycle.PolicyFor(kind).Print || rec.Status == lifecycle.StatusSubmit {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "nothing to print"})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.html"`, kind, rec.ID))
		fmt.Fprintf(w, "<html><body><h1>%s</h1><p>%s %s, %s</p></body></html>\n",
			lifecycle.PolicyFor(kind).PrintLabel, kind, rec.ID, rec.Status)
	}
}

func (s *store) schedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses := parseStatuses(q.Get("status"))
	g := q.Get("group")
	grouped := g != ""
	group := map[string]bool{}
	if grouped {
		for _, res := range s.resources {
			if res.Group == g {
				group[strconv.Itoa(res.ID)] = true
			}
		}
	}

	s.mu.Lock()
	var out []record.Record
	for _, rec := range s.records[lifecycle.KindBooking] {
		if !matches(rec, statuses, "", q.Get("date")) {
			continue
		}
		if grouped && (rec.ResourceID == nil || !group[*rec.ResourceID]) {
			continue
		}
		out = append(out, rec)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	writeJSON(w, http.StatusOK, map[string]any{"data": append([]record.Record{}, out...)})
}

func (s *store) listResources(w http.ResponseWriter, r *http.Request) {
	g := r.URL.Query().Get("group")
	out := []resource{}
	for _, res := range s.resources {
		if g == "" || res.Group == g {
			out = append(out, res)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}
