package schedule

import (
	"sort"
	"time"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
)

const DateFormat = "2006-01-02"

// Booking is one occupancy window as the schedule endpoint returns it.
type Booking struct {
	ID          string
	ResourceID  string
	Title       string
	Start       time.Time
	End         *time.Time
	Status      lifecycle.Status
	Conflicting bool
}

// FromRecord lifts a backend record into a Booking. Records without a
// resource have no column and come back with an empty ResourceID.
func FromRecord(r record.Record) Booking {
	return Booking{
		ID:          r.ID,
		ResourceID:  r.ResourceKey(),
		Title:       r.Title,
		Start:       r.StartTime,
		End:         r.EndTime,
		Status:      r.Status,
		Conflicting: r.Conflicting(),
	}
}

func FromRecords(recs []record.Record) []Booking {
	out := make([]Booking, 0, len(recs))
	for _, r := range recs {
		out = append(out, FromRecord(r))
	}
	return out
}

type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Query struct {
	// Date's year, month and day name the calendar day. A booking belongs to
	// it when its start falls on that day in Location (UTC when nil).
	Date     time.Time
	Location *time.Location
	// Statuses filters by status; empty keeps everything.
	Statuses []lifecycle.Status
	// Resources is the resource-group filter. It applies when Grouped is set,
	// so a group with no resources yields an empty grid.
	Resources []string
	Grouped   bool
	// Order fixes the column order.
	Order []Resource
}

type Block struct {
	RecordID      string                 `json:"record_id"`
	Title         string                 `json:"title,omitempty"`
	Start         time.Time              `json:"start"`
	End           *time.Time             `json:"end,omitempty"`
	Instant       bool                   `json:"instant"`
	Status        lifecycle.Status       `json:"status"`
	ConflictClass lifecycle.DisplayClass `json:"conflict_class"`
}

type Column struct {
	ResourceID   string  `json:"resource_id"`
	ResourceName string  `json:"resource_name"`
	Blocks       []Block `json:"blocks"`
}

type Grid struct {
	Date    string   `json:"date"`
	Columns []Column `json:"columns"`
}

func (g Grid) Empty() bool { return len(g.Columns) == 0 }

// Assemble lays bookings out as one column per resource. It does not detect
// conflicts: overlapping blocks are kept side by side so the overlap itself
// is visible. Input slices are never modified.
func Assemble(bookings []Booking, q Query) Grid {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := q.Date.Date()

	statuses := make(map[lifecycle.Status]bool, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses[s] = true
	}
	group := make(map[string]bool, len(q.Resources))
	for _, id := range q.Resources {
		group[id] = true
	}

	byResource := map[string][]Block{}
	for _, b := range bookings {
		if b.ResourceID == "" {
			continue
		}
		if len(statuses) > 0 && !statuses[b.Status] {
			continue
		}
		if q.Grouped && !group[b.ResourceID] {
			continue
		}
		by, bm, bd := b.Start.In(loc).Date()
		if by != y || bm != m || bd != d {
			continue
		}
		byResource[b.ResourceID] = append(byResource[b.ResourceID], toBlock(b))
	}

	grid := Grid{
		Date:    time.Date(y, m, d, 0, 0, 0, 0, loc).Format(DateFormat),
		Columns: []Column{},
	}

	seen := map[string]bool{}
	for _, res := range q.Order {
		blocks, ok := byResource[res.ID]
		if !ok || seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		grid.Columns = append(grid.Columns, Column{ResourceID: res.ID, ResourceName: res.Name, Blocks: sortBlocks(blocks)})
	}

	var rest []string
	for id := range byResource {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		grid.Columns = append(grid.Columns, Column{ResourceID: id, ResourceName: id, Blocks: sortBlocks(byResource[id])})
	}
	return grid
}

func toBlock(b Booking) Block {
	blk := Block{
		RecordID:      b.ID,
		Title:         b.Title,
		Start:         b.Start,
		Instant:       b.End == nil,
		Status:        b.Status,
		ConflictClass: lifecycle.ClassifyConflict(b.Status, b.Conflicting),
	}
	if b.End != nil {
		end := *b.End
		blk.End = &end
	}
	return blk
}

func sortBlocks(blocks []Block) []Block {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		switch {
		case a.End == nil && b.End != nil:
			return true
		case a.End != nil && b.End == nil:
			return false
		case a.End != nil && b.End != nil && !a.End.Equal(*b.End):
			return a.End.Before(*b.End)
		}
		return a.RecordID < b.RecordID
	})
	return blocks
}
