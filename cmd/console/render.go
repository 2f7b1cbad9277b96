package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/queue"
	"resourcedesk/internal/record"
	"resourcedesk/internal/schedule"
)

const timeLayout = "2006-01-02 15:04"

func actionLabels(actions []lifecycle.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, string(a.Kind))
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func place(r record.Record) string {
	if r.Resource != nil && r.Resource.Name != "" {
		return r.Resource.Name
	}
	if id := r.ResourceKey(); id != "" {
		return id
	}
	if r.Location != nil {
		return *r.Location
	}
	return ""
}

func renderViews(w io.Writer, views []record.View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCLASS\tSTART\tWHERE\tACTIONS")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Status, v.ConflictClass, v.StartTime.Format(timeLayout), orDash(place(v.Record)), actionLabels(v.Actions))
	}
	return tw.Flush()
}

func renderPagination(w io.Writer, p record.Pagination) {
	if p.TotalPages > 0 {
		fmt.Fprintf(w, "page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	}
}

func renderView(w io.Writer, v record.View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", v.ID)
	fmt.Fprintf(tw, "kind\t%s\n", v.Kind)
	fmt.Fprintf(tw, "status\t%s\n", v.Status)
	fmt.Fprintf(tw, "class\t%s\n", v.ConflictClass)
	fmt.Fprintf(tw, "title\t%s\n", orDash(v.Title))
	fmt.Fprintf(tw, "start\t%s\n", v.StartTime.Format(timeLayout))
	if v.EndTime != nil {
		fmt.Fprintf(tw, "end\t%s\n", v.EndTime.Format(timeLayout))
	}
	fmt.Fprintf(tw, "where\t%s\n", orDash(place(v.Record)))
	if v.User != nil {
		fmt.Fprintf(tw, "requester\t%s\n", orDash(v.User.Name))
	}
	if v.ApprovedBy != nil {
		fmt.Fprintf(tw, "approved by\t%s\n", *v.ApprovedBy)
	}
	if v.Assignment.Present() {
		fmt.Fprintf(tw, "driver\t%s\n", orDash(v.Assignment.DriverID))
		fmt.Fprintf(tw, "vehicle\t%s\n", orDash(v.Assignment.VehicleID))
	}
	labels := make([]string, 0, len(v.Actions))
	for _, a := range v.Actions {
		labels = append(labels, a.Label+" ("+string(a.Kind)+")")
	}
	fmt.Fprintf(tw, "actions\t%s\n", orDash(strings.Join(labels, ", ")))
	return tw.Flush()
}

func renderGrid(w io.Writer, g schedule.Grid, loc *time.Location) error {
	if g.Empty() {
		_, err := fmt.Fprintf(w, "%s: no bookings\n", g.Date)
		return err
	}
	fmt.Fprintf(w, "%s\n", g.Date)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range g.Columns {
		fmt.Fprintf(tw, "%s\t\t\t\n", c.ResourceName)
		for _, b := range c.Blocks {
			span := b.Start.In(loc).Format("15:04")
			if b.Instant {
				span += " *"
			} else {
				span += "-" + b.End.In(loc).Format("15:04")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", span, b.RecordID, b.Status, b.ConflictClass)
		}
	}
	return tw.Flush()
}

func renderQueue(w io.Writer, s queue.Snapshot) error {
	if s.Error != "" {
		fmt.Fprintf(w, "queue unavailable: %s\n", s.Error)
		return nil
	}
	fmt.Fprintf(w, "%d pending, %d need review\n", s.Total, s.Counts[lifecycle.ClassNeedsReview])
	return renderViews(w, s.Items)
}
