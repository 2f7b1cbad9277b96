package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/queue"
	"resourcedesk/internal/record"
	"resourcedesk/internal/schedule"
)

func TestRenderViews_ShowsClassAndActions(t *testing.T) {
	loc := "Hall B"
	views := record.AnnotateAll(lifecycle.KindBooking, []record.Record{
		{ID: "7", Status: lifecycle.StatusSubmit, IsConflicting: true, StartTime: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "8", Status: lifecycle.StatusApproved, Location: &loc, StartTime: time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)},
	}, lifecycle.RoleAdmin)

	var buf bytes.Buffer
	require.NoError(t, renderViews(&buf, views))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
	require.Contains(t, lines[1], "NeedsReview")
	require.Contains(t, lines[1], "reassign")
	require.Contains(t, lines[2], "Hall B")
	require.Contains(t, lines[2], "2024-01-10 11:00")
}

func TestRenderGrid_MarksInstantBlocks(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	g := schedule.Grid{
		Date: "2024-01-10",
		Columns: []schedule.Column{{
			ResourceID:   "3",
			ResourceName: "Room 3",
			Blocks: []schedule.Block{
				{RecordID: "1", Start: start, End: &end, Status: lifecycle.StatusApproved},
				{RecordID: "2", Start: start.Add(3 * time.Hour), Instant: true, Status: lifecycle.StatusSubmit},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, renderGrid(&buf, g, time.UTC))
	out := buf.String()
	require.Contains(t, out, "Room 3")
	require.Contains(t, out, "09:00-10:30")
	require.Contains(t, out, "12:00 *")

	buf.Reset()
	require.NoError(t, renderGrid(&buf, schedule.Grid{Date: "2024-01-11"}, time.UTC))
	require.Equal(t, "2024-01-11: no bookings\n", buf.String())
}

func TestRenderQueue_ReportsError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderQueue(&buf, queue.Snapshot{Error: "backend unavailable"}))
	require.Equal(t, "queue unavailable: backend unavailable\n", buf.String())
}

func TestListOptions_ParsesStatuses(t *testing.T) {
	q, err := listOptions{Status: "submit, Approved", Page: 2}.query()
	require.NoError(t, err)
	require.Equal(t, []lifecycle.Status{lifecycle.StatusSubmit, lifecycle.StatusApproved}, q.Statuses)
	require.Equal(t, 2, q.Page)

	_, err = listOptions{Status: "Archived"}.query()
	require.Error(t, err)
}
