package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"resourcedesk/internal/lifecycle"
)

func TestRecord_DecodesBackendShape(t *testing.T) {
	body := `{
		"id": 42,
		"status": "submit",
		"is_conflicting": 1,
		"start_time": "2024-01-10T09:00:00Z",
		"end_time": null,
		"resource_id": 7,
		"user": {"id": "u1", "name": "Rina"},
		"resource": {"id": "7", "name": "Room A"}
	}`
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	require.Equal(t, "42", rec.ID)
	require.Equal(t, lifecycle.StatusSubmit, rec.Status)
	require.True(t, rec.Conflicting())
	require.Nil(t, rec.EndTime)
	require.Equal(t, "7", rec.ResourceKey())
	require.Equal(t, "Room A", rec.Resource.Name)
}

func TestFlag_AcceptsBoolIntAndString(t *testing.T) {
	cases := map[string]bool{
		`true`:  true,
		`false`: false,
		`0`:     false,
		`1`:     true,
		`"1"`:   true,
		`"0"`:   false,
		`null`:  false,
	}
	for in, want := range cases {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(in), &f), in)
		require.Equal(t, want, bool(f), in)
	}
	var f Flag
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
}

func TestRecord_UnknownStatusKeptVerbatim(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","status":"Archived","start_time":"2024-01-10T09:00:00Z"}`), &rec))
	require.Equal(t, lifecycle.Status("Archived"), rec.Status)

	v := Annotate(lifecycle.KindBooking, rec, lifecycle.RoleAdmin)
	require.Empty(t, v.Actions)
	require.Equal(t, lifecycle.ClassResolved, v.ConflictClass)
}

func TestRecord_ValidateLocation(t *testing.T) {
	room := "r1"
	place := "Lobby"
	p := lifecycle.PolicyFor(lifecycle.KindOrder)

	require.NoError(t, Record{ID: "1", ResourceID: &room}.Validate(p))
	require.NoError(t, Record{ID: "2", Location: &place}.Validate(p))
	require.Error(t, Record{ID: "3", ResourceID: &room, Location: &place}.Validate(p))
	require.Error(t, Record{ID: "4"}.Validate(p))

	require.NoError(t, Record{ID: "5"}.Validate(lifecycle.PolicyFor(lifecycle.KindVehicle)))
}

func TestAnnotate_VehicleAssignmentEnablesStart(t *testing.T) {
	rec := Record{ID: "v1", Status: lifecycle.StatusApproved, Assignment: &Assignment{DriverID: "d1"}}
	v := Annotate(lifecycle.KindVehicle, rec, lifecycle.RoleAdmin)
	require.True(t, v.Offers(lifecycle.ActionStart))
	require.True(t, v.Offers(lifecycle.ActionPrint))

	rec.Assignment = &Assignment{}
	v = Annotate(lifecycle.KindVehicle, rec, lifecycle.RoleAdmin)
	require.False(t, v.Offers(lifecycle.ActionStart))
}

func TestSortForReview_NeedsReviewFirstAndStable(t *testing.T) {
	recs := []Record{
		{ID: "approved", Status: lifecycle.StatusApproved},
		{ID: "plain-1", Status: lifecycle.StatusSubmit},
		{ID: "conflict", Status: lifecycle.StatusSubmit, IsConflicting: true},
		{ID: "plain-2", Status: lifecycle.StatusSubmit},
	}
	views := AnnotateAll(lifecycle.KindBooking, recs, lifecycle.RoleAdmin)
	SortForReview(views)

	got := make([]string, 0, len(views))
	for _, v := range views {
		got = append(got, v.ID)
	}
	require.Equal(t, []string{"conflict", "plain-1", "plain-2", "approved"}, got)
}

func TestView_RoundTripsAnnotations(t *testing.T) {
	loc := "Hall B"
	v := Annotate(lifecycle.KindBooking, Record{ID: "7", Status: lifecycle.StatusSubmit, IsConflicting: true, Location: &loc}, lifecycle.RoleAdmin)

	b, err := json.Marshal(v)
	require.NoError(t, err)

	var got View
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "7", got.ID)
	require.True(t, got.Conflicting())
	require.Equal(t, "Hall B", *got.Location)
	require.Equal(t, lifecycle.KindBooking, got.Kind)
	require.Equal(t, lifecycle.ClassNeedsReview, got.ConflictClass)
	require.True(t, got.Offers(lifecycle.ActionReassign))
}
