package record

import (
	"encoding/json"
	"sort"

	"resourcedesk/internal/lifecycle"
)

// View is a record annotated for one viewer.
type View struct {
	Record
	Kind          lifecycle.Kind         `json:"kind"`
	Actions       []lifecycle.Action     `json:"actions"`
	ConflictClass lifecycle.DisplayClass `json:"conflict_class"`
}

// UnmarshalJSON decodes the record and its annotations; without it the
// embedded Record's decoder would drop kind, actions and conflict_class.
func (v *View) UnmarshalJSON(b []byte) error {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	var ann struct {
		Kind          lifecycle.Kind         `json:"kind"`
		Actions       []lifecycle.Action     `json:"actions"`
		ConflictClass lifecycle.DisplayClass `json:"conflict_class"`
	}
	if err := json.Unmarshal(b, &ann); err != nil {
		return err
	}
	*v = View{Record: rec, Kind: ann.Kind, Actions: ann.Actions, ConflictClass: ann.ConflictClass}
	return nil
}

func Annotate(kind lifecycle.Kind, rec Record, role lifecycle.Role) View {
	p := lifecycle.PolicyFor(kind)
	return View{
		Record:        rec,
		Kind:          kind,
		Actions:       p.Actions(Subject(rec, role)),
		ConflictClass: lifecycle.ClassifyConflict(rec.Status, rec.Conflicting()),
	}
}

func AnnotateAll(kind lifecycle.Kind, recs []Record, role lifecycle.Role) []View {
	out := make([]View, 0, len(recs))
	for _, r := range recs {
		out = append(out, Annotate(kind, r, role))
	}
	return out
}

// Subject builds the authorizer input for rec as seen by role.
func Subject(rec Record, role lifecycle.Role) lifecycle.Subject {
	return lifecycle.Subject{
		Status:      rec.Status,
		Conflicting: rec.Conflicting(),
		Role:        role,
		Assigned:    rec.Assignment.Present(),
	}
}

// SortForReview orders views NeedsReview first, then Normal, then Resolved,
// keeping backend order within a class.
func SortForReview(views []View) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ConflictClass.Priority() < views[j].ConflictClass.Priority()
	})
}

func (v View) Offers(k lifecycle.ActionKind) bool {
	for _, a := range v.Actions {
		if a.Kind == k {
			return true
		}
	}
	return false
}
