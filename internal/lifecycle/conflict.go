package lifecycle

type DisplayClass string

const (
	ClassResolved    DisplayClass = "Resolved"
	ClassNeedsReview DisplayClass = "NeedsReview"
	ClassNormal      DisplayClass = "Normal"
)

// ClassifyConflict maps a record's status and conflict flag to its badge class.
// Once a decision has been made the flag no longer matters.
func ClassifyConflict(status Status, conflicting bool) DisplayClass {
	if status != StatusSubmit {
		return ClassResolved
	}
	if conflicting {
		return ClassNeedsReview
	}
	return ClassNormal
}

// Priority orders admin queues: lower sorts first.
func (c DisplayClass) Priority() int {
	switch c {
	case ClassNeedsReview:
		return 0
	case ClassNormal:
		return 1
	default:
		return 2
	}
}
