package model

// ConstraintSeverity splits quality failures into blocking and advisory.
type ConstraintSeverity string

const (
	SeverityCritical ConstraintSeverity = "critical"
	SeverityWarning  ConstraintSeverity = "warning"
)

// UnmetConstraint is one failed quality check. Critical constraints block
// presenting the plan as final; warnings are surfaced alongside it.
type UnmetConstraint struct {
	Check    string             `json:"check"`
	Severity ConstraintSeverity `json:"severity"`
	Detail   string             `json:"detail"`
	EntityID string             `json:"entity_id,omitempty"`
	DayIndex int                `json:"day_index,omitempty"`
}

// QualityCheckResult is derived from the current itinerary and recomputed
// on every change; it is never hand-edited.
type QualityCheckResult struct {
	Passed      bool              `json:"passed"`
	Constraints []UnmetConstraint `json:"constraints,omitempty"`
}

// Criticals returns only the blocking constraints.
func (r QualityCheckResult) Criticals() []UnmetConstraint {
	var out []UnmetConstraint
	for _, c := range r.Constraints {
		if c.Severity == SeverityCritical {
			out = append(out, c)
		}
	}
	return out
}

// SatisfactionVerdict is the user's answer at the satisfaction gate.
type SatisfactionVerdict string

const (
	VerdictYes    SatisfactionVerdict = "yes"
	VerdictAlmost SatisfactionVerdict = "almost"
	VerdictNo     SatisfactionVerdict = "no"
)

// IssueCategory classifies what the user is dissatisfied with when the
// verdict is "almost". Each category maps to exactly one component to
// re-invoke.
type IssueCategory string

const (
	IssueHotels     IssueCategory = "hotel_issues"
	IssuePace       IssueCategory = "pace_issues"
	IssueDining     IssueCategory = "dining_issues"
	IssueActivities IssueCategory = "activity_issues"
	IssueAreas      IssueCategory = "area_issues"
)
