package domain

import "fmt"

// PlanField is a domain value that identifies a single learning-plan field for
// per-field disclosure.
//
// Usage: construct via ParsePlanField at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type PlanField string

// Learning-plan fields, in stored order.
const (
	PlanFieldMethod     PlanField = "method"
	PlanFieldDifficulty PlanField = "difficulty"
	PlanFieldPacing     PlanField = "pacing"
)

// PlanFields lists all fields in stored order.
var PlanFields = [...]PlanField{PlanFieldMethod, PlanFieldDifficulty, PlanFieldPacing}

var planFieldIndex = map[PlanField]int{
	PlanFieldMethod:     0,
	PlanFieldDifficulty: 1,
	PlanFieldPacing:     2,
}

// ParsePlanField validates and returns a PlanField.
func ParsePlanField(s string) (PlanField, error) {
	f := PlanField(s)
	if _, ok := planFieldIndex[f]; !ok {
		return "", fmt.Errorf("unknown plan field: %s", s)
	}
	return f, nil
}

// Index returns the field's position in the stored field order. Unknown
// fields return -1; callers are expected to have parsed the value first.
func (f PlanField) Index() int {
	if i, ok := planFieldIndex[f]; ok {
		return i
	}
	return -1
}

// String returns the string representation of the plan field.
func (f PlanField) String() string { return string(f) }
