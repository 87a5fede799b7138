package position

// Stage is the one-way lifecycle of a managed position. Transitions only move
// forward; AdvanceStage rejects anything else so call sites cannot regress a
// position by accident.
type Stage int

const (
	StageInitial Stage = iota
	StageBreakeven
	StageTrailing
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageBreakeven:
		return "breakeven"
	case StageTrailing:
		return "trailing"
	default:
		return "unknown"
	}
}
