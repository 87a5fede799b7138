package types

// Side is the direction of an open position.
type Side int

const (
	SideLong Side = iota
	SideShort
)

// String returns the string representation of the position side.
func (s Side) String() string {
	switch s {
	case SideLong:
		return "long"
	case SideShort:
		return "short"
	default:
		return "unknown"
	}
}

// Sign returns +1 for long and -1 for short, used to fold the two
// directional cases into one arithmetic path.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}
