package types

// ExitInstruction asks the execution layer to close part or all of a position.
// Fraction is in (0, 1] of the remaining size.
type ExitInstruction struct {
	Symbol   string
	Side     Side
	Fraction float64
	Reason   string
}

// StopInstruction asks the execution layer to move a position's stop loss.
type StopInstruction struct {
	Symbol   string
	Side     Side
	NewStop  float64
	Reason   string
}

// ExposureApproval is the sizing decision handed to the capital-allocation
// side when a new entry is being considered.
type ExposureApproval struct {
	ApprovedUSD float64
	Condition   string
	Multiplier  float64
}

// PositionSnapshot is an exchange-reported open position, used to adopt
// positions opened outside the guardian and to reconcile sizes.
type PositionSnapshot struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	Size       float64
	ValueUSD   float64
}
