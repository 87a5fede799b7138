package reporting

import (
	"time"
)

// ExitRecord is one executed exit instruction.
type ExitRecord struct {
	Time     time.Time
	Symbol   string
	Side     string
	Fraction float64
	Qty      float64
	Price    float64
	Reason   string
}

// StopRecord is one executed stop amendment.
type StopRecord struct {
	Time   time.Time
	Symbol string
	Stop   float64
	Reason string
}

// CapitalPoint is one equity observation.
type CapitalPoint struct {
	Time        time.Time
	Equity      float64
	DrawdownPct float64
}

// SessionReport accumulates one account's session for console and Excel
// output. It is filled by a single goroutine alongside the coordinator.
type SessionReport struct {
	Account   string
	StartedAt time.Time
	EndedAt   time.Time

	StartEquity    float64
	EndEquity      float64
	MaxDrawdownPct float64

	Exits   []ExitRecord
	Stops   []StopRecord
	Capital []CapitalPoint
}

// NewSessionReport starts a report for one account.
func NewSessionReport(account string, startEquity float64, now time.Time) *SessionReport {
	return &SessionReport{
		Account:     account,
		StartedAt:   now,
		StartEquity: startEquity,
		EndEquity:   startEquity,
	}
}

// AddExit records an executed exit.
func (r *SessionReport) AddExit(e ExitRecord) {
	r.Exits = append(r.Exits, e)
}

// AddStop records an executed stop amendment.
func (r *SessionReport) AddStop(s StopRecord) {
	r.Stops = append(r.Stops, s)
}

// AddCapitalPoint records an equity observation and folds it into the
// session extremes.
func (r *SessionReport) AddCapitalPoint(p CapitalPoint) {
	r.Capital = append(r.Capital, p)
	r.EndEquity = p.Equity
	r.EndedAt = p.Time
	if p.DrawdownPct > r.MaxDrawdownPct {
		r.MaxDrawdownPct = p.DrawdownPct
	}
}

// ExitsByReason counts recorded exits per reason.
func (r *SessionReport) ExitsByReason() map[string]int {
	out := make(map[string]int)
	for _, e := range r.Exits {
		out[e.Reason]++
	}
	return out
}

// ReturnPct is the session's net return over the starting equity.
func (r *SessionReport) ReturnPct() float64 {
	if r.StartEquity == 0 {
		return 0
	}
	return (r.EndEquity - r.StartEquity) / r.StartEquity
}
