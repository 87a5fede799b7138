package position

import (
	"fmt"
	"math"
	"time"

	"github.com/vdtran/position-guardian/pkg/types"
)

// Position is the mutable per-symbol state owned by a single account's cycle
// loop. It is never shared across goroutines; each account gets its own
// Registry and mutates positions sequentially.
type Position struct {
	Symbol       string
	Side         types.Side
	EntryPrice   float64
	InitialSize  float64
	CurrentSize  float64
	RegisteredAt time.Time

	// Monotone peaks. Updated through RecordR / RecordProfitPct only so a
	// falling input can never lower them.
	HighestR      float64
	PeakProfitPct float64
	HighWaterMark float64

	// One-way progress flags.
	TP1Hit       bool
	TP2Hit       bool
	TP3Hit       bool
	BreakevenSet bool

	stage Stage

	// exitsTaken records ladder rungs and TP stages already consumed, keyed
	// by threshold name, so a rung can never fire twice.
	exitsTaken map[string]bool
}

// New validates the entry parameters and builds a fresh position in
// StageInitial.
func New(symbol string, side types.Side, entryPrice, size float64, now time.Time) (*Position, error) {
	if symbol == "" {
		return nil, fmt.Errorf("position: empty symbol")
	}
	if entryPrice <= 0 || math.IsNaN(entryPrice) {
		return nil, fmt.Errorf("position %s: invalid entry price %v", symbol, entryPrice)
	}
	if size <= 0 || math.IsNaN(size) {
		return nil, fmt.Errorf("position %s: invalid size %v", symbol, size)
	}
	return &Position{
		Symbol:        symbol,
		Side:          side,
		EntryPrice:    entryPrice,
		InitialSize:   size,
		CurrentSize:   size,
		RegisteredAt:  now,
		HighWaterMark: entryPrice,
		stage:         StageInitial,
		exitsTaken:    make(map[string]bool),
	}, nil
}

// Stage returns the current lifecycle stage.
func (p *Position) Stage() Stage {
	return p.stage
}

// AdvanceStage moves the position forward through the one-way lifecycle.
// Backward or repeated transitions are rejected.
func (p *Position) AdvanceStage(to Stage) error {
	if to <= p.stage {
		return fmt.Errorf("position %s: cannot move stage %s -> %s", p.Symbol, p.stage, to)
	}
	if to > p.stage+1 && !(p.stage == StageInitial && to == StageTrailing) {
		return fmt.Errorf("position %s: cannot skip from %s to %s", p.Symbol, p.stage, to)
	}
	p.stage = to
	switch to {
	case StageBreakeven:
		p.BreakevenSet = true
	case StageTrailing:
		p.BreakevenSet = true
	}
	return nil
}

// RecordR folds a new R-multiple reading into the monotone peak and sets the
// informational TP flags. A lower reading leaves the peak untouched.
func (p *Position) RecordR(rMultiple float64) {
	if rMultiple > p.HighestR {
		p.HighestR = rMultiple
	}
	if rMultiple >= 2.0 {
		p.TP2Hit = true
	}
	if rMultiple >= 3.0 {
		p.TP3Hit = true
	}
}

// RecordProfitPct folds a signed profit percentage into the monotone peak.
func (p *Position) RecordProfitPct(profitPct float64) {
	if profitPct > p.PeakProfitPct {
		p.PeakProfitPct = profitPct
	}
}

// RecordPrice updates the high-water mark (low-water for shorts).
func (p *Position) RecordPrice(price float64) {
	if p.Side == types.SideLong {
		if price > p.HighWaterMark {
			p.HighWaterMark = price
		}
		return
	}
	if price < p.HighWaterMark {
		p.HighWaterMark = price
	}
}

// ProfitPct returns the signed profit percentage at the given price.
func (p *Position) ProfitPct(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice * p.Side.Sign()
}

// ExitTaken reports whether the named ladder rung or TP stage was already
// consumed.
func (p *Position) ExitTaken(name string) bool {
	return p.exitsTaken[name]
}

// MarkExitTaken consumes a ladder rung permanently.
func (p *Position) MarkExitTaken(name string) {
	if p.exitsTaken == nil {
		p.exitsTaken = make(map[string]bool)
	}
	p.exitsTaken[name] = true
}

// Reduce shrinks the remaining size by a fraction of CurrentSize and reports
// whether the position is now fully closed. Fractions outside (0, 1] are
// clamped rather than rejected; this layer is advisory and must not abort a
// trading loop on a rounding artifact.
func (p *Position) Reduce(fraction float64) (closed bool) {
	if fraction <= 0 {
		return p.CurrentSize <= 0
	}
	if fraction > 1 {
		fraction = 1
	}
	p.CurrentSize -= p.CurrentSize * fraction
	if p.CurrentSize <= p.InitialSize*1e-9 {
		p.CurrentSize = 0
		return true
	}
	return false
}

// AgeAt returns how long the position has been open at the given time.
func (p *Position) AgeAt(now time.Time) time.Duration {
	return now.Sub(p.RegisteredAt)
}
