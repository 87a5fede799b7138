package protect

import (
	"math"
	"time"

	"github.com/vdtran/position-guardian/internal/position"
	"github.com/vdtran/position-guardian/pkg/types"
)

// PartialExit is a fired ladder rung.
type PartialExit struct {
	Fraction float64
	Rung     string
	Reason   string
}

// BreakevenMove is a proposed stop relocation to just beyond entry.
type BreakevenMove struct {
	NewStop float64
	Reason  string
}

// StagnationExit signals a close because the position went nowhere.
type StagnationExit struct {
	Reason string
}

// Protector applies the three defensive rules of position management: the
// partial-exit ladder, the one-shot break-even move, and the stagnation
// timeout. Each check is a pure function over position state so the
// coordinator can apply whichever fires first without the rules knowing
// about each other.
type Protector struct {
	config *Config
}

// NewProtector creates a profit protector. A nil config selects defaults.
func NewProtector(config *Config) *Protector {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Protector{config: config}
}

// CheckPartialExit walks the ladder bottom-up and fires the first rung whose
// threshold the current profit meets and that has not been consumed yet. The
// rung is marked consumed permanently so it can never fire twice.
func (p *Protector) CheckPartialExit(pos *position.Position, currentPrice float64, direction types.Side) *PartialExit {
	if pos == nil {
		return nil
	}

	profit := signedProfit(pos.EntryPrice, currentPrice, direction)
	pos.RecordProfitPct(profit)

	for _, rung := range p.config.Ladder {
		if profit < rung.Threshold {
			break
		}
		if pos.ExitTaken(rung.Name) {
			continue
		}
		pos.MarkExitTaken(rung.Name)
		return &PartialExit{
			Fraction: rung.Fraction,
			Rung:     rung.Name,
			Reason:   "partial_profit",
		}
	}
	return nil
}

// CheckBreakevenMove fires at most once per position, when profit reaches the
// trigger. The proposed stop is entry shifted by the fee buffer in the profit
// direction, and it is only returned when it actually tightens the current
// stop: a proposal that would loosen it is swallowed here.
func (p *Protector) CheckBreakevenMove(pos *position.Position, currentPrice, currentStop float64, direction types.Side) *BreakevenMove {
	if pos == nil || pos.BreakevenSet {
		return nil
	}

	profit := signedProfit(pos.EntryPrice, currentPrice, direction)
	if profit < p.config.BreakevenTriggerPct {
		return nil
	}

	// The flag flips regardless of whether the stop improves; the trigger
	// condition was observed and must not re-arm.
	pos.BreakevenSet = true

	var newStop float64
	if direction == types.SideLong {
		newStop = pos.EntryPrice * (1 + p.config.FeeBufferPct)
		if currentStop != 0 && newStop <= currentStop {
			return nil
		}
	} else {
		newStop = pos.EntryPrice * (1 - p.config.FeeBufferPct)
		if currentStop != 0 && newStop >= currentStop {
			return nil
		}
	}

	return &BreakevenMove{NewStop: newStop, Reason: "breakeven_protect"}
}

// CheckStagnationExit signals a close when the position has been held past
// the configured window and price has barely moved from entry in either
// direction.
func (p *Protector) CheckStagnationExit(pos *position.Position, currentPrice float64, now time.Time, direction types.Side) *StagnationExit {
	if pos == nil {
		return nil
	}
	if pos.AgeAt(now) < p.config.StagnationAfter {
		return nil
	}

	movement := math.Abs(currentPrice-pos.EntryPrice) / pos.EntryPrice
	if movement >= p.config.StagnationMinMovePct {
		return nil
	}

	return &StagnationExit{Reason: "stagnation_timeout"}
}

func signedProfit(entry, current float64, direction types.Side) float64 {
	return (current - entry) / entry * direction.Sign()
}
