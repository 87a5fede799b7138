package protect

import (
	"fmt"
	"time"
)

// LadderRung is one partial-exit level: once profit reaches Threshold, exit
// Fraction of the remaining size. Each rung fires at most once per position.
type LadderRung struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"` // Signed profit fraction, e.g. 0.01 = 1%
	Fraction  float64 `json:"fraction"`  // Share of remaining size to exit
}

// Config holds the profit-protection parameters.
type Config struct {
	Ladder               []LadderRung  `json:"ladder"`
	BreakevenTriggerPct  float64       `json:"breakeven_trigger_pct"`   // Profit that arms the break-even move (default: 0.5%)
	FeeBufferPct         float64       `json:"fee_buffer_pct"`          // Entry offset covering fees (default: 0.15%)
	StagnationAfter      time.Duration `json:"stagnation_after"`        // Minimum holding time before a stagnation exit (default: 30m)
	StagnationMinMovePct float64       `json:"stagnation_min_move_pct"` // Absolute movement below which a position is stagnant (default: 0.3%)
}

// NewDefaultConfig returns the stock profit-protection configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Ladder: []LadderRung{
			{Name: "ladder_1pct", Threshold: 0.01, Fraction: 0.40},
			{Name: "ladder_2pct", Threshold: 0.02, Fraction: 0.30},
		},
		BreakevenTriggerPct:  0.005,
		FeeBufferPct:         0.0015,
		StagnationAfter:      30 * time.Minute,
		StagnationMinMovePct: 0.003,
	}
}

// Validate validates the profit-protection configuration.
func (c *Config) Validate() error {
	prev := 0.0
	for i, rung := range c.Ladder {
		if rung.Name == "" {
			return fmt.Errorf("ladder rung %d: empty name", i)
		}
		if rung.Threshold <= prev {
			return fmt.Errorf("ladder rung %q: thresholds must be strictly ascending", rung.Name)
		}
		if rung.Fraction <= 0 || rung.Fraction > 1 {
			return fmt.Errorf("ladder rung %q: fraction must be in (0, 1], got %.2f", rung.Name, rung.Fraction)
		}
		prev = rung.Threshold
	}
	if c.BreakevenTriggerPct <= 0 {
		return fmt.Errorf("breakeven trigger must be positive, got %.4f", c.BreakevenTriggerPct)
	}
	if c.FeeBufferPct < 0 || c.FeeBufferPct >= c.BreakevenTriggerPct {
		return fmt.Errorf("fee buffer must be in [0, trigger), got %.4f", c.FeeBufferPct)
	}
	if c.StagnationAfter <= 0 {
		return fmt.Errorf("stagnation window must be positive, got %s", c.StagnationAfter)
	}
	if c.StagnationMinMovePct <= 0 {
		return fmt.Errorf("stagnation movement threshold must be positive, got %.4f", c.StagnationMinMovePct)
	}
	return nil
}
