package trailing

import "fmt"

// TPStage is one rung of the take-profit ladder, expressed in R-multiples.
type TPStage struct {
	Name             string  `json:"name"`
	ProfitRThreshold float64 `json:"profit_r_threshold"`
	ExitFraction     float64 `json:"exit_fraction"`
}

// Config holds the trailing-stop state machine parameters.
type Config struct {
	ActivationR        float64   `json:"activation_r"`         // R-multiple that arms break-even + trailing (default: 1.0)
	BreakevenBufferPct float64   `json:"breakeven_buffer_pct"` // Entry offset covering round-trip fees (default: 0.001)
	ATRMultiplier      float64   `json:"atr_multiplier"`       // Trailing distance in ATRs (default: 1.5)
	FastMAPeriod       int       `json:"fast_ma_period"`       // Fast MA for trend-break detection (default: 9)
	SlowMAPeriod       int       `json:"slow_ma_period"`       // Slow MA for trend-break detection (default: 21)
	Stages             []TPStage `json:"stages"`               // Ordered take-profit ladder
}

// NewDefaultConfig returns the stock trailing-stop configuration.
func NewDefaultConfig() *Config {
	return &Config{
		ActivationR:        1.0,
		BreakevenBufferPct: 0.001,
		ATRMultiplier:      1.5,
		FastMAPeriod:       9,
		SlowMAPeriod:       21,
		Stages: []TPStage{
			{Name: "tp1", ProfitRThreshold: 1.0, ExitFraction: 0.25},
			{Name: "tp2", ProfitRThreshold: 2.0, ExitFraction: 0.25},
			{Name: "tp3", ProfitRThreshold: 3.0, ExitFraction: 0.50},
		},
	}
}

// Validate validates the trailing-stop configuration.
func (c *Config) Validate() error {
	if c.ActivationR <= 0 {
		return fmt.Errorf("activation R must be positive, got %.2f", c.ActivationR)
	}
	if c.BreakevenBufferPct < 0 || c.BreakevenBufferPct > 0.05 {
		return fmt.Errorf("breakeven buffer must be in [0, 0.05], got %.4f", c.BreakevenBufferPct)
	}
	if c.ATRMultiplier <= 0 {
		return fmt.Errorf("ATR multiplier must be positive, got %.2f", c.ATRMultiplier)
	}
	if c.FastMAPeriod < 2 || c.SlowMAPeriod <= c.FastMAPeriod {
		return fmt.Errorf("MA periods must satisfy 2 <= fast < slow, got fast=%d slow=%d", c.FastMAPeriod, c.SlowMAPeriod)
	}
	prev := 0.0
	for i, st := range c.Stages {
		if st.Name == "" {
			return fmt.Errorf("stage %d: empty name", i)
		}
		if st.ProfitRThreshold <= prev {
			return fmt.Errorf("stage %q: thresholds must be strictly ascending", st.Name)
		}
		if st.ExitFraction <= 0 || st.ExitFraction > 1 {
			return fmt.Errorf("stage %q: exit fraction must be in (0, 1], got %.2f", st.Name, st.ExitFraction)
		}
		prev = st.ProfitRThreshold
	}
	return nil
}
