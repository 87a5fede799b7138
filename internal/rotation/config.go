package rotation

import "fmt"

// Weights are the additive score adjustments applied on top of the neutral
// baseline of 50. The magnitudes were calibrated by trial; they are exposed
// as configuration rather than constants so accounts can tune them.
type Weights struct {
	LossHeavy     float64 `json:"loss_heavy"`     // P&L <= -5% (default: +30)
	LossModerate  float64 `json:"loss_moderate"`  // P&L <= -2% (default: +20)
	LossLight     float64 `json:"loss_light"`     // P&L < 0%   (default: +10)
	GainHeavy     float64 `json:"gain_heavy"`     // P&L >= 5%  (default: -30)
	GainModerate  float64 `json:"gain_moderate"`  // P&L >= 2%  (default: -20)
	AgeStale      float64 `json:"age_stale"`      // age > 8h   (default: +15)
	AgeOld        float64 `json:"age_old"`        // age > 4h   (default: +10)
	AgeFresh      float64 `json:"age_fresh"`      // age < 30m  (default: -10)
	RSIOverbought float64 `json:"rsi_overbought"` // RSI > 70   (default: +15)
	RSIOversold   float64 `json:"rsi_oversold"`   // RSI < 30   (default: -15)
	SizeDust      float64 `json:"size_dust"`      // value < $5 (default: +10)
	SizeSmall     float64 `json:"size_small"`     // value < $10 (default: +5)
}

// Config holds the rotation parameters.
type Config struct {
	Enabled              bool    `json:"enabled"`
	MinScore             float64 `json:"min_score"`             // Positions below this are too good to close (default: 40)
	ImprovementThreshold float64 `json:"improvement_threshold"` // Relative quality gain required to rotate (default: 0.20)
	MinFreeReservePct    float64 `json:"min_free_reserve_pct"`  // Free-balance floor as a share of capital (default: 10%)
	Weights              Weights `json:"weights"`
}

// NewDefaultConfig returns the stock rotation configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:              true,
		MinScore:             40,
		ImprovementThreshold: 0.20,
		MinFreeReservePct:    0.10,
		Weights: Weights{
			LossHeavy:     30,
			LossModerate:  20,
			LossLight:     10,
			GainHeavy:     -30,
			GainModerate:  -20,
			AgeStale:      15,
			AgeOld:        10,
			AgeFresh:      -10,
			RSIOverbought: 15,
			RSIOversold:   -15,
			SizeDust:      10,
			SizeSmall:     5,
		},
	}
}

// Validate validates the rotation configuration.
func (c *Config) Validate() error {
	if c.MinScore < 0 || c.MinScore > 100 {
		return fmt.Errorf("min score must be in [0, 100], got %.1f", c.MinScore)
	}
	if c.ImprovementThreshold <= 0 {
		return fmt.Errorf("improvement threshold must be positive, got %.2f", c.ImprovementThreshold)
	}
	if c.MinFreeReservePct < 0 || c.MinFreeReservePct >= 1 {
		return fmt.Errorf("free reserve must be in [0, 1), got %.2f", c.MinFreeReservePct)
	}
	return nil
}
