package capital

import "fmt"

// Band is a multiplier range; the scaler applies its midpoint.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the band midpoint.
func (b Band) Mid() float64 {
	return (b.Low + b.High) / 2
}

// Config holds the capital-scaling parameters.
type Config struct {
	StrongTrendBand   Band    `json:"strong_trend_band"`   // default: 1.25–1.6x
	ElevatedVolBand   Band    `json:"elevated_vol_band"`   // default: 0.6–0.8x
	DrawdownBand      Band    `json:"drawdown_band"`       // default: 0.3–0.5x, any drawdown condition
	VolatilityTrigger float64 `json:"volatility_trigger"`  // Volatility pct above which conditions are elevated (default: 40)
	TrendMaxDrawdown  float64 `json:"trend_max_drawdown"`  // Strong-trend classification requires drawdown below this (default: 2%)

	// Drawdown classification bands, checked most severe first.
	DrawdownModeratePct float64 `json:"drawdown_moderate_pct"` // default: 3%
	DrawdownSeverePct   float64 `json:"drawdown_severe_pct"`   // default: 6%
	DrawdownCriticalPct float64 `json:"drawdown_critical_pct"` // default: 10%

	// Throttle cuts applied independently of the classification multiplier,
	// most severe first, only the first match applies.
	ThrottleModerate float64 `json:"throttle_moderate"` // default: 0.75 above the moderate band
	ThrottleSevere   float64 `json:"throttle_severe"`   // default: 0.40 above the severe band
	ThrottleCritical float64 `json:"throttle_critical"` // default: 0.20 above the critical band
}

// NewDefaultConfig returns the stock capital-scaling configuration.
func NewDefaultConfig() *Config {
	return &Config{
		StrongTrendBand:     Band{Low: 1.25, High: 1.6},
		ElevatedVolBand:     Band{Low: 0.6, High: 0.8},
		DrawdownBand:        Band{Low: 0.3, High: 0.5},
		VolatilityTrigger:   40,
		TrendMaxDrawdown:    0.02,
		DrawdownModeratePct: 0.03,
		DrawdownSeverePct:   0.06,
		DrawdownCriticalPct: 0.10,
		ThrottleModerate:    0.75,
		ThrottleSevere:      0.40,
		ThrottleCritical:    0.20,
	}
}

// Validate validates the capital-scaling configuration.
func (c *Config) Validate() error {
	for _, b := range []struct {
		name string
		band Band
	}{
		{"strong trend", c.StrongTrendBand},
		{"elevated volatility", c.ElevatedVolBand},
		{"drawdown", c.DrawdownBand},
	} {
		if b.band.Low <= 0 || b.band.High < b.band.Low {
			return fmt.Errorf("%s band must satisfy 0 < low <= high, got [%.2f, %.2f]", b.name, b.band.Low, b.band.High)
		}
	}
	if !(c.DrawdownModeratePct < c.DrawdownSeverePct && c.DrawdownSeverePct < c.DrawdownCriticalPct) {
		return fmt.Errorf("drawdown bands must be strictly ascending, got %.2f/%.2f/%.2f",
			c.DrawdownModeratePct, c.DrawdownSeverePct, c.DrawdownCriticalPct)
	}
	if !(c.ThrottleCritical <= c.ThrottleSevere && c.ThrottleSevere <= c.ThrottleModerate) {
		return fmt.Errorf("throttle cuts must tighten with severity, got %.2f/%.2f/%.2f",
			c.ThrottleModerate, c.ThrottleSevere, c.ThrottleCritical)
	}
	for _, cut := range []float64{c.ThrottleModerate, c.ThrottleSevere, c.ThrottleCritical} {
		if cut <= 0 || cut > 1 {
			return fmt.Errorf("throttle cuts must be in (0, 1], got %.2f", cut)
		}
	}
	return nil
}
