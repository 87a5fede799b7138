package capital

import (
	"fmt"
	"math"
)

// State tracks one account's capital and drawdown. The peak never decreases,
// so drawdown is always measured against the best the account has ever been.
type State struct {
	BaseCapital    float64
	PeakCapital    float64
	CurrentCapital float64
	DrawdownPct    float64
}

// Scaler converts account drawdown and market condition into an exposure
// multiplier for new deployments. One instance per account; no locking
// because each account's loop owns its scaler exclusively.
type Scaler struct {
	config *Config
	state  State
}

// NewScaler creates a capital scaler seeded with the account's starting
// capital. A nil config selects defaults.
func NewScaler(config *Config, baseCapital float64) (*Scaler, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if baseCapital <= 0 || math.IsNaN(baseCapital) {
		return nil, fmt.Errorf("capital: base capital must be positive, got %v", baseCapital)
	}
	return &Scaler{
		config: config,
		state: State{
			BaseCapital:    baseCapital,
			PeakCapital:    baseCapital,
			CurrentCapital: baseCapital,
		},
	}, nil
}

// State returns a copy of the current capital state.
func (s *Scaler) State() State {
	return s.state
}

// UpdateCapital records the broker-reported equity for this cycle. The peak
// only ratchets upward and the recomputed drawdown is never negative.
func (s *Scaler) UpdateCapital(current float64) {
	if current <= 0 || math.IsNaN(current) {
		return // a bad equity reading must not poison the drawdown series
	}
	s.state.CurrentCapital = current
	if current > s.state.PeakCapital {
		s.state.PeakCapital = current
	}
	s.state.DrawdownPct = (s.state.PeakCapital - current) / s.state.PeakCapital
}

// ClassifyMarketCondition derives the operating condition from the stored
// drawdown plus the cycle's trend and volatility readings. Drawdown bands are
// checked first, most severe wins; the trend classification additionally
// requires drawdown to be comfortably low.
func (s *Scaler) ClassifyMarketCondition(isTrending bool, volatilityPct float64) MarketCondition {
	dd := s.state.DrawdownPct
	switch {
	case dd > s.config.DrawdownCriticalPct:
		return ConditionDrawdownCritical
	case dd > s.config.DrawdownSeverePct:
		return ConditionDrawdownSevere
	case dd > s.config.DrawdownModeratePct:
		return ConditionDrawdownModerate
	}

	if isTrending && dd < s.config.TrendMaxDrawdown {
		return ConditionStrongTrendLowDrawdown
	}
	if volatilityPct > s.config.VolatilityTrigger {
		return ConditionElevatedVolatility
	}
	return ConditionNeutral
}

// GetCapitalMultiplier maps a condition to the midpoint of its configured
// multiplier band. Neutral is always 1.0.
func (s *Scaler) GetCapitalMultiplier(condition MarketCondition) float64 {
	switch condition {
	case ConditionStrongTrendLowDrawdown:
		return s.config.StrongTrendBand.Mid()
	case ConditionElevatedVolatility:
		return s.config.ElevatedVolBand.Mid()
	case ConditionDrawdownModerate, ConditionDrawdownSevere, ConditionDrawdownCritical:
		return s.config.DrawdownBand.Mid()
	default:
		return 1.0
	}
}

// ApplyDrawdownThrottling applies a second, stricter multiplicative safety
// cut on top of whatever the classification already decided. Thresholds are
// checked most severe first and only the first match applies; the cuts do
// not compound.
func (s *Scaler) ApplyDrawdownThrottling(exposure float64) float64 {
	dd := s.state.DrawdownPct
	switch {
	case dd > s.config.DrawdownCriticalPct:
		return exposure * s.config.ThrottleCritical
	case dd > s.config.DrawdownSeverePct:
		return exposure * s.config.ThrottleSevere
	case dd > s.config.DrawdownModeratePct:
		return exposure * s.config.ThrottleModerate
	default:
		return exposure
	}
}

// CalculateOptimalExposure composes the classification multiplier with the
// drawdown throttle: classify, scale the base size, then cut.
func (s *Scaler) CalculateOptimalExposure(basePositionSize float64, isTrending bool, volatilityPct float64) (float64, MarketCondition, float64) {
	condition := s.ClassifyMarketCondition(isTrending, volatilityPct)
	multiplier := s.GetCapitalMultiplier(condition)
	exposure := basePositionSize * multiplier
	exposure = s.ApplyDrawdownThrottling(exposure)
	return exposure, condition, multiplier
}
