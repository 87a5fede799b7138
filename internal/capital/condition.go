package capital

// MarketCondition classifies the account's operating environment. Drawdown
// bands always take priority over trend and volatility classification.
type MarketCondition int

const (
	ConditionNeutral MarketCondition = iota
	ConditionStrongTrendLowDrawdown
	ConditionElevatedVolatility
	ConditionDrawdownModerate
	ConditionDrawdownSevere
	ConditionDrawdownCritical
)

// String returns the string representation of the market condition.
func (c MarketCondition) String() string {
	switch c {
	case ConditionStrongTrendLowDrawdown:
		return "strong_trend_low_drawdown"
	case ConditionElevatedVolatility:
		return "elevated_volatility"
	case ConditionDrawdownModerate:
		return "drawdown_moderate"
	case ConditionDrawdownSevere:
		return "drawdown_severe"
	case ConditionDrawdownCritical:
		return "drawdown_critical"
	default:
		return "neutral"
	}
}
