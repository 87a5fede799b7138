package indicators

import (
	"errors"
	"math"

	"github.com/vdtran/position-guardian/pkg/types"
)

// ATR measures volatility as a Wilder-smoothed average of the true range.
// The coordinator uses it to size trailing-stop distances.
type ATR struct {
	period int
}

// NewATR creates a new ATR calculator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Calculate computes the ATR over the supplied candles. It needs period+1
// candles because the true range of the first candle has no previous close.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.period+1 {
		return 0, errors.New("insufficient data for ATR calculation")
	}

	window := data[len(data)-a.period-1:]
	atr := 0.0
	for i := 1; i < len(window); i++ {
		tr := trueRange(window[i], window[i-1].Close)
		if i == 1 {
			atr = tr
			continue
		}
		// Wilder's smoothing.
		atr = (atr*float64(a.period-1) + tr) / float64(a.period)
	}
	return atr, nil
}

// Period returns the configured lookback.
func (a *ATR) Period() int {
	return a.period
}

func trueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
