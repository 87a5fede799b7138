package indicators

import (
	"errors"
	"math"
)

// RSI computes the Relative Strength Index over a close-price series. The
// rotation scorer treats readings above 70 / below 30 as stretched.
type RSI struct {
	period int
}

// NewRSI creates a new RSI calculator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate computes the RSI of the latest close.
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if len(prices) < r.period+1 {
		return 0, errors.New("insufficient data for RSI calculation")
	}

	gains, losses := 0.0, 0.0
	window := prices[len(prices)-r.period-1:]
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	if losses == 0 {
		return 100, nil
	}

	rs := gains / losses
	return 100 - (100 / (1 + rs)), nil
}
