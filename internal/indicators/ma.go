package indicators

import "errors"

// SMA is a simple moving average over a close-price series.
type SMA struct {
	period int
}

// NewSMA creates a new SMA calculator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate computes the SMA of the latest window.
func (s *SMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < s.period {
		return 0, errors.New("insufficient data for SMA calculation")
	}
	sum := 0.0
	for _, p := range prices[len(prices)-s.period:] {
		sum += p
	}
	return sum / float64(s.period), nil
}

// EMA is an exponential moving average over a close-price series.
type EMA struct {
	period int
}

// NewEMA creates a new EMA calculator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Calculate seeds the EMA with an SMA of the first window, then folds the
// remaining prices in with the standard smoothing factor.
func (e *EMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < e.period {
		return 0, errors.New("insufficient data for EMA calculation")
	}

	seed := 0.0
	for _, p := range prices[:e.period] {
		seed += p
	}
	ema := seed / float64(e.period)

	k := 2.0 / float64(e.period+1)
	for _, p := range prices[e.period:] {
		ema = p*k + ema*(1-k)
	}
	return ema, nil
}
