package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// IndicatorSnapshot carries the externally computed per-cycle inputs for one
// symbol: price, volatility and momentum readings plus the profit expressed
// as a multiple of initial risk.
type IndicatorSnapshot struct {
	Price     float64
	ATR       float64
	RSI       float64
	RMultiple float64
	Timestamp time.Time
}
