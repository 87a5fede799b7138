package exchange

import (
	"context"

	"github.com/vdtran/position-guardian/pkg/types"
)

// Executor is the execution boundary the coordinator talks to. Implementations
// must treat every call as a single serial instruction for one account; the
// coordinator never issues concurrent calls for the same account.
type Executor interface {
	// ReducePosition closes qty (base units) of the symbol's position with a
	// reduce-only market order.
	ReducePosition(ctx context.Context, symbol string, side types.Side, qty float64) error

	// UpdateStop amends the position's stop loss. It must never be used to
	// widen a stop; callers enforce tightening before issuing the call.
	UpdateStop(ctx context.Context, symbol string, side types.Side, stopPrice float64) error

	// AccountEquity returns total account equity in USD.
	AccountEquity(ctx context.Context) (float64, error)

	// FreeBalance returns the balance available for new positions in USD.
	FreeBalance(ctx context.Context) (float64, error)

	// OpenPositions returns every open position with entry, size and USD
	// value, for adopting positions opened outside the guardian.
	OpenPositions(ctx context.Context) ([]types.PositionSnapshot, error)

	// Klines returns up to limit recent candles for the symbol, oldest first.
	Klines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)
}
