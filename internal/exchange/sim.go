package exchange

import (
	"context"
	"fmt"

	"github.com/vdtran/position-guardian/pkg/types"
)

// SimReduce is one recorded reduce instruction.
type SimReduce struct {
	Symbol string
	Side   types.Side
	Qty    float64
}

// SimStop is one recorded stop amendment.
type SimStop struct {
	Symbol string
	Side   types.Side
	Stop   float64
}

// SimExecutor is an in-memory Executor for replays and tests. It records
// every instruction and serves account state from preset values.
type SimExecutor struct {
	Equity    float64
	Free      float64
	Positions []types.PositionSnapshot
	Candles   map[string][]types.OHLCV
	Reduces   []SimReduce
	Stops     []SimStop
	FailNext  error
}

// NewSimExecutor creates a simulated executor with the given equity.
func NewSimExecutor(equity float64) *SimExecutor {
	return &SimExecutor{
		Equity:  equity,
		Free:    equity,
		Candles: make(map[string][]types.OHLCV),
	}
}

func (s *SimExecutor) ReducePosition(ctx context.Context, symbol string, side types.Side, qty float64) error {
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.Reduces = append(s.Reduces, SimReduce{Symbol: symbol, Side: side, Qty: qty})
	return nil
}

func (s *SimExecutor) UpdateStop(ctx context.Context, symbol string, side types.Side, stopPrice float64) error {
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.Stops = append(s.Stops, SimStop{Symbol: symbol, Side: side, Stop: stopPrice})
	return nil
}

func (s *SimExecutor) AccountEquity(ctx context.Context) (float64, error) {
	return s.Equity, nil
}

func (s *SimExecutor) FreeBalance(ctx context.Context) (float64, error) {
	return s.Free, nil
}

func (s *SimExecutor) OpenPositions(ctx context.Context) ([]types.PositionSnapshot, error) {
	out := make([]types.PositionSnapshot, len(s.Positions))
	copy(out, s.Positions)
	return out, nil
}

func (s *SimExecutor) Klines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	candles, ok := s.Candles[symbol]
	if !ok {
		return nil, fmt.Errorf("sim: no candles for %s", symbol)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (s *SimExecutor) takeFailure() error {
	if s.FailNext == nil {
		return nil
	}
	err := s.FailNext
	s.FailNext = nil
	return err
}
