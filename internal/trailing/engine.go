package trailing

import (
	"github.com/vdtran/position-guardian/internal/position"
	"github.com/vdtran/position-guardian/pkg/types"
)

// StopAction describes what UpdateTrailingStop did to a position's stop.
type StopAction int

const (
	ActionNone StopAction = iota
	ActionBreakevenActivated
	ActionTrailingUpdated
)

// String returns the string representation of the stop action.
func (a StopAction) String() string {
	switch a {
	case ActionBreakevenActivated:
		return "breakeven_activated"
	case ActionTrailingUpdated:
		return "trailing_stop_updated"
	default:
		return "none"
	}
}

// ExitSignal is the outcome of an exit-signal query. Fraction is a share of
// the remaining position size; Reason carries the machine-readable cause and
// Stage the ladder rung that fired, if any.
type ExitSignal struct {
	Exit     bool
	Fraction float64
	Reason   string
	Stage    string
}

var noSignal = ExitSignal{}

// Engine drives the per-position stop state machine:
// initial -> breakeven activated -> ATR trailing. Stops only ever tighten.
type Engine struct {
	config *Config
}

// NewEngine creates a trailing-stop engine. A nil config selects defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Engine{config: config}
}

// CalculateBreakevenStop returns the entry price nudged into profit territory
// by the fee buffer: above entry for longs, below for shorts.
func (e *Engine) CalculateBreakevenStop(entry float64, side types.Side, bufferPct float64) float64 {
	if side == types.SideLong {
		return entry * (1 + bufferPct)
	}
	return entry * (1 - bufferPct)
}

// CalculateATRTrailingStop returns a stop trailing the current price by a
// multiple of ATR.
func (e *Engine) CalculateATRTrailingStop(currentPrice, atr float64, side types.Side, multiplier float64) float64 {
	if side == types.SideLong {
		return currentPrice - atr*multiplier
	}
	return currentPrice + atr*multiplier
}

// UpdateTrailingStop advances the stop state machine for one cycle and
// returns the (possibly unchanged) stop price. The returned stop is never
// looser than currentStop: tightening is enforced with max/min so a worse
// proposal cannot escape this function.
func (e *Engine) UpdateTrailingStop(pos *position.Position, currentPrice, entryPrice, currentStop, atr float64, side types.Side, rMultiple float64) (float64, StopAction) {
	if pos == nil {
		return currentStop, ActionNone
	}

	pos.RecordR(rMultiple)
	pos.RecordPrice(currentPrice)

	if rMultiple >= e.config.ActivationR && pos.Stage() == position.StageInitial {
		stop := e.CalculateBreakevenStop(entryPrice, side, e.config.BreakevenBufferPct)
		_ = pos.AdvanceStage(position.StageTrailing)
		pos.TP1Hit = true
		if tighter(stop, currentStop, side) {
			return stop, ActionBreakevenActivated
		}
		return currentStop, ActionBreakevenActivated
	}

	if pos.Stage() == position.StageTrailing {
		atrStop := e.CalculateATRTrailingStop(currentPrice, atr, side, e.config.ATRMultiplier)
		if tighter(atrStop, currentStop, side) {
			return atrStop, ActionTrailingUpdated
		}
	}

	return currentStop, ActionNone
}

// GetExitSignals checks the stop and the take-profit ladder for one position.
// Stop breach wins and closes everything; otherwise the first unconsumed
// ladder rung whose threshold is met fires a partial exit and is marked
// consumed. A nil position yields a neutral no-signal result since a symbol
// can be queried before registration within the same cycle.
func (e *Engine) GetExitSignals(pos *position.Position, rMultiple, currentPrice, stopPrice float64, side types.Side) ExitSignal {
	if pos == nil {
		return noSignal
	}

	if stopBreached(currentPrice, stopPrice, side) {
		return ExitSignal{Exit: true, Fraction: 1.0, Reason: "stop_loss_hit"}
	}

	for _, stage := range e.config.Stages {
		if rMultiple < stage.ProfitRThreshold {
			break
		}
		if pos.ExitTaken(stage.Name) {
			continue
		}
		pos.MarkExitTaken(stage.Name)
		return ExitSignal{Exit: true, Fraction: stage.ExitFraction, Reason: "take_profit", Stage: stage.Name}
	}

	return noSignal
}

// CheckTrendBreak reports whether the fast moving average has crossed the
// slow one against the position's side, comparing the latest two values.
// With fewer than SlowMAPeriod+1 points there is no cross to detect.
func (e *Engine) CheckTrendBreak(prices []float64, side types.Side) bool {
	slow := e.config.SlowMAPeriod
	fast := e.config.FastMAPeriod
	if len(prices) < slow+1 {
		return false
	}

	fastNow := sma(prices, fast, 0)
	fastPrev := sma(prices, fast, 1)
	slowNow := sma(prices, slow, 0)
	slowPrev := sma(prices, slow, 1)

	if side == types.SideLong {
		return fastPrev >= slowPrev && fastNow < slowNow
	}
	return fastPrev <= slowPrev && fastNow > slowNow
}

// sma averages the last `period` prices, offset candles back from the end.
func sma(prices []float64, period, offset int) float64 {
	end := len(prices) - offset
	sum := 0.0
	for _, p := range prices[end-period : end] {
		sum += p
	}
	return sum / float64(period)
}

// tighter reports whether proposed improves on current for the given side.
// A zero current stop means no stop is set yet, so any proposal improves it.
func tighter(proposed, current float64, side types.Side) bool {
	if current == 0 {
		return true
	}
	if side == types.SideLong {
		return proposed > current
	}
	return proposed < current
}

func stopBreached(price, stop float64, side types.Side) bool {
	if stop == 0 {
		return false
	}
	if side == types.SideLong {
		return price <= stop
	}
	return price >= stop
}
