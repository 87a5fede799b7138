package guardian

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vdtran/position-guardian/internal/capital"
	"github.com/vdtran/position-guardian/internal/exchange"
	"github.com/vdtran/position-guardian/internal/monitoring"
	"github.com/vdtran/position-guardian/internal/notifications"
	"github.com/vdtran/position-guardian/internal/position"
	"github.com/vdtran/position-guardian/internal/protect"
	"github.com/vdtran/position-guardian/internal/rotation"
	"github.com/vdtran/position-guardian/internal/trailing"
	"github.com/vdtran/position-guardian/pkg/types"
)

// EventLogger is the logging surface the coordinator needs. The file logger
// satisfies it; tests pass a no-op.
type EventLogger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	Trade(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Trade(string, ...interface{})   {}

// Config bundles the per-engine configurations for one account. Nil fields
// select each engine's defaults.
type Config struct {
	Trailing    *trailing.Config `json:"trailing"`
	Protect     *protect.Config  `json:"protect"`
	Rotation    *rotation.Config `json:"rotation"`
	Capital     *capital.Config  `json:"capital"`
	BaseCapital float64          `json:"base_capital"`
}

// CycleInput is the per-symbol market data for one evaluation cycle. Closes
// feeds trend-break detection and may be empty when unavailable.
type CycleInput struct {
	Snapshot types.IndicatorSnapshot
	Closes   []float64
}

// Decision is the outcome of evaluating one position: at most one exit and
// one stop amendment.
type Decision struct {
	Exit *types.ExitInstruction
	Stop *types.StopInstruction
}

// CycleReport summarizes one evaluation cycle.
type CycleReport struct {
	Exits       int
	StopUpdates int
	Errors      int
}

// Coordinator runs the per-account position lifecycle: protection rules
// first, then the trailing-stop engine, with the first actionable exit
// winning. Instructions go to the executor one at a time. The coordinator is
// owned by a single account goroutine and does no locking.
type Coordinator struct {
	account   string
	registry  *position.Registry
	trailing  *trailing.Engine
	protector *protect.Protector
	rotation  *rotation.Manager
	scaler    *capital.Scaler
	executor  exchange.Executor
	log       EventLogger
	notifier  notifications.Notifier

	// stops mirrors the venue-side stop per symbol so tightening can be
	// enforced without a round trip.
	stops map[string]float64
}

// NewCoordinator wires the engines for one account. A nil logger logs
// nowhere; cfg.BaseCapital must be positive.
func NewCoordinator(account string, cfg *Config, executor exchange.Executor, log EventLogger) (*Coordinator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if executor == nil {
		return nil, fmt.Errorf("guardian: executor is required")
	}
	if log == nil {
		log = nopLogger{}
	}

	scaler, err := capital.NewScaler(cfg.Capital, cfg.BaseCapital)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		account:   account,
		registry:  position.NewRegistry(),
		trailing:  trailing.NewEngine(cfg.Trailing),
		protector: protect.NewProtector(cfg.Protect),
		rotation:  rotation.NewManager(cfg.Rotation),
		scaler:    scaler,
		executor:  executor,
		log:       log,
		notifier:  notifications.Nop{},
		stops:     make(map[string]float64),
	}, nil
}

// SetNotifier routes alerts for full closes and rotation batches. A nil
// notifier restores the default no-op.
func (c *Coordinator) SetNotifier(n notifications.Notifier) {
	if n == nil {
		n = notifications.Nop{}
	}
	c.notifier = n
}

// Registry exposes the account's position registry.
func (c *Coordinator) Registry() *position.Registry {
	return c.registry
}

// Scaler exposes the account's capital scaler.
func (c *Coordinator) Scaler() *capital.Scaler {
	return c.scaler
}

// RegisterPosition starts lifecycle management for a filled entry.
func (c *Coordinator) RegisterPosition(symbol string, side types.Side, entryPrice, size float64, now time.Time) (*position.Position, error) {
	pos, err := c.registry.Register(symbol, side, entryPrice, size, now)
	if err != nil {
		return nil, err
	}
	c.log.Info("managing %s %s entry=%.4f size=%.6f", symbol, side, entryPrice, size)
	monitoring.UpdateOpenPositions(c.account, c.registry.Len())
	return pos, nil
}

// EvaluatePosition runs the decision rules for one position without touching
// the executor. Protection rules run before the trailing engine and the
// first actionable exit wins; stop maintenance still happens alongside a
// partial exit but is skipped for a full close.
func (c *Coordinator) EvaluatePosition(pos *position.Position, input CycleInput, now time.Time) (Decision, error) {
	var d Decision
	if pos == nil {
		return d, nil
	}

	price := input.Snapshot.Price
	if price <= 0 || math.IsNaN(price) {
		return d, fmt.Errorf("guardian: corrupt price %v for %s", price, pos.Symbol)
	}

	currentStop := c.stops[pos.Symbol]

	if pe := c.protector.CheckPartialExit(pos, price, pos.Side); pe != nil {
		d.Exit = &types.ExitInstruction{Symbol: pos.Symbol, Side: pos.Side, Fraction: pe.Fraction, Reason: pe.Reason}
	} else if se := c.protector.CheckStagnationExit(pos, price, now, pos.Side); se != nil {
		d.Exit = &types.ExitInstruction{Symbol: pos.Symbol, Side: pos.Side, Fraction: 1.0, Reason: se.Reason}
	} else if sig := c.trailing.GetExitSignals(pos, input.Snapshot.RMultiple, price, currentStop, pos.Side); sig.Exit {
		d.Exit = &types.ExitInstruction{Symbol: pos.Symbol, Side: pos.Side, Fraction: sig.Fraction, Reason: sig.Reason}
	} else if pos.Stage() == position.StageTrailing && c.trailing.CheckTrendBreak(input.Closes, pos.Side) {
		d.Exit = &types.ExitInstruction{Symbol: pos.Symbol, Side: pos.Side, Fraction: 1.0, Reason: "trend_break"}
	}

	if d.Exit != nil && d.Exit.Fraction >= 1.0 {
		return d, nil // position is going away, no point amending its stop
	}

	if bm := c.protector.CheckBreakevenMove(pos, price, currentStop, pos.Side); bm != nil {
		currentStop = bm.NewStop
		d.Stop = &types.StopInstruction{Symbol: pos.Symbol, Side: pos.Side, NewStop: bm.NewStop, Reason: bm.Reason}
	}
	if newStop, action := c.trailing.UpdateTrailingStop(pos, price, pos.EntryPrice, currentStop, input.Snapshot.ATR, pos.Side, input.Snapshot.RMultiple); action != trailing.ActionNone && newStop != currentStop {
		d.Stop = &types.StopInstruction{Symbol: pos.Symbol, Side: pos.Side, NewStop: newStop, Reason: action.String()}
	}

	return d, nil
}

// RunCycle evaluates every managed position against the supplied inputs and
// applies the resulting instructions serially. A position with corrupt or
// missing inputs is logged and skipped; the rest of the cycle proceeds.
func (c *Coordinator) RunCycle(ctx context.Context, inputs map[string]CycleInput, now time.Time) CycleReport {
	var report CycleReport

	for _, symbol := range c.registry.Symbols() {
		pos, ok := c.registry.Get(symbol)
		if !ok {
			continue
		}
		input, ok := inputs[symbol]
		if !ok {
			c.log.Warning("%s: no cycle input, skipping", symbol)
			monitoring.RecordEvaluationError(c.account, "missing_input")
			report.Errors++
			continue
		}

		decision, err := c.EvaluatePosition(pos, input, now)
		if err != nil {
			c.log.Error("%s: evaluation skipped: %v", symbol, err)
			monitoring.RecordEvaluationError(c.account, "corrupt_input")
			report.Errors++
			continue
		}

		c.Apply(ctx, pos, decision, &report)
	}

	monitoring.UpdateOpenPositions(c.account, c.registry.Len())
	return report
}

// Apply issues the decision's instructions to the executor and folds the
// outcome into the report. A full close unregisters the position.
func (c *Coordinator) Apply(ctx context.Context, pos *position.Position, d Decision, report *CycleReport) {
	closed := false

	if d.Exit != nil {
		qty := pos.CurrentSize * d.Exit.Fraction
		if err := c.executor.ReducePosition(ctx, d.Exit.Symbol, d.Exit.Side, qty); err != nil {
			c.log.Error("%s: reduce failed (%s): %v", d.Exit.Symbol, d.Exit.Reason, err)
			monitoring.RecordEvaluationError(c.account, "execution")
			report.Errors++
		} else {
			c.log.Trade("%s: exit %.0f%% reason=%s", d.Exit.Symbol, d.Exit.Fraction*100, d.Exit.Reason)
			monitoring.RecordExit(c.account, d.Exit.Reason)
			report.Exits++
			if closed = pos.Reduce(d.Exit.Fraction); closed {
				c.registry.Unregister(pos.Symbol)
				delete(c.stops, pos.Symbol)
				c.log.Info("%s: fully closed", pos.Symbol)
				if err := c.notifier.SendAlert("info", fmt.Sprintf("%s fully closed (%s)", pos.Symbol, d.Exit.Reason)); err != nil {
					c.log.Warning("notification failed: %v", err)
				}
			}
		}
	}

	if d.Stop != nil && !closed {
		if err := c.executor.UpdateStop(ctx, d.Stop.Symbol, d.Stop.Side, d.Stop.NewStop); err != nil {
			// The mirror is left untouched so the same stop is proposed
			// again next cycle instead of silently going stale.
			c.log.Error("%s: stop update failed: %v", d.Stop.Symbol, err)
			monitoring.RecordEvaluationError(c.account, "execution")
			report.Errors++
		} else {
			c.stops[d.Stop.Symbol] = d.Stop.NewStop
			c.log.Trade("%s: stop -> %.4f reason=%s", d.Stop.Symbol, d.Stop.NewStop, d.Stop.Reason)
			monitoring.RecordStopUpdate(c.account, d.Stop.Reason)
			report.StopUpdates++
		}
	}
}

// SyncEquity pulls account equity from the executor into the capital scaler.
func (c *Coordinator) SyncEquity(ctx context.Context) error {
	equity, err := c.executor.AccountEquity(ctx)
	if err != nil {
		return fmt.Errorf("guardian: equity sync failed: %w", err)
	}
	c.scaler.UpdateCapital(equity)
	monitoring.UpdateDrawdown(c.account, c.scaler.State().DrawdownPct)
	return nil
}

// ApproveExposure sizes a prospective entry through the capital scaler.
func (c *Coordinator) ApproveExposure(baseSizeUSD float64, isTrending bool, volatilityPct float64) types.ExposureApproval {
	exposure, condition, multiplier := c.scaler.CalculateOptimalExposure(baseSizeUSD, isTrending, volatilityPct)
	monitoring.UpdateExposureMultiplier(c.account, multiplier)
	c.log.Info("exposure approved: $%.2f condition=%s multiplier=%.3f", exposure, condition, multiplier)
	return types.ExposureApproval{
		ApprovedUSD: exposure,
		Condition:   condition.String(),
		Multiplier:  multiplier,
	}
}

// RotationPlan is the set of closures proposed to free capital.
type RotationPlan struct {
	Candidates []rotation.Candidate
	FreedUSD   float64
	Reason     string
}

// PlanRotation asks the rotation manager which positions to close to free
// the needed capital. Balances come from the executor; capital from the
// scaler's last synced state.
func (c *Coordinator) PlanRotation(ctx context.Context, neededCapital float64, metricsBySymbol map[string]rotation.Metrics) (*RotationPlan, error) {
	free, err := c.executor.FreeBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("guardian: rotation planning failed: %w", err)
	}

	total := c.scaler.State().CurrentCapital
	ok, reason := c.rotation.CanRotate(total, free, c.registry.Len())
	if !ok {
		return &RotationPlan{Reason: reason}, nil
	}

	positions := make([]*position.Position, 0, c.registry.Len())
	for _, symbol := range c.registry.Symbols() {
		if pos, found := c.registry.Get(symbol); found {
			positions = append(positions, pos)
		}
	}

	candidates := c.rotation.SelectPositionsForRotation(positions, metricsBySymbol, neededCapital, total)
	freed := 0.0
	for _, cand := range candidates {
		freed += cand.ValueUSD
	}

	if len(candidates) > 0 {
		monitoring.RecordRotation(c.account, len(candidates))
		c.log.Info("rotation plan: %d positions, frees $%.2f of $%.2f needed", len(candidates), freed, neededCapital)
		if err := c.notifier.SendAlert("warning", fmt.Sprintf("rotation: closing %d positions to free $%.2f", len(candidates), freed)); err != nil {
			c.log.Warning("notification failed: %v", err)
		}
	}

	return &RotationPlan{Candidates: candidates, FreedUSD: freed, Reason: reason}, nil
}

// ShouldRotateForOpportunity delegates the opportunity-quality comparison.
func (c *Coordinator) ShouldRotateForOpportunity(opportunityQuality, currentQuality float64) (bool, string) {
	return c.rotation.ShouldRotateForOpportunity(opportunityQuality, currentQuality)
}
