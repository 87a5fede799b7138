package guardian

import (
	"context"
	"time"

	"github.com/vdtran/position-guardian/internal/exchange"
	"github.com/vdtran/position-guardian/internal/indicators"
	"github.com/vdtran/position-guardian/pkg/types"
)

// RunnerOptions configures one account's evaluation loop.
type RunnerOptions struct {
	Symbols   []string
	Interval  string // kline interval in venue notation
	Lookback  int    // candles fetched per cycle, must cover the slow MA
	ATRPeriod int
	RSIPeriod int

	// RiskPctPerTrade converts signed profit into an R multiple: one R is
	// this fraction of entry price.
	RiskPctPerTrade float64

	Cycle time.Duration

	// OnCycle, when set, is invoked after every completed cycle.
	OnCycle func(CycleReport)
}

func (o *RunnerOptions) applyDefaults() {
	if o.Lookback <= 0 {
		o.Lookback = 50
	}
	if o.ATRPeriod <= 0 {
		o.ATRPeriod = 14
	}
	if o.RSIPeriod <= 0 {
		o.RSIPeriod = 14
	}
	if o.RiskPctPerTrade <= 0 {
		o.RiskPctPerTrade = 0.01
	}
	if o.Cycle <= 0 {
		o.Cycle = 30 * time.Second
	}
}

// Runner drives one account's coordinator on a fixed cycle: sync equity,
// adopt exchange-side positions, fetch market data, evaluate. One runner per
// account goroutine.
type Runner struct {
	coord    *Coordinator
	executor exchange.Executor
	log      EventLogger
	opts     RunnerOptions

	atr     *indicators.ATR
	rsi     *indicators.RSI
	watched map[string]bool
}

// NewRunner creates a runner for one account.
func NewRunner(coord *Coordinator, executor exchange.Executor, log EventLogger, opts RunnerOptions) *Runner {
	opts.applyDefaults()
	if log == nil {
		log = nopLogger{}
	}

	watched := make(map[string]bool, len(opts.Symbols))
	for _, s := range opts.Symbols {
		watched[s] = true
	}

	return &Runner{
		coord:    coord,
		executor: executor,
		log:      log,
		opts:     opts,
		atr:      indicators.NewATR(opts.ATRPeriod),
		rsi:      indicators.NewRSI(opts.RSIPeriod),
		watched:  watched,
	}
}

// Run loops until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.Cycle)
	defer ticker.Stop()

	r.log.Info("runner started: %d symbols, cycle %s", len(r.opts.Symbols), r.opts.Cycle)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce executes a single evaluation cycle.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) CycleReport {
	if err := r.coord.SyncEquity(ctx); err != nil {
		r.log.Error("equity sync failed: %v", err)
	}

	r.reconcilePositions(ctx, now)

	inputs := make(map[string]CycleInput)
	for _, symbol := range r.coord.Registry().Symbols() {
		input, err := r.buildInput(ctx, symbol)
		if err != nil {
			r.log.Warning("%s: market data unavailable: %v", symbol, err)
			continue // RunCycle counts the missing input
		}
		inputs[symbol] = input
	}

	report := r.coord.RunCycle(ctx, inputs, now)
	state := r.coord.Scaler().State()
	r.log.Info("cycle done: exits=%d stops=%d errors=%d equity=$%.2f drawdown=%.2f%%",
		report.Exits, report.StopUpdates, report.Errors, state.CurrentCapital, state.DrawdownPct*100)
	if r.opts.OnCycle != nil {
		r.opts.OnCycle(report)
	}
	return report
}

// reconcilePositions adopts watched positions opened outside the guardian
// and drops registry entries the exchange no longer reports.
func (r *Runner) reconcilePositions(ctx context.Context, now time.Time) {
	snapshots, err := r.executor.OpenPositions(ctx)
	if err != nil {
		r.log.Error("position reconcile failed: %v", err)
		return
	}

	present := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		if !r.watched[snap.Symbol] {
			continue
		}
		present[snap.Symbol] = true
		if _, tracked := r.coord.Registry().Get(snap.Symbol); tracked {
			continue
		}
		if _, err := r.coord.RegisterPosition(snap.Symbol, snap.Side, snap.EntryPrice, snap.Size, now); err != nil {
			r.log.Error("%s: adoption failed: %v", snap.Symbol, err)
		} else {
			r.log.Info("%s: adopted exchange position size=%.6f entry=%.4f", snap.Symbol, snap.Size, snap.EntryPrice)
		}
	}

	for _, symbol := range r.coord.Registry().Symbols() {
		if !present[symbol] {
			r.coord.Registry().Unregister(symbol)
			r.log.Info("%s: closed externally, dropped", symbol)
		}
	}
}

// buildInput fetches candles for one symbol and derives the cycle inputs.
func (r *Runner) buildInput(ctx context.Context, symbol string) (CycleInput, error) {
	candles, err := r.executor.Klines(ctx, symbol, r.opts.Interval, r.opts.Lookback)
	if err != nil {
		return CycleInput{}, err
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	atrVal, err := r.atr.Calculate(candles)
	if err != nil {
		return CycleInput{}, err
	}
	rsiVal, err := r.rsi.Calculate(closes)
	if err != nil {
		return CycleInput{}, err
	}

	price := candles[len(candles)-1].Close
	rMultiple := 0.0
	if pos, ok := r.coord.Registry().Get(symbol); ok {
		rMultiple = pos.ProfitPct(price) / r.opts.RiskPctPerTrade
	}

	return CycleInput{
		Snapshot: types.IndicatorSnapshot{
			Price:     price,
			ATR:       atrVal,
			RSI:       rsiVal,
			RMultiple: rMultiple,
			Timestamp: candles[len(candles)-1].Timestamp,
		},
		Closes: closes,
	}, nil
}
