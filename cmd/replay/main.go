package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/vdtran/position-guardian/internal/exchange"
	"github.com/vdtran/position-guardian/internal/guardian"
	"github.com/vdtran/position-guardian/internal/indicators"
	"github.com/vdtran/position-guardian/pkg/data"
	"github.com/vdtran/position-guardian/pkg/reporting"
	"github.com/vdtran/position-guardian/pkg/types"
)

func main() {
	var (
		dataFile  = flag.String("data", "", "Historical data CSV file (timestamp,open,high,low,close,volume)")
		symbol    = flag.String("symbol", "BTCUSDT", "Symbol label for the replayed position")
		sideStr   = flag.String("side", "long", "Position side: long or short")
		entry     = flag.Float64("entry", 0, "Entry price (default: close of the first evaluated candle)")
		size      = flag.Float64("size", 1.0, "Position size in base units")
		balance   = flag.Float64("balance", 10000, "Starting account balance in USD")
		riskPct   = flag.Float64("risk", 0.01, "Risk per trade as a fraction of entry, defines one R")
		lookback  = flag.Int("lookback", 50, "Candles fed to the evaluator per step")
		atrPeriod = flag.Int("atr-period", 14, "ATR period")
		rsiPeriod = flag.Int("rsi-period", 14, "RSI period")
		output    = flag.String("output", "", "Optional Excel report path (.xlsx)")
	)
	flag.Parse()

	if *dataFile == "" {
		log.Fatal("Please specify a data file with -data flag")
	}
	side, err := parseSide(*sideStr)
	if err != nil {
		log.Fatal(err)
	}

	candles, err := data.NewCSVProvider().LoadData(*dataFile)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}

	// Trend-break detection needs the slow MA window, ATR needs period+1.
	warmup := *atrPeriod + 1
	if *rsiPeriod+1 > warmup {
		warmup = *rsiPeriod + 1
	}
	if warmup < 22 {
		warmup = 22
	}
	if len(candles) <= warmup {
		log.Fatalf("Need more than %d candles, got %d", warmup, len(candles))
	}

	if err := runReplay(candles, replayParams{
		symbol:    *symbol,
		side:      side,
		entry:     *entry,
		size:      *size,
		balance:   *balance,
		riskPct:   *riskPct,
		lookback:  *lookback,
		atrPeriod: *atrPeriod,
		rsiPeriod: *rsiPeriod,
		warmup:    warmup,
		output:    *output,
	}); err != nil {
		log.Fatal(err)
	}
}

type replayParams struct {
	symbol    string
	side      types.Side
	entry     float64
	size      float64
	balance   float64
	riskPct   float64
	lookback  int
	atrPeriod int
	rsiPeriod int
	warmup    int
	output    string
}

func runReplay(candles []types.OHLCV, p replayParams) error {
	ctx := context.Background()

	sim := exchange.NewSimExecutor(p.balance)
	coord, err := guardian.NewCoordinator("replay", &guardian.Config{BaseCapital: p.balance}, sim, nil)
	if err != nil {
		return err
	}

	entryCandle := candles[p.warmup-1]
	entryPrice := p.entry
	if entryPrice <= 0 {
		entryPrice = entryCandle.Close
	}
	pos, err := coord.RegisterPosition(p.symbol, p.side, entryPrice, p.size, entryCandle.Timestamp)
	if err != nil {
		return err
	}

	session := reporting.NewSessionReport("replay", p.balance, entryCandle.Timestamp)
	atr := indicators.NewATR(p.atrPeriod)
	rsi := indicators.NewRSI(p.rsiPeriod)
	sign := p.side.Sign()

	fmt.Printf("Replaying %s %s: entry=%.4f size=%.6f over %d candles\n",
		p.symbol, p.side, entryPrice, p.size, len(candles)-p.warmup)

	realized := 0.0
	for i := p.warmup; i < len(candles); i++ {
		window := candles[:i+1]
		if len(window) > p.lookback {
			window = window[len(window)-p.lookback:]
		}

		closes := make([]float64, len(window))
		for j, c := range window {
			closes[j] = c.Close
		}
		atrVal, err := atr.Calculate(window)
		if err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		rsiVal, err := rsi.Calculate(closes)
		if err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}

		price := candles[i].Close
		now := candles[i].Timestamp
		input := guardian.CycleInput{
			Snapshot: types.IndicatorSnapshot{
				Price:     price,
				ATR:       atrVal,
				RSI:       rsiVal,
				RMultiple: pos.ProfitPct(price) / p.riskPct,
				Timestamp: now,
			},
			Closes: closes,
		}

		decision, err := coord.EvaluatePosition(pos, input, now)
		if err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}

		sizeBefore := pos.CurrentSize
		var report guardian.CycleReport
		coord.Apply(ctx, pos, decision, &report)

		if decision.Exit != nil && report.Exits > 0 {
			qty := sizeBefore * decision.Exit.Fraction
			realized += qty * (price - entryPrice) * sign
			session.AddExit(reporting.ExitRecord{
				Time:     now,
				Symbol:   p.symbol,
				Side:     p.side.String(),
				Fraction: decision.Exit.Fraction,
				Qty:      qty,
				Price:    price,
				Reason:   decision.Exit.Reason,
			})
		}
		if decision.Stop != nil && report.StopUpdates > 0 {
			session.AddStop(reporting.StopRecord{
				Time:   now,
				Symbol: p.symbol,
				Stop:   decision.Stop.NewStop,
				Reason: decision.Stop.Reason,
			})
		}

		unrealized := pos.CurrentSize * (price - entryPrice) * sign
		sim.Equity = p.balance + realized + unrealized
		if err := coord.SyncEquity(ctx); err != nil {
			return err
		}
		session.AddCapitalPoint(reporting.CapitalPoint{
			Time:        now,
			Equity:      sim.Equity,
			DrawdownPct: coord.Scaler().State().DrawdownPct,
		})

		if coord.Registry().Len() == 0 {
			break
		}
	}

	if coord.Registry().Len() > 0 {
		fmt.Printf("Position still open at end of data: size=%.6f stage=%s\n",
			pos.CurrentSize, pos.Stage())
	}

	reporting.NewConsoleReporter().Render(session)

	if p.output != "" {
		if err := reporting.NewExcelReporter().WriteXLSX(session, p.output); err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
		fmt.Printf("Excel report written to %s\n", p.output)
	}
	return nil
}

func parseSide(s string) (types.Side, error) {
	switch strings.ToLower(s) {
	case "long", "buy":
		return types.SideLong, nil
	case "short", "sell":
		return types.SideShort, nil
	default:
		return types.SideLong, fmt.Errorf("invalid side %q, use long or short", s)
	}
}
