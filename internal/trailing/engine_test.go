package trailing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdtran/position-guardian/internal/position"
	"github.com/vdtran/position-guardian/pkg/types"
)

func newLong(t *testing.T, entry float64) *position.Position {
	t.Helper()
	pos, err := position.New("BTCUSDT", types.SideLong, entry, 1.0, time.Now())
	require.NoError(t, err)
	return pos
}

func newShort(t *testing.T, entry float64) *position.Position {
	t.Helper()
	pos, err := position.New("BTCUSDT", types.SideShort, entry, 1.0, time.Now())
	require.NoError(t, err)
	return pos
}

func TestCalculateBreakevenStop(t *testing.T) {
	e := NewEngine(nil)

	assert.InDelta(t, 100.10, e.CalculateBreakevenStop(100, types.SideLong, 0.001), 1e-9)
	assert.InDelta(t, 99.90, e.CalculateBreakevenStop(100, types.SideShort, 0.001), 1e-9)
}

func TestCalculateATRTrailingStop(t *testing.T) {
	e := NewEngine(nil)

	assert.InDelta(t, 101.5, e.CalculateATRTrailingStop(103, 1.0, types.SideLong, 1.5), 1e-9)
	assert.InDelta(t, 104.5, e.CalculateATRTrailingStop(103, 1.0, types.SideShort, 1.5), 1e-9)
}

// Breakeven activation at 1.2R then an ATR trail from $103: the engine must
// first pin the stop just above entry, then ratchet it up to $101.50.
func TestUpdateTrailingStop_BreakevenThenTrail(t *testing.T) {
	e := NewEngine(nil)
	pos := newLong(t, 100)

	stop, action := e.UpdateTrailingStop(pos, 101.2, 100, 0, 1.0, types.SideLong, 1.2)
	assert.Equal(t, ActionBreakevenActivated, action)
	assert.InDelta(t, 100.10, stop, 1e-9)
	assert.True(t, pos.TP1Hit)
	assert.True(t, pos.BreakevenSet)
	assert.Equal(t, position.StageTrailing, pos.Stage())

	stop, action = e.UpdateTrailingStop(pos, 103, 100, stop, 1.0, types.SideLong, 1.8)
	assert.Equal(t, ActionTrailingUpdated, action)
	assert.InDelta(t, 101.50, stop, 1e-9)
}

func TestUpdateTrailingStop_StopNeverLoosens(t *testing.T) {
	e := NewEngine(nil)

	t.Run("long stops are non-decreasing", func(t *testing.T) {
		pos := newLong(t, 100)
		stop := 0.0
		var action StopAction
		prices := []float64{101.5, 104, 102, 106, 103, 108}
		rs := []float64{1.5, 2.1, 1.4, 2.8, 1.9, 3.5}

		last := 0.0
		for i, price := range prices {
			stop, action = e.UpdateTrailingStop(pos, price, 100, stop, 1.0, types.SideLong, rs[i])
			_ = action
			assert.GreaterOrEqual(t, stop, last, "stop loosened at step %d", i)
			last = stop
		}
	})

	t.Run("short stops are non-increasing", func(t *testing.T) {
		pos := newShort(t, 100)
		stop := 0.0
		prices := []float64{98.5, 96, 98, 94, 97, 92}
		rs := []float64{1.5, 2.1, 1.4, 2.8, 1.9, 3.5}

		last := 1e18
		for i, price := range prices {
			stop, _ = e.UpdateTrailingStop(pos, price, 100, stop, 1.0, types.SideShort, rs[i])
			assert.LessOrEqual(t, stop, last, "stop loosened at step %d", i)
			last = stop
		}
	})
}

func TestUpdateTrailingStop_BelowActivationDoesNothing(t *testing.T) {
	e := NewEngine(nil)
	pos := newLong(t, 100)

	stop, action := e.UpdateTrailingStop(pos, 100.5, 100, 0, 1.0, types.SideLong, 0.5)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, 0.0, stop)
	assert.Equal(t, position.StageInitial, pos.Stage())
	assert.InDelta(t, 0.5, pos.HighestR, 1e-9)
}

func TestUpdateTrailingStop_NilPositionIsNeutral(t *testing.T) {
	e := NewEngine(nil)

	stop, action := e.UpdateTrailingStop(nil, 103, 100, 99, 1.0, types.SideLong, 1.5)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, 99.0, stop)
}

func TestGetExitSignals_StopBreach(t *testing.T) {
	e := NewEngine(nil)

	t.Run("long breach", func(t *testing.T) {
		sig := e.GetExitSignals(newLong(t, 100), 0.2, 98.9, 99.0, types.SideLong)
		assert.True(t, sig.Exit)
		assert.Equal(t, 1.0, sig.Fraction)
		assert.Equal(t, "stop_loss_hit", sig.Reason)
	})

	t.Run("short breach", func(t *testing.T) {
		sig := e.GetExitSignals(newShort(t, 100), 0.2, 101.1, 101.0, types.SideShort)
		assert.True(t, sig.Exit)
		assert.Equal(t, 1.0, sig.Fraction)
	})

	t.Run("no stop set means no breach", func(t *testing.T) {
		sig := e.GetExitSignals(newLong(t, 100), 0.2, 50, 0, types.SideLong)
		assert.False(t, sig.Exit)
	})
}

func TestGetExitSignals_LadderRungsFireOnce(t *testing.T) {
	e := NewEngine(nil)
	pos := newLong(t, 100)

	sig := e.GetExitSignals(pos, 1.2, 101.2, 0, types.SideLong)
	require.True(t, sig.Exit)
	assert.Equal(t, "tp1", sig.Stage)
	assert.InDelta(t, 0.25, sig.Fraction, 1e-9)

	// Same level again: tp1 is consumed, nothing below tp2 fires.
	sig = e.GetExitSignals(pos, 1.2, 101.2, 0, types.SideLong)
	assert.False(t, sig.Exit)

	// Jumping past tp2 fires the next unconsumed rung only.
	sig = e.GetExitSignals(pos, 2.4, 102.4, 0, types.SideLong)
	require.True(t, sig.Exit)
	assert.Equal(t, "tp2", sig.Stage)

	sig = e.GetExitSignals(pos, 3.1, 103.1, 0, types.SideLong)
	require.True(t, sig.Exit)
	assert.Equal(t, "tp3", sig.Stage)
	assert.InDelta(t, 0.50, sig.Fraction, 1e-9)

	sig = e.GetExitSignals(pos, 5.0, 105, 0, types.SideLong)
	assert.False(t, sig.Exit)
}

func TestGetExitSignals_NilPositionIsNeutral(t *testing.T) {
	e := NewEngine(nil)

	sig := e.GetExitSignals(nil, 2.0, 102, 99, types.SideLong)
	assert.False(t, sig.Exit)
	assert.Equal(t, 0.0, sig.Fraction)
}

func TestCheckTrendBreak(t *testing.T) {
	e := NewEngine(nil)

	t.Run("insufficient data", func(t *testing.T) {
		prices := make([]float64, 20)
		assert.False(t, e.CheckTrendBreak(prices, types.SideLong))
	})

	t.Run("long break on bearish cross", func(t *testing.T) {
		// A steady rally keeps the fast MA above the slow MA; a crash on
		// the final candle drags it below, which is the crossing event.
		var prices []float64
		for i := 0; i < 39; i++ {
			prices = append(prices, 100+float64(i))
		}
		prices = append(prices, 20)
		assert.True(t, e.CheckTrendBreak(prices, types.SideLong))
	})

	t.Run("short break on bullish cross", func(t *testing.T) {
		var prices []float64
		for i := 0; i < 39; i++ {
			prices = append(prices, 200-float64(i))
		}
		prices = append(prices, 300)
		assert.True(t, e.CheckTrendBreak(prices, types.SideShort))
	})

	t.Run("steady uptrend is no cross for either side", func(t *testing.T) {
		// The fast MA sits above the slow MA throughout, so there is no
		// crossing event in the latest two values.
		var prices []float64
		for i := 0; i < 40; i++ {
			prices = append(prices, 100+float64(i))
		}
		assert.False(t, e.CheckTrendBreak(prices, types.SideLong))
		assert.False(t, e.CheckTrendBreak(prices, types.SideShort))
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero activation", func(c *Config) { c.ActivationR = 0 }, true},
		{"negative ATR multiplier", func(c *Config) { c.ATRMultiplier = -1 }, true},
		{"fast >= slow MA", func(c *Config) { c.FastMAPeriod = 21 }, true},
		{"non-ascending stages", func(c *Config) { c.Stages[1].ProfitRThreshold = 0.5 }, true},
		{"fraction above one", func(c *Config) { c.Stages[0].ExitFraction = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
