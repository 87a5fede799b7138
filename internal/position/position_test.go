package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdtran/position-guardian/pkg/types"
)

func TestNew_RejectsInvalidInputs(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		symbol string
		price  float64
		size   float64
	}{
		{"empty symbol", "", 100, 1},
		{"zero price", "BTCUSDT", 0, 1},
		{"negative price", "BTCUSDT", -5, 1},
		{"zero size", "BTCUSDT", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.symbol, types.SideLong, tt.price, tt.size, now)
			assert.Error(t, err)
		})
	}
}

func TestRecordR_PeaksAreMonotone(t *testing.T) {
	pos, err := New("BTCUSDT", types.SideLong, 100, 1, time.Now())
	require.NoError(t, err)

	inputs := []float64{0.5, 1.8, 1.2, 3.4, 2.0, -1.0}
	peak := 0.0
	for _, r := range inputs {
		pos.RecordR(r)
		if r > peak {
			peak = r
		}
		assert.Equal(t, peak, pos.HighestR)
	}

	assert.True(t, pos.TP2Hit)
	assert.True(t, pos.TP3Hit)
}

func TestRecordProfitPct_NeverDecreases(t *testing.T) {
	pos, err := New("ETHUSDT", types.SideShort, 2000, 1, time.Now())
	require.NoError(t, err)

	pos.RecordProfitPct(0.012)
	pos.RecordProfitPct(0.004)
	pos.RecordProfitPct(-0.02)

	assert.Equal(t, 0.012, pos.PeakProfitPct)
}

func TestAdvanceStage_OneWayOnly(t *testing.T) {
	pos, err := New("BTCUSDT", types.SideLong, 100, 1, time.Now())
	require.NoError(t, err)

	require.NoError(t, pos.AdvanceStage(StageBreakeven))
	assert.True(t, pos.BreakevenSet)
	require.NoError(t, pos.AdvanceStage(StageTrailing))

	// No backward or repeated transitions.
	assert.Error(t, pos.AdvanceStage(StageBreakeven))
	assert.Error(t, pos.AdvanceStage(StageInitial))
	assert.Error(t, pos.AdvanceStage(StageTrailing))
	assert.Equal(t, StageTrailing, pos.Stage())
}

func TestAdvanceStage_InitialStraightToTrailing(t *testing.T) {
	// Breakeven activation promotes straight into trailing in one cycle.
	pos, err := New("BTCUSDT", types.SideLong, 100, 1, time.Now())
	require.NoError(t, err)

	require.NoError(t, pos.AdvanceStage(StageTrailing))
	assert.Equal(t, StageTrailing, pos.Stage())
	assert.True(t, pos.BreakevenSet)
}

func TestReduce_PartialThenFull(t *testing.T) {
	pos, err := New("BTCUSDT", types.SideLong, 100, 2.0, time.Now())
	require.NoError(t, err)

	closed := pos.Reduce(0.4)
	assert.False(t, closed)
	assert.InDelta(t, 1.2, pos.CurrentSize, 1e-9)
	assert.LessOrEqual(t, pos.CurrentSize, pos.InitialSize)

	closed = pos.Reduce(1.0)
	assert.True(t, closed)
	assert.Equal(t, 0.0, pos.CurrentSize)
}

func TestExitTaken_ConsumedOnce(t *testing.T) {
	pos, err := New("BTCUSDT", types.SideLong, 100, 1, time.Now())
	require.NoError(t, err)

	assert.False(t, pos.ExitTaken("tp1"))
	pos.MarkExitTaken("tp1")
	assert.True(t, pos.ExitTaken("tp1"))
}

func TestProfitPct_SignedBySide(t *testing.T) {
	long, _ := New("BTCUSDT", types.SideLong, 100, 1, time.Now())
	short, _ := New("BTCUSDT", types.SideShort, 100, 1, time.Now())

	assert.InDelta(t, 0.05, long.ProfitPct(105), 1e-9)
	assert.InDelta(t, -0.05, long.ProfitPct(95), 1e-9)
	assert.InDelta(t, 0.05, short.ProfitPct(95), 1e-9)
	assert.InDelta(t, -0.05, short.ProfitPct(105), 1e-9)
}

func TestRegistry_StableOrderAndRemoval(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()

	for _, sym := range []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"} {
		_, err := reg.Register(sym, types.SideLong, 100, 1, now)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, reg.Symbols())

	_, err := reg.Register("BTCUSDT", types.SideLong, 100, 1, now)
	assert.Error(t, err)

	reg.Unregister("ETHUSDT")
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, reg.Symbols())
	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Get("ETHUSDT")
	assert.False(t, ok)
}
