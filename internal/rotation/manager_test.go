package rotation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdtran/position-guardian/internal/position"
	"github.com/vdtran/position-guardian/pkg/types"
)

func open(t *testing.T, symbol string) *position.Position {
	t.Helper()
	pos, err := position.New(symbol, types.SideLong, 100, 1.0, time.Now())
	require.NoError(t, err)
	return pos
}

func TestCanRotate(t *testing.T) {
	m := NewManager(nil)

	tests := []struct {
		name    string
		capital float64
		free    float64
		open    int
		want    bool
	}{
		{"no open positions", 1000, 500, 0, false},
		{"zero capital", 0, 0, 3, false},
		{"negative capital", -50, 0, 3, false},
		{"below reserve rotation needed", 1000, 50, 3, true},
		{"above reserve rotation optional", 1000, 500, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := m.CanRotate(tt.capital, tt.free, tt.open)
			assert.Equal(t, tt.want, ok)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestCanRotate_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = false
	m := NewManager(cfg)

	ok, reason := m.CanRotate(1000, 50, 3)
	assert.False(t, ok)
	assert.Equal(t, "rotation disabled", reason)
}

func TestScorePositionForRotation(t *testing.T) {
	m := NewManager(nil)
	pos := open(t, "BTCUSDT")

	tests := []struct {
		name    string
		metrics Metrics
		want    float64
	}{
		{"all unknown stays neutral", UnknownMetrics(), 50},
		{"heavy loss", Metrics{PnLPct: -0.06, AgeHours: 2, RSI: 50, ValueUSD: 100}, 80},
		{"moderate loss", Metrics{PnLPct: -0.03, AgeHours: 2, RSI: 50, ValueUSD: 100}, 70},
		{"light loss", Metrics{PnLPct: -0.01, AgeHours: 2, RSI: 50, ValueUSD: 100}, 60},
		{"heavy gain protected", Metrics{PnLPct: 0.06, AgeHours: 2, RSI: 50, ValueUSD: 100}, 20},
		{"moderate gain protected", Metrics{PnLPct: 0.03, AgeHours: 2, RSI: 50, ValueUSD: 100}, 30},
		{"stale", Metrics{PnLPct: 0.001, AgeHours: 9, RSI: 50, ValueUSD: 100}, 65},
		{"old", Metrics{PnLPct: 0.001, AgeHours: 5, RSI: 50, ValueUSD: 100}, 60},
		{"fresh", Metrics{PnLPct: 0.001, AgeHours: 0.2, RSI: 50, ValueUSD: 100}, 40},
		{"overbought", Metrics{PnLPct: 0.001, AgeHours: 2, RSI: 75, ValueUSD: 100}, 65},
		{"oversold", Metrics{PnLPct: 0.001, AgeHours: 2, RSI: 25, ValueUSD: 100}, 35},
		{"dust position", Metrics{PnLPct: 0.001, AgeHours: 2, RSI: 50, ValueUSD: 4}, 60},
		{"small position", Metrics{PnLPct: 0.001, AgeHours: 2, RSI: 50, ValueUSD: 8}, 55},
		{"stacked adjustments clamp at 100", Metrics{PnLPct: -0.10, AgeHours: 12, RSI: 90, ValueUSD: 1}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ScorePositionForRotation(pos, tt.metrics)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScorePositionForRotation_ClampedToRange(t *testing.T) {
	m := NewManager(nil)
	pos := open(t, "BTCUSDT")

	best := Metrics{PnLPct: 0.10, AgeHours: 0.1, RSI: 25, ValueUSD: 1000}
	score := m.ScorePositionForRotation(pos, best)
	assert.GreaterOrEqual(t, score, 0.0)

	worst := Metrics{PnLPct: -0.10, AgeHours: 12, RSI: 90, ValueUSD: 1}
	score = m.ScorePositionForRotation(pos, worst)
	assert.LessOrEqual(t, score, 100.0)
}

func TestSelectPositionsForRotation_GreedyUntilCovered(t *testing.T) {
	m := NewManager(nil)

	positions := []*position.Position{
		open(t, "BTCUSDT"),
		open(t, "ETHUSDT"),
		open(t, "SOLUSDT"),
	}
	metrics := map[string]Metrics{
		"BTCUSDT": {PnLPct: -0.06, AgeHours: 9, RSI: 75, ValueUSD: 40},  // score 50+30+15+15 = 100
		"ETHUSDT": {PnLPct: -0.03, AgeHours: 5, RSI: 50, ValueUSD: 60},  // score 50+20+10 = 80
		"SOLUSDT": {PnLPct: 0.06, AgeHours: 1, RSI: 50, ValueUSD: 200},  // score 20, protected
	}

	selected := m.SelectPositionsForRotation(positions, metrics, 90, 1000)
	require.Len(t, selected, 2)
	assert.Equal(t, "BTCUSDT", selected[0].Symbol)
	assert.Equal(t, "ETHUSDT", selected[1].Symbol)

	freed := selected[0].ValueUSD + selected[1].ValueUSD
	assert.InDelta(t, 100.0, freed, 1e-9)
}

func TestSelectPositionsForRotation_NeverBreachesScoreFloor(t *testing.T) {
	m := NewManager(nil)

	positions := []*position.Position{open(t, "BTCUSDT"), open(t, "ETHUSDT")}
	metrics := map[string]Metrics{
		"BTCUSDT": {PnLPct: 0.06, AgeHours: 1, RSI: 50, ValueUSD: 500}, // score 20
		"ETHUSDT": {PnLPct: 0.03, AgeHours: 1, RSI: 50, ValueUSD: 500}, // score 30
	}

	// Even an enormous capital request cannot touch positions under the floor.
	selected := m.SelectPositionsForRotation(positions, metrics, 1e9, 10000)
	assert.Empty(t, selected)
}

func TestSelectPositionsForRotation_InsufficientFreedIsReported(t *testing.T) {
	m := NewManager(nil)

	positions := []*position.Position{open(t, "BTCUSDT")}
	metrics := map[string]Metrics{
		"BTCUSDT": {PnLPct: -0.06, AgeHours: 9, RSI: 50, ValueUSD: 30},
	}

	selected := m.SelectPositionsForRotation(positions, metrics, 500, 1000)
	require.Len(t, selected, 1)

	freed := selected[0].ValueUSD
	assert.Less(t, freed, 500.0)
}

func TestSelectPositionsForRotation_MissingMetricsAreNeutral(t *testing.T) {
	m := NewManager(nil)

	positions := []*position.Position{open(t, "BTCUSDT")}
	selected := m.SelectPositionsForRotation(positions, map[string]Metrics{}, 100, 1000)

	// Neutral 50 is above the floor, so the position is a candidate, but its
	// unknown value frees nothing.
	require.Len(t, selected, 1)
	assert.Equal(t, 50.0, selected[0].Score)
	assert.Equal(t, 0.0, selected[0].ValueUSD)
}

func TestSelectPositionsForRotation_NonPositiveCapital(t *testing.T) {
	m := NewManager(nil)
	positions := []*position.Position{open(t, "BTCUSDT")}

	assert.Nil(t, m.SelectPositionsForRotation(positions, nil, 100, 0))
	assert.Nil(t, m.SelectPositionsForRotation(nil, nil, 100, 1000))
}

func TestShouldRotateForOpportunity(t *testing.T) {
	m := NewManager(nil)

	t.Run("44 percent improvement rotates", func(t *testing.T) {
		ok, _ := m.ShouldRotateForOpportunity(0.72, 0.50)
		assert.True(t, ok)
	})

	t.Run("improvement below threshold holds", func(t *testing.T) {
		ok, reason := m.ShouldRotateForOpportunity(0.55, 0.50)
		assert.False(t, ok)
		assert.Contains(t, reason, "below")
	})

	t.Run("exact threshold rotates", func(t *testing.T) {
		ok, _ := m.ShouldRotateForOpportunity(0.60, 0.50)
		assert.True(t, ok)
	})

	t.Run("non-positive qualities never rotate", func(t *testing.T) {
		ok, _ := m.ShouldRotateForOpportunity(0, 0.5)
		assert.False(t, ok)
		ok, _ = m.ShouldRotateForOpportunity(0.5, -1)
		assert.False(t, ok)
	})
}

func TestUnknownMetrics_AllNaN(t *testing.T) {
	u := UnknownMetrics()
	assert.True(t, math.IsNaN(u.PnLPct))
	assert.True(t, math.IsNaN(u.AgeHours))
	assert.True(t, math.IsNaN(u.RSI))
	assert.True(t, math.IsNaN(u.ValueUSD))
}
