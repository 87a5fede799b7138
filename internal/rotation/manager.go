package rotation

import (
	"fmt"
	"math"
	"sort"

	"github.com/vdtran/position-guardian/internal/position"
)

// Metrics are the externally supplied per-position readings used for scoring.
// Any field may be set to math.NaN() to mean "reading unavailable"; unknown
// readings contribute no adjustment instead of failing the evaluation.
type Metrics struct {
	PnLPct   float64 // Signed profit fraction, e.g. -0.03 = 3% down
	AgeHours float64
	RSI      float64
	ValueUSD float64
}

// UnknownMetrics returns a Metrics value with every reading marked missing.
func UnknownMetrics() Metrics {
	nan := math.NaN()
	return Metrics{PnLPct: nan, AgeHours: nan, RSI: nan, ValueUSD: nan}
}

// Candidate is one scored closure candidate. Higher score means a stronger
// case for closing the position. Ephemeral: recomputed on every evaluation.
type Candidate struct {
	Symbol   string
	Score    float64
	ValueUSD float64
}

// Manager decides when capital should be freed from open positions to fund a
// better opportunity, without breaching the account's free-balance reserve.
type Manager struct {
	config *Config
}

// NewManager creates a rotation manager. A nil config selects defaults.
func NewManager(config *Config) *Manager {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Manager{config: config}
}

// CanRotate reports whether rotation may be considered at all. Both the
// below-reserve and above-reserve cases permit rotation; the reason string
// tells the caller which situation it is in.
func (m *Manager) CanRotate(totalCapital, freeBalance float64, openPositionCount int) (bool, string) {
	if !m.config.Enabled {
		return false, "rotation disabled"
	}
	if openPositionCount == 0 {
		return false, "no open positions to rotate"
	}
	if totalCapital <= 0 {
		return false, "non-positive capital"
	}

	reserve := totalCapital * m.config.MinFreeReservePct
	if freeBalance < reserve {
		return true, fmt.Sprintf("free balance $%.2f below reserve $%.2f, rotation needed", freeBalance, reserve)
	}
	return true, fmt.Sprintf("free balance $%.2f above reserve, rotation optional", freeBalance)
}

// ScorePositionForRotation scores one position's priority for closure in
// [0, 100]. The baseline is a neutral 50; losses, staleness, stretched RSI
// and dust-sized value push the score up, strong gains and freshness pull it
// down. Missing readings adjust nothing.
func (m *Manager) ScorePositionForRotation(pos *position.Position, metrics Metrics) float64 {
	w := m.config.Weights
	score := 50.0

	if !math.IsNaN(metrics.PnLPct) {
		switch {
		case metrics.PnLPct <= -0.05:
			score += w.LossHeavy
		case metrics.PnLPct <= -0.02:
			score += w.LossModerate
		case metrics.PnLPct < 0:
			score += w.LossLight
		case metrics.PnLPct >= 0.05:
			score += w.GainHeavy
		case metrics.PnLPct >= 0.02:
			score += w.GainModerate
		}
	}

	if !math.IsNaN(metrics.AgeHours) {
		switch {
		case metrics.AgeHours > 8:
			score += w.AgeStale
		case metrics.AgeHours > 4:
			score += w.AgeOld
		case metrics.AgeHours < 0.5:
			score += w.AgeFresh
		}
	}

	if !math.IsNaN(metrics.RSI) {
		if metrics.RSI > 70 {
			score += w.RSIOverbought
		} else if metrics.RSI < 30 {
			score += w.RSIOversold
		}
	}

	if !math.IsNaN(metrics.ValueUSD) {
		if metrics.ValueUSD < 5 {
			score += w.SizeDust
		} else if metrics.ValueUSD < 10 {
			score += w.SizeSmall
		}
	}

	return math.Max(0, math.Min(100, score))
}

// SelectPositionsForRotation scores every open position and greedily picks
// the strongest closure candidates until the freed value covers the needed
// capital. Positions scoring below MinScore are never selected, so a good
// position cannot be sacrificed no matter how much capital is requested. The
// returned list may free less than needed; the caller detects that by
// summing ValueUSD.
func (m *Manager) SelectPositionsForRotation(positions []*position.Position, metricsBySymbol map[string]Metrics, neededCapital, totalCapital float64) []Candidate {
	if totalCapital <= 0 || len(positions) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(positions))
	for _, pos := range positions {
		metrics, ok := metricsBySymbol[pos.Symbol]
		if !ok {
			metrics = UnknownMetrics()
		}
		value := 0.0
		if !math.IsNaN(metrics.ValueUSD) {
			value = metrics.ValueUSD
		}
		candidates = append(candidates, Candidate{
			Symbol:   pos.Symbol,
			Score:    m.ScorePositionForRotation(pos, metrics),
			ValueUSD: value,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	var selected []Candidate
	freed := 0.0
	for _, c := range candidates {
		if freed >= neededCapital {
			break
		}
		if c.Score < m.config.MinScore {
			break // sorted descending, nothing past here qualifies
		}
		selected = append(selected, c)
		freed += c.ValueUSD
	}
	return selected
}

// ShouldRotateForOpportunity compares a new opportunity's quality with the
// weakest current position's and rotates only when the relative improvement
// clears the configured threshold. Both qualities must be strictly positive;
// anything else is a no-rotate, not an error.
func (m *Manager) ShouldRotateForOpportunity(opportunityQuality, currentPositionQuality float64) (bool, string) {
	if opportunityQuality <= 0 || currentPositionQuality <= 0 {
		return false, "quality inputs must be positive"
	}

	improvement := (opportunityQuality - currentPositionQuality) / currentPositionQuality
	if improvement < m.config.ImprovementThreshold {
		return false, fmt.Sprintf("improvement %.1f%% below %.1f%% threshold", improvement*100, m.config.ImprovementThreshold*100)
	}
	return true, fmt.Sprintf("opportunity %.1f%% better than current position", improvement*100)
}
