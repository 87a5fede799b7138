package reporting

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *SessionReport {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r := NewSessionReport("main", 10000, start)

	r.AddExit(ExitRecord{Time: start.Add(time.Hour), Symbol: "BTCUSDT", Side: "long", Fraction: 0.25, Qty: 0.25, Price: 102, Reason: "take_profit"})
	r.AddExit(ExitRecord{Time: start.Add(2 * time.Hour), Symbol: "BTCUSDT", Side: "long", Fraction: 1.0, Qty: 0.75, Price: 101.5, Reason: "stop_loss_hit"})
	r.AddExit(ExitRecord{Time: start.Add(3 * time.Hour), Symbol: "ETHUSDT", Side: "short", Fraction: 0.40, Qty: 1.2, Price: 95, Reason: "take_profit"})
	r.AddStop(StopRecord{Time: start.Add(time.Hour), Symbol: "BTCUSDT", Stop: 100.1, Reason: "breakeven_activated"})

	r.AddCapitalPoint(CapitalPoint{Time: start.Add(time.Hour), Equity: 10200, DrawdownPct: 0})
	r.AddCapitalPoint(CapitalPoint{Time: start.Add(2 * time.Hour), Equity: 9800, DrawdownPct: 0.039})
	r.AddCapitalPoint(CapitalPoint{Time: start.Add(3 * time.Hour), Equity: 10100, DrawdownPct: 0.0098})
	return r
}

func TestSessionReport_Accumulation(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, 10100.0, r.EndEquity)
	assert.InDelta(t, 0.039, r.MaxDrawdownPct, 1e-9) // peak drawdown survives recovery
	assert.InDelta(t, 0.01, r.ReturnPct(), 1e-9)

	byReason := r.ExitsByReason()
	assert.Equal(t, 2, byReason["take_profit"])
	assert.Equal(t, 1, byReason["stop_loss_hit"])
}

func TestConsoleReporter_RendersSummary(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleReporterTo(&buf).Render(sampleReport())

	out := buf.String()
	assert.Contains(t, out, "SESSION SUMMARY")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "EXITS BY REASON")
	assert.Contains(t, out, "stop_loss_hit")
}

func TestExcelReporter_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.xlsx")
	require.NoError(t, NewExcelReporter().WriteXLSX(sampleReport(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Summary", "Exits", "Stops", "Capital"}, fx.GetSheetList())

	account, err := fx.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "main", account)

	symbol, err := fx.GetCellValue("Exits", "B2")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", symbol)
}
