package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExcelReporter writes a session report as an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteXLSX writes the session to an Excel file with Summary, Exits, Stops
// and Capital sheets.
func (r *ExcelReporter) WriteXLSX(report *SessionReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const exitsSheet = "Exits"
	const stopsSheet = "Stops"
	const capitalSheet = "Capital"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(exitsSheet)
	fx.NewSheet(stopsSheet)
	fx.NewSheet(capitalSheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeExitsSheet(fx, exitsSheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeStopsSheet(fx, stopsSheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeCapitalSheet(fx, capitalSheet, report, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Account", report.Account},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Start Equity", report.StartEquity},
		{"End Equity", report.EndEquity},
		{"Return %", report.ReturnPct() * 100},
		{"Max Drawdown %", report.MaxDrawdownPct * 100},
		{"Exits", len(report.Exits)},
		{"Stop Updates", len(report.Stops)},
	}

	for reason, count := range report.ExitsByReason() {
		rows = append(rows, []interface{}{"Exits: " + reason, count})
	}

	if err := writeRows(fx, sheet, rows); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, "A1", "B1", headerStyle)
}

func (r *ExcelReporter) writeExitsSheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	rows := [][]interface{}{
		{"Time", "Symbol", "Side", "Fraction", "Qty", "Price", "Reason"},
	}
	for _, e := range report.Exits {
		rows = append(rows, []interface{}{
			e.Time.Format("2006-01-02 15:04:05"), e.Symbol, e.Side, e.Fraction, e.Qty, e.Price, e.Reason,
		})
	}

	if err := writeRows(fx, sheet, rows); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, "A1", "G1", headerStyle)
}

func (r *ExcelReporter) writeStopsSheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	rows := [][]interface{}{
		{"Time", "Symbol", "Stop", "Reason"},
	}
	for _, s := range report.Stops {
		rows = append(rows, []interface{}{
			s.Time.Format("2006-01-02 15:04:05"), s.Symbol, s.Stop, s.Reason,
		})
	}

	if err := writeRows(fx, sheet, rows); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, "A1", "D1", headerStyle)
}

func (r *ExcelReporter) writeCapitalSheet(fx *excelize.File, sheet string, report *SessionReport, headerStyle int) error {
	rows := [][]interface{}{
		{"Time", "Equity", "Drawdown %"},
	}
	for _, p := range report.Capital {
		rows = append(rows, []interface{}{
			p.Time.Format("2006-01-02 15:04:05"), p.Equity, p.DrawdownPct * 100,
		})
	}

	if err := writeRows(fx, sheet, rows); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, "A1", "C1", headerStyle)
}

func writeRows(fx *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
