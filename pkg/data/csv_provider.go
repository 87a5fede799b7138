package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/vdtran/position-guardian/pkg/types"
)

// CSVColumnMapping describes where each candle field lives in a CSV row.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string // empty means unix milliseconds
}

// DefaultCSVFormat matches the common exchange export layout:
// timestamp,open,high,low,close,volume with millisecond timestamps.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
}

// CSVProvider loads replay candles from CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom layout.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// LoadData reads all candles from the file, sorted oldest first. Rows that
// fail to parse are reported, not skipped: a replay over silently holed data
// gives misleading results.
func (p *CSVProvider) LoadData(filename string) ([]types.OHLCV, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("could not read CSV header: %w", err)
	}

	var candles []types.OHLCV
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", line, err)
		}
		line++

		if len(record) < p.format.MinColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, p.format.MinColumns, len(record))
		}

		candle, err := p.parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

func (p *CSVProvider) parseRow(record []string) (types.OHLCV, error) {
	var candle types.OHLCV

	ts, err := p.parseTimestamp(record[p.format.TimestampCol])
	if err != nil {
		return candle, fmt.Errorf("invalid timestamp %q: %w", record[p.format.TimestampCol], err)
	}
	candle.Timestamp = ts

	fields := []struct {
		col  int
		dst  *float64
		name string
	}{
		{p.format.OpenCol, &candle.Open, "open"},
		{p.format.HighCol, &candle.High, "high"},
		{p.format.LowCol, &candle.Low, "low"},
		{p.format.CloseCol, &candle.Close, "close"},
		{p.format.VolumeCol, &candle.Volume, "volume"},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(record[f.col], 64)
		if err != nil {
			return candle, fmt.Errorf("invalid %s %q: %w", f.name, record[f.col], err)
		}
		*f.dst = v
	}

	if candle.High < candle.Low {
		return candle, fmt.Errorf("high %.8f below low %.8f", candle.High, candle.Low)
	}
	return candle, nil
}

func (p *CSVProvider) parseTimestamp(raw string) (time.Time, error) {
	if p.format.DateFormat != "" {
		return time.Parse(p.format.DateFormat, raw)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
