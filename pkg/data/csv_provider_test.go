package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadData(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1700000120000,101,103,100,102,15
1700000060000,100,102,99,101,10
`)

	candles, err := NewCSVProvider().LoadData(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	// Rows come back sorted oldest first regardless of file order.
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 102.0, candles[1].Close)
}

func TestLoadData_BadRows(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad price", "timestamp,open,high,low,close,volume\n1700000060000,abc,102,99,101,10\n"},
		{"bad timestamp", "timestamp,open,high,low,close,volume\nnot-a-time,100,102,99,101,10\n"},
		{"high below low", "timestamp,open,high,low,close,volume\n1700000060000,100,99,102,101,10\n"},
		{"short row", "timestamp,open,high,low,close,volume\n1700000060000,100,102\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVProvider().LoadData(writeCSV(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadData_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadData("does-not-exist.csv")
	assert.Error(t, err)
}

func TestLoadData_CustomDateFormat(t *testing.T) {
	format := DefaultCSVFormat
	format.DateFormat = "2006-01-02 15:04:05"
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2023-11-14 22:14:00,100,102,99,101,10
`)

	candles, err := NewCSVProviderWithFormat(format).LoadData(path)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 2023, candles[0].Timestamp.Year())
}
