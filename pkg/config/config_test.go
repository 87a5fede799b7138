package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Accounts = []AccountConfig{
		{
			Name:         "main",
			Symbols:      []string{"BTCUSDT"},
			Interval:     "5",
			BaseCapital:  10000,
			BaseOrderUSD: 100,
		},
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no accounts", func(c *Config) { c.Accounts = nil }, true},
		{"duplicate account", func(c *Config) { c.Accounts = append(c.Accounts, c.Accounts[0]) }, true},
		{"empty symbols", func(c *Config) { c.Accounts[0].Symbols = nil }, true},
		{"zero capital", func(c *Config) { c.Accounts[0].BaseCapital = 0 }, true},
		{"zero order size", func(c *Config) { c.Accounts[0].BaseOrderUSD = 0 }, true},
		{"bad cycle", func(c *Config) { c.CycleSeconds = 0 }, true},
		{"short lookback", func(c *Config) { c.KlineLookback = 10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func TestLoad_OverlaysDefaults(t *testing.T) {
	raw := `{
		"cycle_seconds": 15,
		"accounts": [
			{
				"name": "main",
				"symbols": ["BTCUSDT", "ETHUSDT"],
				"interval": "5",
				"base_capital": 5000,
				"base_order_usd": 50,
				"protect": {
					"ladder": [{"name": "ladder_1pct", "threshold": 0.01, "fraction": 0.4}],
					"breakeven_trigger_pct": 0.005,
					"fee_buffer_pct": 0.0015,
					"stagnation_after": 1800000000000,
					"stagnation_min_move_pct": 0.003
				}
			}
		]
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.CycleInterval())
	assert.Equal(t, ":9090", cfg.MetricsAddr) // default survives
	assert.Equal(t, "linear", cfg.Exchange.Bybit.Category)
	require.Len(t, cfg.Accounts, 1)
	require.NotNil(t, cfg.Accounts[0].Protect)
	assert.Equal(t, 30*time.Minute, cfg.Accounts[0].Protect.StagnationAfter)
	assert.Nil(t, cfg.Accounts[0].Trailing)
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accounts": []}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "key-from-env")
	t.Setenv("BYBIT_API_SECRET", "secret-from-env")

	cfg := validConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "key-from-env", cfg.Exchange.Bybit.APIKey)
	assert.Equal(t, "secret-from-env", cfg.Exchange.Bybit.APISecret)
}
