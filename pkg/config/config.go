package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vdtran/position-guardian/internal/capital"
	"github.com/vdtran/position-guardian/internal/protect"
	"github.com/vdtran/position-guardian/internal/rotation"
	"github.com/vdtran/position-guardian/internal/trailing"
)

// BybitConfig holds exchange connection settings. Credentials come from the
// environment, never from the config file.
type BybitConfig struct {
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
	Category  string `json:"category"`
	Testnet   bool   `json:"testnet"`
	Demo      bool   `json:"demo"`
}

// ExchangeConfig selects and configures the execution venue.
type ExchangeConfig struct {
	Bybit BybitConfig `json:"bybit"`
}

// AccountConfig is the per-account management setup. Nil engine configs
// select that engine's defaults.
type AccountConfig struct {
	Name         string   `json:"name"`
	Symbols      []string `json:"symbols"`
	Interval     string   `json:"interval"` // kline interval in venue notation, e.g. "5"
	BaseCapital  float64  `json:"base_capital"`
	BaseOrderUSD float64  `json:"base_order_usd"`

	Trailing *trailing.Config `json:"trailing,omitempty"`
	Protect  *protect.Config  `json:"protect,omitempty"`
	Rotation *rotation.Config `json:"rotation,omitempty"`
	Capital  *capital.Config  `json:"capital,omitempty"`
}

// TelegramConfig holds alerting settings. The token comes from the
// environment.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"-"`
	ChatID  string `json:"chat_id"`
}

// Config is the root application configuration.
type Config struct {
	Exchange      ExchangeConfig  `json:"exchange"`
	Accounts      []AccountConfig `json:"accounts"`
	CycleSeconds  int             `json:"cycle_seconds"`
	MetricsAddr   string          `json:"metrics_addr"`
	KlineLookback int             `json:"kline_lookback"`
	Telegram      TelegramConfig  `json:"telegram"`
}

// NewDefaultConfig returns the stock application configuration with no
// accounts.
func NewDefaultConfig() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Bybit: BybitConfig{Category: "linear"},
		},
		CycleSeconds:  30,
		MetricsAddr:   ":9090",
		KlineLookback: 50,
	}
}

// Load reads the JSON config file over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// CycleInterval returns the evaluation period as a duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.CycleSeconds) * time.Second
}

// Validate validates the full configuration tree, including every
// account's engine configs.
func (c *Config) Validate() error {
	if c.CycleSeconds <= 0 {
		return fmt.Errorf("cycle_seconds must be positive, got %d", c.CycleSeconds)
	}
	if c.KlineLookback < 25 {
		return fmt.Errorf("kline_lookback must be at least 25, got %d", c.KlineLookback)
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}

	seen := make(map[string]bool)
	for i, acct := range c.Accounts {
		if acct.Name == "" {
			return fmt.Errorf("account %d: empty name", i)
		}
		if seen[acct.Name] {
			return fmt.Errorf("account %q: duplicate name", acct.Name)
		}
		seen[acct.Name] = true

		if len(acct.Symbols) == 0 {
			return fmt.Errorf("account %q: no symbols", acct.Name)
		}
		if acct.Interval == "" {
			return fmt.Errorf("account %q: empty interval", acct.Name)
		}
		if acct.BaseCapital <= 0 {
			return fmt.Errorf("account %q: base_capital must be positive, got %.2f", acct.Name, acct.BaseCapital)
		}
		if acct.BaseOrderUSD <= 0 {
			return fmt.Errorf("account %q: base_order_usd must be positive, got %.2f", acct.Name, acct.BaseOrderUSD)
		}

		if acct.Trailing != nil {
			if err := acct.Trailing.Validate(); err != nil {
				return fmt.Errorf("account %q: trailing: %w", acct.Name, err)
			}
		}
		if acct.Protect != nil {
			if err := acct.Protect.Validate(); err != nil {
				return fmt.Errorf("account %q: protect: %w", acct.Name, err)
			}
		}
		if acct.Rotation != nil {
			if err := acct.Rotation.Validate(); err != nil {
				return fmt.Errorf("account %q: rotation: %w", acct.Name, err)
			}
		}
		if acct.Capital != nil {
			if err := acct.Capital.Validate(); err != nil {
				return fmt.Errorf("account %q: capital: %w", acct.Name, err)
			}
		}
	}

	return nil
}

// ApplyEnv overlays credentials from the environment. Call after loading the
// .env file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		c.Exchange.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		c.Exchange.Bybit.APISecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}
