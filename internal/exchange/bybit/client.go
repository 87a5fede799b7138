// Package bybit implements the executor boundary against the Bybit v5 API.
package bybit

import (
	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Config selects the trading environment and product category.
type Config struct {
	APIKey    string
	APISecret string
	Category  string // "linear" or "inverse", defaults to linear
	Testnet   bool
	Demo      bool // paper-trading environment, takes precedence over Testnet
}

// Client owns the authenticated HTTP client and the category every request
// is scoped to.
type Client struct {
	httpClient *bybit_api.Client
	category   string
	testnet    bool
	demo       bool
}

// NewClient builds an authenticated client for the configured environment.
func NewClient(cfg Config) *Client {
	category := cfg.Category
	if category == "" {
		category = "linear"
	}

	return &Client{
		httpClient: bybit_api.NewBybitHttpClient(
			cfg.APIKey,
			cfg.APISecret,
			bybit_api.WithBaseURL(baseURL(cfg)),
		),
		category: category,
		testnet:  cfg.Testnet,
		demo:     cfg.Demo,
	}
}

func baseURL(cfg Config) string {
	switch {
	case cfg.Demo:
		return "https://api-demo.bybit.com"
	case cfg.Testnet:
		return bybit_api.TESTNET
	default:
		return bybit_api.MAINNET
	}
}

// Environment names the active trading environment for startup logs.
func (c *Client) Environment() string {
	switch {
	case c.demo:
		return "demo"
	case c.testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}
