package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/vdtran/position-guardian/pkg/types"
)

// Executor adapts the Bybit client to the coordinator's execution boundary.
// All calls go through the retry helper with the default policy.
type Executor struct {
	client     *Client
	policy     RetryPolicy
	settleCoin string
}

// NewExecutor creates a Bybit-backed executor.
func NewExecutor(client *Client) *Executor {
	return &Executor{
		client:     client,
		policy:     DefaultRetryPolicy(),
		settleCoin: "USDT",
	}
}

// ReducePosition places a reduce-only market order on the opposite side of
// the position. Reduce-only guarantees the order can shrink but never flip
// the position even if the size is stale.
func (e *Executor) ReducePosition(ctx context.Context, symbol string, side types.Side, qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("bybit: reduce qty must be positive, got %v", qty)
	}

	orderSide := "Sell"
	if side == types.SideShort {
		orderSide = "Buy"
	}

	params := map[string]interface{}{
		"category":   e.client.category,
		"symbol":     symbol,
		"side":       orderSide,
		"orderType":  "Market",
		"qty":        strconv.FormatFloat(qty, 'f', -1, 64),
		"reduceOnly": true,
	}

	return e.client.retry(ctx, e.policy, func() error {
		result, err := e.client.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
		if err != nil {
			return fmt.Errorf("failed to place reduce order: %w", err)
		}
		return checkServerResponse(result)
	})
}

// UpdateStop amends the position's stop loss via the trading-stop endpoint.
func (e *Executor) UpdateStop(ctx context.Context, symbol string, side types.Side, stopPrice float64) error {
	if stopPrice <= 0 {
		return fmt.Errorf("bybit: stop price must be positive, got %v", stopPrice)
	}

	params := map[string]interface{}{
		"category":    e.client.category,
		"symbol":      symbol,
		"positionIdx": 0, // one-way mode
		"stopLoss":    strconv.FormatFloat(stopPrice, 'f', -1, 64),
	}

	return e.client.retry(ctx, e.policy, func() error {
		result, err := e.client.httpClient.NewUtaBybitServiceWithParams(params).SetPositionTradingStop(ctx)
		if err != nil {
			return fmt.Errorf("failed to set trading stop: %w", err)
		}
		return checkServerResponse(result)
	})
}

// AccountEquity returns total unified-account equity in USD.
func (e *Executor) AccountEquity(ctx context.Context) (float64, error) {
	wallet, err := e.wallet(ctx)
	if err != nil {
		return 0, err
	}
	return parseFloat64(wallet.TotalEquity), nil
}

// FreeBalance returns the balance available for new positions in USD.
func (e *Executor) FreeBalance(ctx context.Context) (float64, error) {
	wallet, err := e.wallet(ctx)
	if err != nil {
		return 0, err
	}
	return parseFloat64(wallet.TotalAvailableBalance), nil
}

// OpenPositions returns every open position with entry and size.
func (e *Executor) OpenPositions(ctx context.Context) ([]types.PositionSnapshot, error) {
	params := map[string]interface{}{
		"category":   e.client.category,
		"settleCoin": e.settleCoin,
	}

	var result interface{}
	err := e.client.retry(ctx, e.policy, func() error {
		var err error
		result, err = e.client.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
		if err != nil {
			return fmt.Errorf("failed to get positions: %w", err)
		}
		return checkServerResponse(result)
	})
	if err != nil {
		return nil, err
	}

	var positionResult struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			PositionValue string `json:"positionValue"`
		} `json:"list"`
	}
	if err := decodeResult(result, &positionResult); err != nil {
		return nil, fmt.Errorf("failed to parse positions response: %w", err)
	}

	snapshots := make([]types.PositionSnapshot, 0, len(positionResult.List))
	for _, p := range positionResult.List {
		size := parseFloat64(p.Size)
		if size == 0 {
			continue
		}
		side := types.SideLong
		if p.Side == "Sell" {
			side = types.SideShort
		}
		snapshots = append(snapshots, types.PositionSnapshot{
			Symbol:     p.Symbol,
			Side:       side,
			EntryPrice: parseFloat64(p.AvgPrice),
			Size:       size,
			ValueUSD:   parseFloat64(p.PositionValue),
		})
	}
	return snapshots, nil
}

// Klines returns up to limit recent candles, oldest first. Bybit serves the
// list newest first, so the result is reversed before returning.
func (e *Executor) Klines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	params := map[string]interface{}{
		"category": e.client.category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    limit,
	}

	var result interface{}
	err := e.client.retry(ctx, e.policy, func() error {
		var err error
		result, err = e.client.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
		if err != nil {
			return fmt.Errorf("failed to get klines: %w", err)
		}
		return checkServerResponse(result)
	})
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		List [][]string `json:"list"`
	}
	if err := decodeResult(result, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}

	// Format: [startTime, open, high, low, close, volume, turnover]
	candles := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		item := klineResult.List[i]
		if len(item) < 6 {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(parseInt64(item[0])),
			Open:      parseFloat64(item[1]),
			High:      parseFloat64(item[2]),
			Low:       parseFloat64(item[3]),
			Close:     parseFloat64(item[4]),
			Volume:    parseFloat64(item[5]),
		})
	}
	return candles, nil
}

type walletInfo struct {
	TotalEquity           string `json:"totalEquity"`
	TotalAvailableBalance string `json:"totalAvailableBalance"`
	TotalWalletBalance    string `json:"totalWalletBalance"`
	AccountType           string `json:"accountType"`
}

func (e *Executor) wallet(ctx context.Context) (*walletInfo, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
	}

	var result interface{}
	err := e.client.retry(ctx, e.policy, func() error {
		var err error
		result, err = e.client.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
		if err != nil {
			return fmt.Errorf("failed to get account balance: %w", err)
		}
		return checkServerResponse(result)
	})
	if err != nil {
		return nil, err
	}

	var walletResult struct {
		List []walletInfo `json:"list"`
	}
	if err := decodeResult(result, &walletResult); err != nil {
		return nil, fmt.Errorf("failed to parse wallet response: %w", err)
	}
	if len(walletResult.List) == 0 {
		return nil, fmt.Errorf("no account data found")
	}
	return &walletResult.List[0], nil
}

// checkServerResponse surfaces a venue error hidden in a 200 response.
func checkServerResponse(response interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("invalid response type")
	}
	return ParseAPIError(serverResp.RetCode, serverResp.RetMsg)
}

// decodeResult unmarshals the Result field of a ServerResponse into out.
func decodeResult(response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("invalid response type")
	}
	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return json.Unmarshal(resultBytes, out)
}

func parseFloat64(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
