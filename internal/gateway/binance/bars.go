package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"portsync/internal/config"
	"portsync/internal/gateway/venue"

	gobinance "github.com/adshao/go-binance/v2"
)

const maxKlineLimit = 1000

// BarSource serves daily bars for crypto symbols from Binance spot klines,
// mapped onto the same bar shape the venue data API produces.
type BarSource struct {
	client  *gobinance.Client
	symbols map[string]struct{}
}

// New constructs the crypto bar source. The configured symbol list decides
// which symbols this source claims.
func New(cfg config.BinanceConfig) *BarSource {
	client := gobinance.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	symbols := make(map[string]struct{}, len(cfg.CryptoSymbols))
	for _, s := range cfg.CryptoSymbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols[s] = struct{}{}
		}
	}
	return &BarSource{client: client, symbols: symbols}
}

// Handles reports whether this source serves the given symbol.
func (s *BarSource) Handles(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := s.symbols[symbol]; ok {
		return true
	}
	// Crypto pairs are conventionally written with a slash (BTC/USD).
	return strings.Contains(symbol, "/")
}

// GetDailyBars fetches daily klines for symbol over [start, end].
func (s *BarSource) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]venue.Bar, error) {
	clean := toExchangeSymbol(symbol)
	if clean == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	svc := s.client.NewKlinesService().
		Symbol(clean).
		Interval("1d").
		StartTime(start.UTC().UnixMilli()).
		EndTime(end.UTC().UnixMilli()).
		Limit(maxKlineLimit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]venue.Bar, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, venue.Bar{
			Timestamp: time.UnixMilli(kl.OpenTime).UTC(),
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    int64(parseFloat(kl.Volume)),
		})
	}
	return out, nil
}

// toExchangeSymbol strips separators: BTC/USD -> BTCUSD.
func toExchangeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	symbol = strings.ReplaceAll(symbol, "/", "")
	return strings.ReplaceAll(symbol, "-", "")
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
