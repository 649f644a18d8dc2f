// Package market provides daily-close price history and spot prices
// for the demo pairs, either from CoinGecko or a deterministic mock.
package market

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable signals that the upstream feed could not be reached
// after retries. The caller decides what to surface; prices are never
// fabricated here.
var ErrUnavailable = errors.New("market data unavailable")

// ErrUnknownPair signals a pair outside the supported demo set.
var ErrUnknownPair = errors.New("unknown trading pair")

// PriceSource is the read-only market data contract.
type PriceSource interface {
	// History returns up to `days` daily closes, oldest first.
	History(ctx context.Context, pair string, days int) ([]float64, error)
	// CurrentPrice returns the latest spot price for the pair.
	CurrentPrice(ctx context.Context, pair string) (float64, error)
}

// coinIDs maps the demo trading pairs onto CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC/USDT": "bitcoin",
	"ETH/USDT": "ethereum",
	"SOL/USDT": "solana",
	"BNB/USDT": "binancecoin",
	"XRP/USDT": "ripple",
}

func coinID(pair string) (string, error) {
	id, ok := coinIDs[strings.ToUpper(pair)]
	if !ok {
		return "", ErrUnknownPair
	}
	return id, nil
}

// Pairs lists the supported trading pairs.
func Pairs() []string {
	out := make([]string, 0, len(coinIDs))
	for p := range coinIDs {
		out = append(out, p)
	}
	return out
}
