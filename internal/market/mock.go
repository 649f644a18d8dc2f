package market

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
)

// basePrices anchor the mock walks to plausible levels per pair.
var basePrices = map[string]float64{
	"BTC/USDT": 65000,
	"ETH/USDT": 3200,
	"SOL/USDT": 150,
	"BNB/USDT": 580,
	"XRP/USDT": 0.52,
}

// MockSource is a deterministic random-walk feed for tests and
// offline development. The walk for a pair is seeded from the pair
// name, so repeated calls return identical series.
type MockSource struct {
	mu    sync.Mutex
	drift float64
}

// NewMockSource builds a mock feed with a mild upward drift.
func NewMockSource() *MockSource {
	return &MockSource{drift: 0.0005}
}

// History implements PriceSource with a seeded geometric walk that
// ends at the pair's base price.
func (m *MockSource) History(_ context.Context, pair string, days int) ([]float64, error) {
	base, err := basePrice(pair)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		days = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rng := rand.New(rand.NewSource(pairSeed(pair)))
	prices := make([]float64, days)
	price := base
	// Walk backwards from the anchor so "today" is always base.
	for i := days - 1; i >= 0; i-- {
		prices[i] = price
		step := (rng.Float64()-0.5)*0.04 + m.drift
		price /= 1 + step
	}
	return prices, nil
}

// CurrentPrice implements PriceSource.
func (m *MockSource) CurrentPrice(_ context.Context, pair string) (float64, error) {
	return basePrice(pair)
}

func basePrice(pair string) (float64, error) {
	if _, err := coinID(pair); err != nil {
		return 0, err
	}
	return basePrices[strings.ToUpper(pair)], nil
}

func pairSeed(pair string) int64 {
	h := fnv.New64a()
	h.Write([]byte(pair))
	return int64(h.Sum64())
}
