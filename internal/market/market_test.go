package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestMockSource(t *testing.T) {
	m := NewMockSource()
	ctx := context.Background()

	t.Run("history is deterministic", func(t *testing.T) {
		a, err := m.History(ctx, "BTC/USDT", 100)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		b, _ := m.History(ctx, "BTC/USDT", 100)
		if len(a) != 100 || len(b) != 100 {
			t.Fatalf("lengths = %d/%d, want 100", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("walks diverge at %d: %v vs %v", i, a[i], b[i])
			}
		}
	})

	t.Run("history ends at the spot price", func(t *testing.T) {
		hist, _ := m.History(ctx, "ETH/USDT", 30)
		spot, _ := m.CurrentPrice(ctx, "ETH/USDT")
		if hist[len(hist)-1] != spot {
			t.Errorf("last close %v != spot %v", hist[len(hist)-1], spot)
		}
	})

	t.Run("prices stay positive", func(t *testing.T) {
		hist, _ := m.History(ctx, "XRP/USDT", 365)
		for i, p := range hist {
			if p <= 0 {
				t.Fatalf("price[%d] = %v", i, p)
			}
		}
	})

	t.Run("unknown pair", func(t *testing.T) {
		if _, err := m.History(ctx, "DOGE/EUR", 10); !errors.Is(err, ErrUnknownPair) {
			t.Errorf("err = %v, want ErrUnknownPair", err)
		}
	})
}

func TestCoinGeckoHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"prices":[[1,100.5],[2,101.25],[3,99.75]]}`)
	}))
	defer srv.Close()

	c := NewCoinGecko(srv.URL)
	prices, err := c.History(context.Background(), "BTC/USDT", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []float64{100.5, 101.25, 99.75}
	if len(prices) != len(want) {
		t.Fatalf("len = %d, want %d", len(prices), len(want))
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Errorf("prices[%d] = %v, want %v", i, prices[i], want[i])
		}
	}
}

func TestCoinGeckoCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":3210.42}}`)
	}))
	defer srv.Close()

	c := NewCoinGecko(srv.URL)
	price, err := c.CurrentPrice(context.Background(), "ETH/USDT")
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if price != 3210.42 {
		t.Errorf("price = %v, want 3210.42", price)
	}
}

func TestCoinGeckoRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"bitcoin":{"usd":65000}}`)
	}))
	defer srv.Close()

	c := NewCoinGecko(srv.URL)
	price, err := c.CurrentPrice(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("expected third attempt to succeed: %v", err)
	}
	if price != 65000 {
		t.Errorf("price = %v, want 65000", price)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestCoinGeckoExhaustionReturnsUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCoinGecko(srv.URL)
	_, err := c.History(context.Background(), "BTC/USDT", 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want exactly 3 attempts", calls.Load())
	}
}

func TestCoinGeckoRateLimitHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"bitcoin":{"usd":64000}}`)
	}))
	defer srv.Close()

	c := NewCoinGecko(srv.URL)
	price, err := c.CurrentPrice(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if price != 64000 {
		t.Errorf("price = %v, want 64000", price)
	}
}
