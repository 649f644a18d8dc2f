package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	maxAttempts = 3
	baseBackoff = time.Second
)

// CoinGecko fetches daily closes and spot prices from the public
// CoinGecko API.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

// NewCoinGecko builds a client against the given base URL (the public
// API when empty).
func NewCoinGecko(baseURL string) *CoinGecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGecko{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// History implements PriceSource.
func (c *CoinGecko) History(ctx context.Context, pair string, days int) ([]float64, error) {
	id, err := coinID(pair)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		c.baseURL, url.PathEscape(id), days)

	var payload struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	prices := make([]float64, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		prices = append(prices, p[1])
	}
	return prices, nil
}

// CurrentPrice implements PriceSource.
func (c *CoinGecko) CurrentPrice(ctx context.Context, pair string) (float64, error) {
	id, err := coinID(pair)
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(id))

	payload := map[string]map[string]float64{}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, err
	}
	price, ok := payload[id]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("%w: empty quote for %s", ErrUnavailable, pair)
	}
	return price, nil
}

// getJSON fetches with up to three attempts and escalating backoff.
// 429 responses wait longer, honoring Retry-After when present. After
// the last failure the caller sees ErrUnavailable.
func (c *CoinGecko) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * baseBackoff
			if errors.Is(lastErr, errRateLimited) {
				delay *= 3
			}
			if d, ok := retryAfterDelay(lastErr); ok {
				delay = d
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.fetchOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// errRateLimited marks a 429 so the backoff loop can stretch the delay.
var errRateLimited = fmt.Errorf("rate limited")

type rateLimitError struct {
	retryAfter    time.Duration
	hasRetryAfter bool
}

func (e *rateLimitError) Error() string { return "rate limited" }
func (e *rateLimitError) Is(target error) bool {
	return target == errRateLimited
}

func retryAfterDelay(err error) (time.Duration, bool) {
	var rl *rateLimitError
	if errors.As(err, &rl) && rl.hasRetryAfter {
		return rl.retryAfter, true
	}
	return 0, false
}

func (c *CoinGecko) fetchOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		rl := &rateLimitError{}
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				rl.retryAfter = time.Duration(secs) * time.Second
				rl.hasRetryAfter = true
			}
		}
		return rl
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
