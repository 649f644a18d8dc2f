package indicators

// EMA computes an exponential moving average seeded with the SMA of the
// last `period` prices, then walks the same window with the standard
// 2/(period+1) multiplier. A series shorter than the period degrades to
// the last price; an empty series reads 0.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	ema := sum / float64(period)
	multiplier := 2 / float64(period+1)
	for i := len(prices) - period; i < len(prices); i++ {
		ema = prices[i]*multiplier + ema*(1-multiplier)
	}
	return ema
}
