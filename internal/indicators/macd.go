package indicators

// MACDResult carries the MACD line, its signal line, and the histogram
// (macd - signal).
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes EMA12-EMA26 and a single-step signal line: the SMA of
// the last 9 closes blended once toward the MACD value with a 2/10
// multiplier. The signal line is a deliberate approximation of a full
// 9-period EMA over the MACD series; the evaluators only consume the
// sign relationships, which survive the shortcut.
func MACD(prices []float64) MACDResult {
	macd := EMA(prices, 12) - EMA(prices, 26)

	recent := prices
	if len(recent) > 9 {
		recent = recent[len(recent)-9:]
	}
	var sum float64
	for _, p := range recent {
		sum += p
	}
	signal := sum / 9
	const multiplier = 2.0 / 10.0
	signal = macd*multiplier + signal*(1-multiplier)

	return MACDResult{MACD: macd, Signal: signal, Histogram: macd - signal}
}
