// Package indicators contains the pure price-series math shared by the
// strategy evaluators and the backtest engines. All functions tolerate
// short or degenerate input and return a neutral value instead of
// failing; callers never need to pre-validate series length.
package indicators

// RSI computes the relative strength index over the last `period`
// deltas. Fewer than period+1 samples yields the neutral 50. A series
// with no losing bars saturates to 100 (avgLoss 0 drives RS to +Inf,
// and 100/(1+Inf) collapses to 0).
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		diff := prices[i] - prices[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses += -diff
		}
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - (100 / (1 + rs))
}
