package evaluator

import "signalbot/internal/indicators"

// Contrarian fades the consensus: when the indicator stack reads
// bullish it goes short, and vice versa. The gating is deliberately
// heavy (EMA9/21/50 stack, MACD, stochastic, ADX trend strength and a
// volatility proxy) so only well-confirmed consensus gets faded.
type Contrarian struct{}

func (Contrarian) Name() string    { return "contrarian" }
func (Contrarian) MinSamples() int { return 40 }

func (Contrarian) Evaluate(prices []float64) Evaluation {
	if len(prices) < 40 {
		return neutral()
	}

	rsi := indicators.RSI(prices, 14)
	macd := indicators.MACD(prices)
	stochK := indicators.Stochastic(prices, 14)
	adx := indicators.ADX(prices, 14)
	volTrend := volumeTrend(prices)

	ema9 := indicators.EMA(prices, 9)
	ema21 := indicators.EMA(prices, 21)
	ema50 := indicators.EMA(prices, 50)
	current := prices[len(prices)-1]

	ema9Above21 := ema9 > ema21
	ema21Above50 := ema21 > ema50

	var (
		confidence int
		direction  Direction
	)
	switch {
	// Consensus strongly bullish with everything confirming: fade it short.
	case ema9Above21 && ema21Above50 && current > ema50 &&
		macd.MACD > macd.Signal && macd.Histogram > 0 &&
		stochK < 80 && rsi < 75 && adx > 55 && volTrend > 60:
		direction, confidence = Short, 75

	case ema9Above21 && ema21Above50 &&
		macd.MACD > macd.Signal &&
		stochK < 85 && rsi < 70 && adx > 50:
		direction, confidence = Short, 72

	// Consensus strongly bearish with everything confirming: fade it long.
	case !ema9Above21 && !ema21Above50 && current < ema50 &&
		macd.MACD < macd.Signal && macd.Histogram < 0 &&
		stochK > 20 && rsi > 25 && adx > 55 && volTrend > 60:
		direction, confidence = Long, 75

	case !ema9Above21 && !ema21Above50 &&
		macd.MACD < macd.Signal &&
		stochK > 15 && rsi > 30 && adx > 50:
		direction, confidence = Long, 72

	// Moderate consensus, lighter gating.
	case ema9Above21 && macd.MACD > macd.Signal && stochK < 70 && rsi < 65:
		direction, confidence = Short, 68
	case !ema9Above21 && macd.MACD < macd.Signal && stochK > 30 && rsi > 35:
		direction, confidence = Long, 67

	// RSI extremes alone.
	case rsi > 70:
		direction, confidence = Short, 60
	case rsi < 30:
		direction, confidence = Long, 60

	default:
		direction, confidence = Long, 55
	}

	return Evaluation{Confidence: clampConfidence(confidence), Direction: direction}
}

// volumeTrend is a price-derived activity proxy: the net move of the
// last 10 closes relative to their mean, scaled onto [50,100]. No
// volume data is available from a close-only series, so volatility
// stands in for it.
func volumeTrend(prices []float64) float64 {
	if len(prices) < 20 {
		return 50
	}
	recent := prices[len(prices)-10:]
	var sum float64
	for _, p := range recent {
		sum += p
	}
	avg := sum / float64(len(recent))

	net := recent[len(recent)-1] - recent[0]
	if net < 0 {
		net = -net
	}
	v := 50 + (net/avg)*200
	if v > 100 {
		v = 100
	}
	return v
}
