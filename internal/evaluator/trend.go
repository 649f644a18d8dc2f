package evaluator

import "signalbot/internal/indicators"

// Trend trades with the prevailing trend: an EMA20/50/200 stack sets
// the direction, MACD confirms momentum, and RSI gates out exhausted
// moves. Fully aligned setups score highest; an intact but unconfirmed
// trend still nudges above neutral.
type Trend struct{}

func (Trend) Name() string    { return "trend" }
func (Trend) MinSamples() int { return 30 }

func (Trend) Evaluate(prices []float64) Evaluation {
	if len(prices) < 30 {
		return neutral()
	}

	current := prices[len(prices)-1]
	macd := indicators.MACD(prices)
	rsi := indicators.RSI(prices, 14)

	ema20 := indicators.EMA(prices, 20)
	ema50 := indicators.EMA(prices, 50)
	ema200 := indicators.EMA(prices, 200)

	priceAbove20 := current > ema20
	ema20Above50 := ema20 > ema50
	ema50Above200 := ema50 > ema200

	macdBullish := macd.MACD > macd.Signal && macd.Histogram > 0
	macdBearish := macd.MACD < macd.Signal && macd.Histogram < 0

	var (
		confidence int
		direction  Direction
	)
	switch {
	// Full bullish stack with momentum confirmation.
	case priceAbove20 && ema20Above50 && ema50Above200 && macdBullish && rsi < 70:
		direction, confidence = Long, 76
	case priceAbove20 && ema20Above50 && macdBullish && rsi < 65:
		direction, confidence = Long, 70
	case priceAbove20 && macdBullish && rsi > 35 && rsi < 70:
		direction, confidence = Long, 62

	// Full bearish stack with momentum confirmation.
	case !priceAbove20 && !ema20Above50 && !ema50Above200 && macdBearish && rsi > 30:
		direction, confidence = Short, 76
	case !priceAbove20 && !ema20Above50 && macdBearish && rsi > 35:
		direction, confidence = Short, 70
	case !priceAbove20 && macdBearish && rsi > 30 && rsi < 65:
		direction, confidence = Short, 62

	// Trend intact without fresh confirmation.
	case priceAbove20 && ema20Above50:
		direction, confidence = Long, 58
	case !priceAbove20 && !ema20Above50:
		direction, confidence = Short, 58

	// Transition zone: lean on price position around the mid EMA.
	default:
		if current > ema50 {
			direction = Long
		} else {
			direction = Short
		}
		confidence = 55
	}

	return Evaluation{Confidence: clampConfidence(confidence), Direction: direction}
}
