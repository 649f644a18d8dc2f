package evaluator

import "signalbot/internal/indicators"

// MeanRev combines MACD momentum with Bollinger band proximity and RSI
// gates. Momentum with the price pressed against the opposite band is
// the strongest setup; plain momentum and RSI extremes fill the lower
// tiers.
type MeanRev struct{}

func (MeanRev) Name() string    { return "meanrev" }
func (MeanRev) MinSamples() int { return 30 }

func (MeanRev) Evaluate(prices []float64) Evaluation {
	if len(prices) < 30 {
		return neutral()
	}

	rsi := indicators.RSI(prices, 14)
	macd := indicators.MACD(prices)
	bands := indicators.BollingerBands(prices, 20)
	current := prices[len(prices)-1]

	macdBullish := macd.MACD > macd.Signal && macd.Histogram > 0
	macdBearish := macd.MACD < macd.Signal && macd.Histogram < 0

	// "Near" allows a 5% overshoot past the band.
	priceNearLower := current <= bands.Lower*1.05
	priceNearUpper := current >= bands.Upper*0.95

	var (
		confidence int
		direction  Direction
	)
	switch {
	case macdBullish && priceNearLower && rsi < 70:
		direction, confidence = Long, 78
	case macdBullish && rsi < 50:
		direction, confidence = Long, 70
	case macdBearish && priceNearUpper && rsi > 30:
		direction, confidence = Short, 77
	case macdBearish && rsi > 50:
		direction, confidence = Short, 69
	case macdBullish:
		direction, confidence = Long, 60
	case macdBearish:
		direction, confidence = Short, 59
	case rsi < 30:
		direction, confidence = Long, 58
	case rsi > 70:
		direction, confidence = Short, 57
	default:
		direction, confidence = Long, 55
	}

	return Evaluation{Confidence: clampConfidence(confidence), Direction: direction}
}
