package indicators

// Stochastic computes the %K oscillator over a close-only window: the
// position of the last close between the window's extremes, scaled to
// [0,100]. A flat or empty window has no defined position and reads
// neutral 50.
func Stochastic(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 50
	}
	recent := prices
	if len(recent) > period {
		recent = recent[len(recent)-period:]
	}
	highest, lowest := recent[0], recent[0]
	for _, p := range recent {
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
	}
	if highest == lowest {
		return 50
	}
	k := (prices[len(prices)-1] - lowest) / (highest - lowest) * 100
	return clamp(k, 0, 100)
}

// ADX approximates trend strength from a close-only series. Range and
// directional movement are taken from consecutive closes, so the true
// range degrades to the absolute bar-to-bar change. The directional
// index is folded into a [20,80] score centered on 50; a zero-range
// window reads neutral 50.
func ADX(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var trueRange, upMove, downMove float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			upMove += change
		} else {
			downMove += -change
		}
		if change > 0 {
			trueRange += change
		} else {
			trueRange += -change
		}
	}

	atr := trueRange / float64(period)
	if atr == 0 {
		return 50
	}
	diPlus := (upMove / atr) * 100 / float64(period)
	diMinus := (downMove / atr) * 100 / float64(period)

	di := diPlus - diMinus
	if di < 0 {
		di = -di
	}
	di /= diPlus + diMinus + 0.001

	return clamp(50+di*30, 20, 80)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
