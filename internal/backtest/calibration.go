// Package backtest contains the three offline simulators: the startup
// calibration replay, the synthetic Bernoulli walk, and the historical
// replay engine.
package backtest

import (
	"math"

	"signalbot/internal/evaluator"
	"signalbot/internal/indicators"
)

// Calibration is the tiered win-rate table computed once at startup by
// replaying simple entry setups over real history. It is passed by
// value into the signal synthesizer; there is no global calibration
// state.
type Calibration struct {
	StrongLong  int `json:"strongLongWinRate"`
	StrongShort int `json:"strongShortWinRate"`
	MildLong    int `json:"mildLongWinRate"`
	MildShort   int `json:"mildShortWinRate"`
	Conflicting int `json:"conflictingWinRate"`
}

// DefaultCalibration is used when history is too short (or the fetch
// failed) to measure anything.
func DefaultCalibration() Calibration {
	return Calibration{
		StrongLong:  72,
		StrongShort: 71,
		MildLong:    62,
		MildShort:   61,
		Conflicting: 55,
	}
}

// Band maps an evaluation onto its calibration win rate: confident
// calls land in the strong tier, moderate ones in the mild tier, and
// anything near the floor counts as conflicting.
func (c Calibration) Band(eval evaluator.Evaluation) int {
	switch {
	case eval.Confidence >= 72 && eval.Direction == evaluator.Long:
		return c.StrongLong
	case eval.Confidence >= 72:
		return c.StrongShort
	case eval.Confidence >= 62 && eval.Direction == evaluator.Long:
		return c.MildLong
	case eval.Confidence >= 62:
		return c.MildShort
	default:
		return c.Conflicting
	}
}

// Calibrate replays RSI/EMA entry setups over a daily close series with
// a 7-day lookforward and measures the hit rate per tier. Needs at
// least 50 samples; each empty tier keeps its default.
func Calibrate(prices []float64) Calibration {
	if len(prices) < 50 {
		return DefaultCalibration()
	}

	type bucket struct{ wins, total int }
	var strongLong, strongShort, mildLong, mildShort, conflicting bucket

	for i := 30; i < len(prices)-7; i++ {
		window := prices[:i+1]

		rsi := indicators.RSI(window, 14)
		ema12 := indicators.EMA(window, 12)
		ema26 := indicators.EMA(window, 26)

		entry := prices[i]
		future := prices[i+1 : i+8]
		futureHigh, futureLow := future[0], future[0]
		for _, p := range future {
			if p > futureHigh {
				futureHigh = p
			}
			if p < futureLow {
				futureLow = p
			}
		}

		switch {
		case rsi < 30 && ema12 > ema26:
			strongLong.total++
			if futureHigh > entry*1.03 {
				strongLong.wins++
			}
		case rsi > 70 && ema12 < ema26:
			strongShort.total++
			if futureLow < entry*0.97 {
				strongShort.wins++
			}
		case rsi < 40 && ema12 > ema26:
			mildLong.total++
			if futureHigh > entry*1.02 {
				mildLong.wins++
			}
		case rsi > 60 && ema12 < ema26:
			mildShort.total++
			if futureLow < entry*0.98 {
				mildShort.wins++
			}
		default:
			conflicting.total++
			if ema12 > ema26 {
				if futureHigh > entry*1.02 {
					conflicting.wins++
				}
			} else if futureLow < entry*0.98 {
				conflicting.wins++
			}
		}
	}

	rate := func(b bucket, def int) int {
		if b.total == 0 {
			return def
		}
		return int(math.Round(float64(b.wins) / float64(b.total) * 100))
	}

	def := DefaultCalibration()
	return Calibration{
		StrongLong:  rate(strongLong, def.StrongLong),
		StrongShort: rate(strongShort, def.StrongShort),
		MildLong:    rate(mildLong, def.MildLong),
		MildShort:   rate(mildShort, def.MildShort),
		Conflicting: rate(conflicting, def.Conflicting),
	}
}
