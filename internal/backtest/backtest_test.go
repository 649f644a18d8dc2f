package backtest

import (
	"math"
	"math/rand"
	"testing"

	"signalbot/internal/evaluator"
)

func TestSyntheticExtremes(t *testing.T) {
	t.Run("perfect win rate", func(t *testing.T) {
		r := Synthetic(100, 5, rand.New(rand.NewSource(1)))
		if r.WinningTrades != 100 || r.LosingTrades != 0 {
			t.Fatalf("wins/losses = %d/%d, want 100/0", r.WinningTrades, r.LosingTrades)
		}
		if r.WinRate != 100 {
			t.Errorf("winRate = %v, want 100", r.WinRate)
		}
		if r.FinalBalance <= r.InitialBalance {
			t.Errorf("final balance %v did not grow from %v", r.FinalBalance, r.InitialBalance)
		}
		if r.MaxDrawdown != 0 {
			t.Errorf("maxDrawdown = %v, want 0 on an all-win walk", r.MaxDrawdown)
		}
		if r.ProfitFactor != 0 {
			t.Errorf("profitFactor = %v, want 0 when no losses occurred", r.ProfitFactor)
		}
	})

	t.Run("zero win rate", func(t *testing.T) {
		r := Synthetic(0, 5, rand.New(rand.NewSource(1)))
		if r.WinningTrades != 0 || r.LosingTrades != 100 {
			t.Fatalf("wins/losses = %d/%d, want 0/100", r.WinningTrades, r.LosingTrades)
		}
		if r.FinalBalance >= r.InitialBalance {
			t.Errorf("final balance %v did not shrink from %v", r.FinalBalance, r.InitialBalance)
		}
		if r.FinalBalance <= 0 {
			t.Errorf("compounding losses cannot cross zero, got %v", r.FinalBalance)
		}
		if r.MaxDrawdown <= 0 {
			t.Errorf("maxDrawdown = %v, want > 0", r.MaxDrawdown)
		}
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		a := Synthetic(60, 3, rand.New(rand.NewSource(42)))
		b := Synthetic(60, 3, rand.New(rand.NewSource(42)))
		if a.FinalBalance != b.FinalBalance || a.WinningTrades != b.WinningTrades {
			t.Errorf("same seed diverged: %+v vs %+v", a, b)
		}
	})

	t.Run("trade count always 100", func(t *testing.T) {
		r := Synthetic(55, 10, rand.New(rand.NewSource(7)))
		if r.TotalTrades != 100 || r.WinningTrades+r.LosingTrades != 100 {
			t.Errorf("trades = %+v, want exactly 100", r)
		}
	})
}

func TestCalibration(t *testing.T) {
	t.Run("short history falls back to defaults", func(t *testing.T) {
		got := Calibrate(make([]float64, 30))
		if got != DefaultCalibration() {
			t.Errorf("calibration = %+v, want defaults", got)
		}
	})

	t.Run("rates stay within percent bounds", func(t *testing.T) {
		prices := make([]float64, 200)
		for i := range prices {
			prices[i] = 100 + 20*math.Sin(float64(i)/5)
		}
		got := Calibrate(prices)
		for _, v := range []int{got.StrongLong, got.StrongShort, got.MildLong, got.MildShort, got.Conflicting} {
			if v < 0 || v > 100 {
				t.Errorf("rate %d outside [0,100] in %+v", v, got)
			}
		}
	})
}

func TestCalibrationBand(t *testing.T) {
	cal := Calibration{StrongLong: 90, StrongShort: 85, MildLong: 70, MildShort: 65, Conflicting: 40}

	cases := []struct {
		eval evaluator.Evaluation
		want int
	}{
		{evaluator.Evaluation{Confidence: 76, Direction: evaluator.Long}, 90},
		{evaluator.Evaluation{Confidence: 75, Direction: evaluator.Short}, 85},
		{evaluator.Evaluation{Confidence: 65, Direction: evaluator.Long}, 70},
		{evaluator.Evaluation{Confidence: 62, Direction: evaluator.Short}, 65},
		{evaluator.Evaluation{Confidence: 58, Direction: evaluator.Long}, 40},
		{evaluator.Evaluation{Confidence: 55, Direction: evaluator.Short}, 40},
	}
	for _, tc := range cases {
		if got := cal.Band(tc.eval); got != tc.want {
			t.Errorf("Band(%+v) = %d, want %d", tc.eval, got, tc.want)
		}
	}
}

// alwaysLong enters on every bar with a fixed confidence.
type alwaysLong struct{ confidence int }

func (alwaysLong) Name() string    { return "always-long" }
func (alwaysLong) MinSamples() int { return 0 }
func (a alwaysLong) Evaluate([]float64) evaluator.Evaluation {
	return evaluator.Evaluation{Confidence: a.confidence, Direction: evaluator.Long}
}

func TestReplay(t *testing.T) {
	t.Run("too little history yields an empty run", func(t *testing.T) {
		r := Replay(make([]float64, 40), alwaysLong{confidence: 80}, 5, 10)
		if r.TotalTrades != 0 || r.FinalBalance != r.InitialBalance {
			t.Errorf("empty run expected, got %+v", r)
		}
	})

	t.Run("below-threshold confidence never trades", func(t *testing.T) {
		prices := make([]float64, 120)
		for i := range prices {
			prices[i] = 100 + float64(i)
		}
		r := Replay(prices, alwaysLong{confidence: 61}, 5, 10)
		if r.TotalTrades != 0 {
			t.Errorf("trades = %d, want 0 at the entry threshold", r.TotalTrades)
		}
	})

	t.Run("steady uptrend wins long trades", func(t *testing.T) {
		prices := make([]float64, 200)
		for i := range prices {
			prices[i] = 100 * math.Pow(1.01, float64(i))
		}
		r := Replay(prices, alwaysLong{confidence: 70}, 5, 10)
		if r.TotalTrades == 0 {
			t.Fatal("expected trades on a long uptrend")
		}
		if r.LosingTrades != 0 {
			t.Errorf("losses = %d on a monotone uptrend, want 0", r.LosingTrades)
		}
		if r.FinalBalance <= r.InitialBalance {
			t.Errorf("balance did not grow: %+v", r)
		}
		if len(r.Trades) == 0 || len(r.Trades) > 10 {
			t.Errorf("trade sample size = %d, want 1..10", len(r.Trades))
		}
		for _, tr := range r.Trades {
			if tr.Type != "LONG" {
				t.Errorf("trade type = %s, want LONG", tr.Type)
			}
			if tr.PnlPercentage <= 0 {
				t.Errorf("uptrend trade pnl = %v, want > 0", tr.PnlPercentage)
			}
		}
	})

	t.Run("crash hits the stop loss", func(t *testing.T) {
		prices := make([]float64, 150)
		for i := range prices {
			prices[i] = 1000 * math.Pow(0.98, float64(i))
		}
		r := Replay(prices, alwaysLong{confidence: 70}, 5, 10)
		if r.TotalTrades == 0 {
			t.Fatal("expected trades")
		}
		if r.WinningTrades != 0 {
			t.Errorf("wins = %d on a monotone crash with long entries, want 0", r.WinningTrades)
		}
		if r.FinalBalance >= r.InitialBalance {
			t.Errorf("balance did not shrink: %+v", r)
		}
	})
}
