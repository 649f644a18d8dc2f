package indicators

import (
	"math"
	"testing"
)

func rampSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRSI(t *testing.T) {
	t.Run("short series is neutral", func(t *testing.T) {
		if got := RSI(rampSeries(10, 100, 1), 14); got != 50 {
			t.Errorf("RSI = %v, want 50", got)
		}
	})

	t.Run("loss-free series saturates to 100", func(t *testing.T) {
		got := RSI(rampSeries(20, 100, 1), 14)
		if got != 100 {
			t.Errorf("RSI = %v, want 100", got)
		}
	})

	t.Run("gain-free series reads 0", func(t *testing.T) {
		got := RSI(rampSeries(20, 100, -1), 14)
		if got != 0 {
			t.Errorf("RSI = %v, want 0", got)
		}
	})

	t.Run("alternating moves stay midrange", func(t *testing.T) {
		prices := make([]float64, 30)
		for i := range prices {
			prices[i] = 100 + float64(i%2)
		}
		got := RSI(prices, 14)
		if got < 40 || got > 60 {
			t.Errorf("RSI = %v, want midrange", got)
		}
	})
}

func TestEMA(t *testing.T) {
	t.Run("empty series reads zero", func(t *testing.T) {
		if got := EMA(nil, 14); got != 0 {
			t.Errorf("EMA = %v, want 0", got)
		}
	})

	t.Run("short series returns last price", func(t *testing.T) {
		if got := EMA([]float64{1, 2, 3}, 10); got != 3 {
			t.Errorf("EMA = %v, want 3", got)
		}
	})

	t.Run("constant series equals the constant", func(t *testing.T) {
		got := EMA(constSeries(50, 42.5), 20)
		if math.Abs(got-42.5) > 1e-9 {
			t.Errorf("EMA = %v, want 42.5", got)
		}
	})

	t.Run("rising series trails the last price", func(t *testing.T) {
		prices := rampSeries(60, 100, 1)
		got := EMA(prices, 20)
		last := prices[len(prices)-1]
		if got >= last || got <= prices[len(prices)-21] {
			t.Errorf("EMA = %v, want between window start and %v", got, last)
		}
	})
}

func TestMACD(t *testing.T) {
	t.Run("empty series is flat", func(t *testing.T) {
		r := MACD(nil)
		if r.MACD != 0 {
			t.Errorf("MACD = %v, want 0", r.MACD)
		}
	})

	t.Run("histogram is macd minus signal", func(t *testing.T) {
		r := MACD(rampSeries(60, 100, 0.5))
		if math.Abs(r.Histogram-(r.MACD-r.Signal)) > 1e-9 {
			t.Errorf("histogram = %v, want %v", r.Histogram, r.MACD-r.Signal)
		}
	})

	t.Run("constant series is flat", func(t *testing.T) {
		r := MACD(constSeries(60, 100))
		if math.Abs(r.MACD) > 1e-9 {
			t.Errorf("MACD = %v, want 0", r.MACD)
		}
	})

	t.Run("uptrend has positive macd line", func(t *testing.T) {
		r := MACD(rampSeries(60, 100, 2))
		if r.MACD <= 0 {
			t.Errorf("MACD = %v, want > 0 on an uptrend", r.MACD)
		}
	})
}

func TestBollingerBands(t *testing.T) {
	t.Run("constant series collapses the bands", func(t *testing.T) {
		b := BollingerBands(constSeries(40, 100), 20)
		if b.Upper != 100 || b.Middle != 100 || b.Lower != 100 {
			t.Errorf("bands = %+v, want all 100", b)
		}
	})

	t.Run("bands are symmetric around the mean", func(t *testing.T) {
		b := BollingerBands(rampSeries(40, 100, 1), 20)
		if math.Abs((b.Upper-b.Middle)-(b.Middle-b.Lower)) > 1e-9 {
			t.Errorf("asymmetric bands: %+v", b)
		}
		if b.Upper <= b.Middle || b.Lower >= b.Middle {
			t.Errorf("band ordering broken: %+v", b)
		}
	})
}

func TestStochastic(t *testing.T) {
	t.Run("empty series is neutral", func(t *testing.T) {
		if got := Stochastic(nil, 14); got != 50 {
			t.Errorf("%%K = %v, want 50", got)
		}
	})

	t.Run("flat window is neutral", func(t *testing.T) {
		if got := Stochastic(constSeries(20, 55), 14); got != 50 {
			t.Errorf("%%K = %v, want 50", got)
		}
	})

	t.Run("close at window high reads 100", func(t *testing.T) {
		if got := Stochastic(rampSeries(20, 100, 1), 14); got != 100 {
			t.Errorf("%%K = %v, want 100", got)
		}
	})

	t.Run("close at window low reads 0", func(t *testing.T) {
		if got := Stochastic(rampSeries(20, 100, -1), 14); got != 0 {
			t.Errorf("%%K = %v, want 0", got)
		}
	})
}

func TestADX(t *testing.T) {
	t.Run("short series is neutral", func(t *testing.T) {
		if got := ADX(rampSeries(10, 100, 1), 14); got != 50 {
			t.Errorf("ADX = %v, want 50", got)
		}
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		if got := ADX(constSeries(30, 100), 14); got != 50 {
			t.Errorf("ADX = %v, want 50", got)
		}
	})

	t.Run("one-way trend reads strong but clamped", func(t *testing.T) {
		got := ADX(rampSeries(30, 100, 1), 14)
		if got <= 50 || got > 80 {
			t.Errorf("ADX = %v, want in (50, 80]", got)
		}
	})

	t.Run("range respected on mixed series", func(t *testing.T) {
		prices := make([]float64, 30)
		for i := range prices {
			prices[i] = 100 + float64(i%3)
		}
		got := ADX(prices, 14)
		if got < 20 || got > 80 {
			t.Errorf("ADX = %v, want within [20, 80]", got)
		}
	})
}
