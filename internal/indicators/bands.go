package indicators

import "math"

// Bands holds the Bollinger band levels around the period SMA.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes the period SMA and bands at plus/minus two
// population standard deviations.
func BollingerBands(prices []float64, period int) Bands {
	recent := prices
	if len(recent) > period {
		recent = recent[len(recent)-period:]
	}
	var sum float64
	for _, p := range recent {
		sum += p
	}
	middle := sum / float64(period)

	var variance float64
	for _, p := range recent {
		d := p - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))

	return Bands{
		Upper:  middle + stdDev*2,
		Middle: middle,
		Lower:  middle - stdDev*2,
	}
}
