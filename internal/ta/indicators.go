package ta

import "math"

// Bands is the result of a volatility band calculation.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// SMA is the arithmetic mean of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period < 1 || len(values) < period {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA seeds with the mean of the first period values and then applies the
// smoothing recurrence over every remaining value, so the result depends on
// the whole slice, not only its tail. Callers comparing EMA across batches
// must supply windows of the same length.
func EMA(values []float64, period int) (float64, bool) {
	if period < 1 || len(values) < period {
		return 0, false
	}
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	k := 2.0 / float64(period+1)
	for _, v := range values[period:] {
		ema = (v-ema)*k + ema
	}
	return ema, true
}

// RSI averages gains and losses over the last period close-to-close moves.
// A window without losses reads 100.
func RSI(values []float64, period int) (float64, bool) {
	if period < 1 || len(values) < period+1 {
		return 0, false
	}
	var gainSum, lossSum float64
	for i := len(values) - period; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	return rsiFromAvg(avgGain, avgLoss), true
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Bollinger computes bands of stdDevs population standard deviations around
// the period SMA.
func Bollinger(values []float64, period int, stdDevs float64) (Bands, bool) {
	middle, ok := SMA(values, period)
	if !ok {
		return Bands{}, false
	}
	_, std := MeanStd(values[len(values)-period:])
	offset := stdDevs * std
	b := Bands{
		Upper:  middle + offset,
		Middle: middle,
		Lower:  middle - offset,
	}
	if middle != 0 {
		b.Width = (offset * 2) / middle * 100
	}
	return b, true
}
