// Package sigtest provides deterministic float32 test signals for the gate,
// engine, and spectrum tests.
package sigtest

import "math"

// Sine generates a sine wave block at the given frequency and amplitude.
func Sine(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// Constant generates a block of identical samples. Its RMS equals the
// absolute sample value, which makes threshold tests exact.
func Constant(size int, value float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = float32(value)
	}
	return buffer
}

// Silence generates an all-zero block.
func Silence(size int) []float32 {
	return make([]float32, size)
}

// RMS computes the root-mean-square of a block in float64, matching the
// gate's energy measurement.
func RMS(buffer []float32) float64 {
	if len(buffer) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buffer {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(buffer)))
}
