// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/atici/MicMonitor/internal/transport"
	"github.com/atici/MicMonitor/pkg/bitint"
)

// workspace holds pre-allocated buffers for FFT calculations.
type workspace struct {
	input     []float64    // windowed input samples
	fftOutput []complex128 // FFT complex output
	magnitude []float64    // magnitude output
	window    []float64    // Hann window coefficients
}

// Processor computes block spectra for the telemetry view. All buffers are
// allocated at construction; Process performs no allocations and may run on
// the audio callback thread.
type Processor struct {
	fftSize    int
	sampleRate float64
	workspace  workspace
	fftObj     *fourier.FFT
	tr         transport.Transport
	frame      transport.SpectrumFrame
}

// NewProcessor creates a spectrum processor for blocks of fftSize samples.
// fftSize must be a power of two; tr may be nil to compute without
// publishing.
func NewProcessor(fftSize int, sampleRate float64, tr transport.Transport) (*Processor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("FFT size must be a power of 2, got %d", fftSize)
	}

	window := make([]float64, fftSize)
	for i := 0; i < fftSize; i++ {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	outputSize := fftSize/2 + 1
	magnitude := make([]float64, outputSize)

	return &Processor{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(fftSize),
		tr:         tr,
		frame:      transport.SpectrumFrame{Type: "spectrum", Magnitudes: magnitude},
		workspace: workspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, outputSize),
			magnitude: magnitude,
			window:    window,
		},
	}, nil
}

// Process performs FFT analysis on one block of samples after applying a
// Hann window and publishes the magnitudes. The input is expected to hold
// fftSize samples; shorter input is zero padded.
func (p *Processor) Process(in []float32) {
	for i := 0; i < p.fftSize; i++ {
		if i < len(in) {
			p.workspace.input[i] = float64(in[i]) * p.workspace.window[i]
		} else {
			p.workspace.input[i] = 0
		}
	}

	_ = p.fftObj.Coefficients(p.workspace.fftOutput, p.workspace.input)
	for i := range p.workspace.fftOutput {
		p.workspace.magnitude[i] = cmplx.Abs(p.workspace.fftOutput[i])
	}

	if p.tr != nil {
		_ = p.tr.Send(&p.frame)
	}
}

// Magnitudes returns the magnitude buffer of the last processed block.
func (p *Processor) Magnitudes() []float64 {
	return p.workspace.magnitude
}

// FrequencyBin returns the frequency in Hz for a given FFT bin index.
func (p *Processor) FrequencyBin(i int) float64 {
	if i < 0 || i >= len(p.workspace.fftOutput) {
		return 0
	}
	return p.fftObj.Freq(i) * p.sampleRate
}
