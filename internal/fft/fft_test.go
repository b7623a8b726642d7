// SPDX-License-Identifier: MIT
package fft

import (
	"math"
	"testing"

	"github.com/atici/MicMonitor/internal/transport"
	"github.com/atici/MicMonitor/pkg/sigtest"
)

const (
	testFFTSize    = 256
	testSampleRate = 48000.0
)

// captureTransport records the last sent frame for inspection.
type captureTransport struct {
	last any
}

func (c *captureTransport) Send(data any) error {
	c.last = data
	return nil
}

func (c *captureTransport) Close() error { return nil }

func TestNewProcessorRejectsNonPowerOfTwo(t *testing.T) {
	for _, size := range []int{0, -8, 100, 257} {
		if _, err := NewProcessor(size, testSampleRate, nil); err == nil {
			t.Errorf("NewProcessor(%d) should fail", size)
		}
	}
}

func TestProcessFindsSinePeak(t *testing.T) {
	p, err := NewProcessor(testFFTSize, testSampleRate, nil)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}

	// 1500Hz sits near bin 8 at 48kHz/256 (187.5Hz resolution).
	freq := 1500.0
	p.Process(sigtest.Sine(testFFTSize, testSampleRate, freq, 0.8))

	mags := p.Magnitudes()
	peakBin := 0
	for i := 1; i < len(mags); i++ {
		if mags[i] > mags[peakBin] {
			peakBin = i
		}
	}

	resolution := testSampleRate / testFFTSize
	if got := p.FrequencyBin(peakBin); math.Abs(got-freq) > resolution {
		t.Errorf("peak at %g Hz (bin %d), want within %g Hz of %g", got, peakBin, resolution, freq)
	}
}

func TestProcessZeroPadsShortInput(t *testing.T) {
	p, err := NewProcessor(testFFTSize, testSampleRate, nil)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}

	p.Process(sigtest.Constant(testFFTSize/2, 0.5))
	for _, m := range p.Magnitudes() {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			t.Fatal("non-finite magnitude from zero-padded input")
		}
	}
}

func TestProcessPublishesSpectrumFrame(t *testing.T) {
	tr := &captureTransport{}
	p, err := NewProcessor(testFFTSize, testSampleRate, tr)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}

	p.Process(sigtest.Sine(testFFTSize, testSampleRate, 440, 0.5))

	frame, ok := tr.last.(*transport.SpectrumFrame)
	if !ok {
		t.Fatalf("sent %T, want *transport.SpectrumFrame", tr.last)
	}
	if frame.Type != "spectrum" {
		t.Errorf("frame type = %q, want spectrum", frame.Type)
	}
	if len(frame.Magnitudes) != testFFTSize/2+1 {
		t.Errorf("magnitudes length = %d, want %d", len(frame.Magnitudes), testFFTSize/2+1)
	}
}

func TestFrequencyBinBounds(t *testing.T) {
	p, err := NewProcessor(testFFTSize, testSampleRate, nil)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}
	if got := p.FrequencyBin(-1); got != 0 {
		t.Errorf("FrequencyBin(-1) = %g, want 0", got)
	}
	if got := p.FrequencyBin(testFFTSize); got != 0 {
		t.Errorf("FrequencyBin(out of range) = %g, want 0", got)
	}
	nyquist := p.FrequencyBin(testFFTSize / 2)
	if math.Abs(nyquist-testSampleRate/2) > 1e-9 {
		t.Errorf("Nyquist bin = %g, want %g", nyquist, testSampleRate/2)
	}
}

func TestProcessHotPath(t *testing.T) {
	p, err := NewProcessor(testFFTSize, testSampleRate, nil)
	if err != nil {
		t.Fatalf("NewProcessor error: %v", err)
	}
	in := sigtest.Sine(testFFTSize, testSampleRate, 440, 0.5)

	// Warm-up call, then Process must not allocate.
	p.Process(in)
	allocs := testing.AllocsPerRun(100, func() {
		p.Process(in)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Process hot path, got %.1f", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	p, err := NewProcessor(testFFTSize, testSampleRate, nil)
	if err != nil {
		b.Fatal(err)
	}
	in := sigtest.Sine(testFFTSize, testSampleRate, 440, 0.5)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p.Process(in)
	}
}
