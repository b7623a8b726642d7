// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by NewGateConfig when a setting would make
// the envelope recursion undefined or unstable.
var ErrInvalidConfig = errors.New("invalid gate config")

const (
	// kneeExponent shapes the attenuation curve below threshold. The
	// exponent < 1 attenuates quickly just under the threshold and levels
	// off at low signal levels.
	kneeExponent = 0.1

	// minGateGain is the floor of the gate gain. The gate never fully
	// mutes; closing all the way to zero causes audible artifacts and
	// slows the envelope reopening.
	minGateGain = 0.01

	// Output trim limits in dB. Values outside are clamped, not rejected.
	minVolumeDB = -60.0
	maxVolumeDB = 12.0
)

// GateSettings holds the raw user-facing gate parameters before derivation.
type GateSettings struct {
	ThresholdDB float64 // Gate opens above this level
	BlockSize   int     // Samples per processing block
	SampleRate  int     // Hz
	AttackTime  float64 // Seconds; envelope rise time constant
	ReleaseTime float64 // Seconds; envelope fall time constant
	VolumeDB    float64 // Output trim, clamped to [-60, +12]
}

// GateConfig holds the derived gate parameters. It is computed once at
// session setup and never mutated afterwards, so it may be shared read-only
// across goroutines without synchronization.
type GateConfig struct {
	SampleRate int
	BlockSize  int

	ThresholdDB        float64
	ThresholdAmplitude float64 // 10^(ThresholdDB/20), linear, comparable to RMS

	// One-pole time constants: coef = exp(-1/(sampleRate*time)).
	// Closer to 0 means the envelope reaches its target faster.
	AttackCoef  float64
	ReleaseCoef float64

	VolumeDB     float64 // Clamped
	VolumeLinear float64 // 10^(VolumeDB/20)
}

// NewGateConfig derives the runtime gate parameters from raw settings.
// All derivation happens in float64 once, up front; the per-block hot path
// only ever multiplies by the cached results.
func NewGateConfig(s GateSettings) (*GateConfig, error) {
	if s.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, s.SampleRate)
	}
	if s.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, s.BlockSize)
	}
	if s.AttackTime <= 0 {
		return nil, fmt.Errorf("%w: attack time must be positive, got %g", ErrInvalidConfig, s.AttackTime)
	}
	if s.ReleaseTime <= 0 {
		return nil, fmt.Errorf("%w: release time must be positive, got %g", ErrInvalidConfig, s.ReleaseTime)
	}

	volumeDB := math.Min(math.Max(s.VolumeDB, minVolumeDB), maxVolumeDB)
	rate := float64(s.SampleRate)

	return &GateConfig{
		SampleRate:         s.SampleRate,
		BlockSize:          s.BlockSize,
		ThresholdDB:        s.ThresholdDB,
		ThresholdAmplitude: math.Pow(10, s.ThresholdDB/20),
		AttackCoef:         math.Exp(-1 / (rate * s.AttackTime)),
		ReleaseCoef:        math.Exp(-1 / (rate * s.ReleaseTime)),
		VolumeDB:           volumeDB,
		VolumeLinear:       math.Pow(10, volumeDB/20),
	}, nil
}

// Latency returns the delay introduced by block-level RMS detection.
func (c *GateConfig) Latency() float64 {
	return float64(c.BlockSize) / float64(c.SampleRate)
}

// EnvelopeGate is a soft-knee noise gate with an asymmetric one-pole
// envelope applied to the gain trajectory. One instance owns one piece of
// mutable state, the current smoothed gain, which survives across blocks.
//
// ProcessBlock must only be called from one goroutine at a time per
// instance; PortAudio's callback thread satisfies this.
type EnvelopeGate struct {
	cfg *GateConfig

	// currentGain is the only mutable field, written exactly once per
	// ProcessBlock call. It approaches the per-block target gain
	// exponentially and never jumps.
	currentGain float64
}

// NewEnvelopeGate creates a gate for one audio session. The gate starts
// fully open so a session never begins with a muted input.
func NewEnvelopeGate(cfg *GateConfig) *EnvelopeGate {
	return &EnvelopeGate{cfg: cfg, currentGain: 1.0}
}

// CurrentGain returns the smoothed gate gain after the last processed block.
func (g *EnvelopeGate) CurrentGain() float64 {
	return g.currentGain
}

// Config returns the derived parameters this gate was built with.
func (g *EnvelopeGate) Config() *GateConfig {
	return g.cfg
}

// ProcessBlock runs the gate over one block of single-channel samples and
// writes the result to out. It returns the measured block RMS so callers
// can drive metering without re-scanning the buffer.
//
// Performance Critical (Hot Path):
// - No allocations, locks, or syscalls
// - float64 accumulation, single float32 multiply per sample
// - Runs on the real-time audio callback thread once per block
//
// The caller guarantees len(in) == len(out) == GateConfig.BlockSize.
func (g *EnvelopeGate) ProcessBlock(in, out []float32) float64 {
	// Block energy. RMS over the whole block trades a little latency
	// (BlockSize/SampleRate) for gating decisions that ignore
	// single-sample transients.
	var sumSquares float64
	for _, s := range in {
		f := float64(s)
		sumSquares += f * f
	}
	rms := math.Sqrt(sumSquares / float64(len(in)))

	// Soft-knee target: fully open above threshold, a concave curve down
	// to the gain floor below it. Never exactly zero.
	targetGain := 1.0
	if rms <= g.cfg.ThresholdAmplitude {
		targetGain = math.Pow(rms/g.cfg.ThresholdAmplitude, kneeExponent)
		if targetGain < minGateGain {
			targetGain = minGateGain
		}
	}

	// Asymmetric envelope: fast attack so speech onsets are not clipped,
	// slow release so noise bursts do not pump the gate.
	coef := g.cfg.ReleaseCoef
	if targetGain > g.currentGain {
		coef = g.cfg.AttackCoef
	}
	g.currentGain += (targetGain - g.currentGain) * (1 - coef)

	// Uniform gain within the block; no intra-block modulation.
	gain := float32(g.currentGain * g.cfg.VolumeLinear)
	for i, s := range in {
		out[i] = s * gain
	}

	return rms
}
