// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time noise gate session:
- Soft-knee gate with asymmetric envelope smoothing (gate.go)
- Duplex low-latency capture/playback via PortAudio (engine.go)
- Device enumeration and selection (devices.go)

Thread Safety:
- The PortAudio callback is the only writer of gate state
- Level snapshots cross to the UI through atomics
- All buffers are pre-allocated; the hot path never allocates
*/
package audio

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/atici/MicMonitor/internal/config"
	"github.com/atici/MicMonitor/internal/fft"
	"github.com/atici/MicMonitor/internal/transport"
	"github.com/atici/MicMonitor/pkg/bitint"
)

// silenceFloorDB caps how far down reported levels go; an all-zero block
// would otherwise produce -Inf, which JSON cannot carry.
const silenceFloorDB = -120.0

// Levels is a snapshot of the gate state after the last processed block.
type Levels struct {
	RMS      float64 // Linear block RMS
	Gain     float64 // Smoothed gate gain, before output trim
	GateOpen bool    // RMS above threshold on the last block
}

// Engine owns one duplex audio session: it opens a single-channel
// input+output stream and runs the envelope gate once per delivered block.
type Engine struct {
	cfg     *config.Config
	gateCfg *GateConfig
	gate    *EnvelopeGate

	inputDevice   *portaudio.DeviceInfo
	outputDevice  *portaudio.DeviceInfo
	inputLatency  time.Duration
	outputLatency time.Duration
	stream        *portaudio.Stream

	// Spectrum telemetry; nil when disabled or the block size is not a
	// power of two.
	spectrum *fft.Processor

	telemetry transport.Transport
	frame     transport.StatusFrame

	// Level snapshot for the TUI, written by the callback thread.
	lastRMS  atomic.Uint64 // math.Float64bits
	lastGain atomic.Uint64
}

// NewEngine resolves devices, derives the gate parameters, and pre-allocates
// the session. PortAudio must be initialized first. A GateSettings error
// (wrapping ErrInvalidConfig) means the settings must be corrected before a
// session can start.
func NewEngine(cfg *config.Config) (*Engine, error) {
	gateCfg, err := NewGateConfig(GateSettings{
		ThresholdDB: cfg.ThresholdDB(),
		BlockSize:   cfg.BlockSize(),
		SampleRate:  cfg.Audio.SampleRate,
		AttackTime:  cfg.Gate.AttackTime,
		ReleaseTime: cfg.Gate.ReleaseTime,
		VolumeDB:    cfg.VolumeDB(),
	})
	if err != nil {
		return nil, err
	}

	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	outputDevice, err := OutputDevice(cfg.Audio.OutputDevice)
	if err != nil {
		return nil, err
	}

	var tele transport.Transport = transport.NewLoggingTransport()
	if cfg.Telemetry.Enabled {
		tele = transport.NewWebSocketTransport(cfg.Telemetry.Port, cfg.Telemetry.SendInterval)
	}

	e := &Engine{
		cfg:          cfg,
		gateCfg:      gateCfg,
		gate:         NewEnvelopeGate(gateCfg),
		inputDevice:  inputDevice,
		outputDevice: outputDevice,
		telemetry:    tele,
		frame:        transport.StatusFrame{Type: "status"},
	}
	e.lastGain.Store(math.Float64bits(1.0))

	// The spectrum view rides on the gate blocks, so it only exists for
	// power-of-two block sizes.
	if cfg.Telemetry.Enabled && bitint.IsPowerOfTwo(gateCfg.BlockSize) {
		proc, err := fft.NewProcessor(gateCfg.BlockSize, float64(gateCfg.SampleRate), nil)
		if err != nil {
			return nil, err
		}
		e.spectrum = proc
	}

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
		e.outputLatency = outputDevice.DefaultLowOutputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
		e.outputLatency = outputDevice.DefaultHighOutputLatency
	}

	return e, nil
}

// GateConfig returns the derived gate parameters for this session.
func (e *Engine) GateConfig() *GateConfig {
	return e.gateCfg
}

// Start opens the duplex stream and begins real-time processing. From the
// first callback on, processStream runs on PortAudio's audio thread.
func (e *Engine) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   e.outputDevice,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.gateCfg.BlockSize,
		SampleRate:      float64(e.gateCfg.SampleRate),
	}

	stream, err := portaudio.OpenStream(params, e.processStream)
	if err != nil {
		return err
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		e.stream = nil
		return err
	}

	return nil
}

// Stop stops and closes the stream. Safe to call when not started.
func (e *Engine) Stop() error {
	if e.stream == nil {
		return nil
	}
	if err := e.stream.Stop(); err != nil {
		return err
	}
	if err := e.stream.Close(); err != nil {
		return err
	}
	e.stream = nil
	return nil
}

// Close stops the stream and shuts down telemetry.
func (e *Engine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}
	return e.telemetry.Close()
}

// Levels returns the level snapshot of the most recently processed block.
// Safe to call from any goroutine.
func (e *Engine) Levels() Levels {
	rms := math.Float64frombits(e.lastRMS.Load())
	return Levels{
		RMS:      rms,
		Gain:     math.Float64frombits(e.lastGain.Load()),
		GateOpen: rms > e.gateCfg.ThresholdAmplitude,
	}
}

// processStream is the real-time audio callback.
// Performance Critical:
// - Runs on a dedicated OS thread once per block
// - Pre-allocated buffers only, no allocations
// - Telemetry sends are rate limited and drop rather than block
func (e *Engine) processStream(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	rms := e.gate.ProcessBlock(in, out)
	gain := e.gate.CurrentGain()

	e.lastRMS.Store(math.Float64bits(rms))
	e.lastGain.Store(math.Float64bits(gain))

	open := rms > e.gateCfg.ThresholdAmplitude

	e.frame.RMSDB = dbfs(rms)
	e.frame.GainDB = dbfs(gain)
	e.frame.GateOpen = open
	e.frame.Spectrum = nil
	if open && e.spectrum != nil {
		e.spectrum.Process(in)
		e.frame.Spectrum = e.spectrum.Magnitudes()
	}
	_ = e.telemetry.Send(&e.frame)
}

// dbfs converts a linear level to dB, floored for silence.
func dbfs(v float64) float64 {
	if v <= 0 {
		return silenceFloorDB
	}
	db := 20 * math.Log10(v)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}
