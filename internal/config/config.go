package config

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Core configuration constants that define the boundaries and defaults
// for the gate session.
const (
	DefaultPreset        = "balanced" // Recommended latency/stability trade-off
	DefaultSampleRate    = 48000      // Hz
	DefaultAttackTime    = 0.0005     // Seconds; fast gate opening
	DefaultReleaseTime   = 0.02       // Seconds; slow gate closing
	DefaultVolumePercent = 100.0      // 100% = 0 dB output trim
	DefaultLowLatency    = true       // Request low-latency device mode
	DefaultTelemetryPort = "8080"     // WebSocket monitor port

	// Hardware and input limits
	MinDeviceID      = -1     // -1 selects the system default device
	MinSampleRate    = 8000   // Hz
	MaxSampleRate    = 192000 // Hz
	MaxBlockSize     = 8192   // Samples
	MinVolumePercent = 1.0
	MaxVolumePercent = 200.0
)

// Preset bundles a block size and threshold tuned for one latency profile.
type Preset struct {
	Name        string
	Description string
	BlockSize   int
	ThresholdDB float64
}

// presets maps the selectable latency profiles. Block sizes are powers of
// two so the spectrum analyzer can run on the same blocks.
var presets = map[string]Preset{
	"ultra":    {"ultra", "Ultra-low (~0.67ms) - May be unstable", 32, -25},
	"minimum":  {"minimum", "Minimum latency (~1.3ms)", 64, -25},
	"balanced": {"balanced", "Balanced (~2.7ms) - Recommended", 128, -25},
	"stable":   {"stable", "Stable (~5.3ms)", 256, -25},
}

// LookupPreset returns the preset for name, or false if it does not exist.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets returns all latency profiles ordered by block size.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockSize < out[j].BlockSize })
	return out
}

// AudioConfig holds device and stream settings.
type AudioConfig struct {
	InputDevice  int  `yaml:"input_device"`  // PortAudio device index (-1 for default)
	OutputDevice int  `yaml:"output_device"` // PortAudio device index (-1 for default)
	SampleRate   int  `yaml:"sample_rate"`   // Hz
	LowLatency   bool `yaml:"low_latency"`   // Request low-latency stream mode
}

// GateConfig holds the user-facing gate settings. BlockSize and ThresholdDB
// default from the selected preset and may be overridden individually.
type GateConfig struct {
	Preset      string  `yaml:"preset"`
	BlockSize   int     `yaml:"block_size,omitempty"`   // 0 means use the preset value
	ThresholdDB float64 `yaml:"threshold_db,omitempty"` // 0 means use the preset value
	AttackTime  float64 `yaml:"attack_time"`
	ReleaseTime float64 `yaml:"release_time"`
}

// TelemetryConfig holds settings for the WebSocket level/spectrum monitor.
type TelemetryConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Port         string        `yaml:"port"`
	SendInterval time.Duration `yaml:"send_interval"`
}

// Config holds all runtime configuration. It is assembled from defaults, an
// optional YAML file, and command line flags, in that order. The file is
// only ever read; settings are never written back.
type Config struct {
	LogLevel      string          `yaml:"log_level"`
	Audio         AudioConfig     `yaml:"audio"`
	Gate          GateConfig      `yaml:"gate"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	VolumePercent float64         `yaml:"volume_percent"`

	// Not loaded from file
	Command string `yaml:"-"` // One-off command ("list"), empty to run a session
	TUIMode bool   `yaml:"-"`
	Verbose bool   `yaml:"-"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:  MinDeviceID,
			OutputDevice: MinDeviceID,
			SampleRate:   DefaultSampleRate,
			LowLatency:   DefaultLowLatency,
		},
		Gate: GateConfig{
			Preset:      DefaultPreset,
			AttackTime:  DefaultAttackTime,
			ReleaseTime: DefaultReleaseTime,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Port:         DefaultTelemetryPort,
			SendInterval: 33 * time.Millisecond, // ~30Hz
		},
		VolumePercent: DefaultVolumePercent,
		TUIMode:       true,
	}
}

// BlockSize returns the effective block size: the explicit override when
// set, the preset's otherwise.
func (c *Config) BlockSize() int {
	if c.Gate.BlockSize > 0 {
		return c.Gate.BlockSize
	}
	p, ok := LookupPreset(c.Gate.Preset)
	if !ok {
		return 0
	}
	return p.BlockSize
}

// ThresholdDB returns the effective gate threshold: the explicit override
// when set, the preset's otherwise.
func (c *Config) ThresholdDB() float64 {
	if c.Gate.ThresholdDB != 0 {
		return c.Gate.ThresholdDB
	}
	p, ok := LookupPreset(c.Gate.Preset)
	if !ok {
		return 0
	}
	return p.ThresholdDB
}

// VolumeDB converts the volume percentage to an output trim in dB.
// 100% = 0 dB, 50% = -6 dB, 200% = +6 dB.
func (c *Config) VolumeDB() float64 {
	return 20 * math.Log10(c.VolumePercent/100.0)
}

// Validate rejects input that must not start a session. Settings that the
// gate derivation clamps on its own (output trim) are not checked here.
func (c *Config) Validate() error {
	if _, ok := LookupPreset(c.Gate.Preset); !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", c.Gate.Preset, presetNames())
	}
	if c.VolumePercent < MinVolumePercent || c.VolumePercent > MaxVolumePercent {
		return fmt.Errorf("volume must be between %.0f-%.0f%%, got %g",
			MinVolumePercent, MaxVolumePercent, c.VolumePercent)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample rate must be between %d and %d Hz, got %d",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Gate.BlockSize < 0 || c.Gate.BlockSize > MaxBlockSize {
		return fmt.Errorf("block size must be between 1 and %d samples, got %d",
			MaxBlockSize, c.Gate.BlockSize)
	}
	return nil
}

func presetNames() string {
	names := ""
	for i, p := range Presets() {
		if i > 0 {
			names += ", "
		}
		names += p.Name
	}
	return names
}
