// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "micmon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// Empty path and no micmon.yaml in a scratch working directory.
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("changing working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origWD); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Gate.Preset != DefaultPreset {
		t.Errorf("preset = %q, want %q", cfg.Gate.Preset, DefaultPreset)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.VolumePercent != DefaultVolumePercent {
		t.Errorf("volume = %g, want %g", cfg.VolumePercent, DefaultVolumePercent)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
log_level: debug
volume_percent: 80
audio:
  input_device: 3
  sample_rate: 44100
  low_latency: true
gate:
  preset: minimum
  attack_time: 0.001
  release_time: 0.05
telemetry:
  enabled: true
  port: "9090"
  send_interval: 50ms
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.VolumePercent != 80 {
		t.Errorf("volume = %g, want 80", cfg.VolumePercent)
	}
	if cfg.Audio.InputDevice != 3 {
		t.Errorf("input device = %d, want 3", cfg.Audio.InputDevice)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Gate.Preset != "minimum" {
		t.Errorf("preset = %q, want minimum", cfg.Gate.Preset)
	}
	if cfg.Gate.AttackTime != 0.001 {
		t.Errorf("attack = %g, want 0.001", cfg.Gate.AttackTime)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Port != "9090" {
		t.Errorf("telemetry = %+v, want enabled on port 9090", cfg.Telemetry)
	}
	if cfg.Telemetry.SendInterval != 50*time.Millisecond {
		t.Errorf("send interval = %v, want 50ms", cfg.Telemetry.SendInterval)
	}

	// File values must leave untouched fields at their defaults.
	if cfg.Audio.OutputDevice != MinDeviceID {
		t.Errorf("output device = %d, want default %d", cfg.Audio.OutputDevice, MinDeviceID)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "gate: [not: a: mapping")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	path := writeConfigFile(t, "volume_percent: 999\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected validation error, got %v", err)
	}
}
