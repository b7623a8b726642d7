package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/atici/MicMonitor/cmd"
	"github.com/atici/MicMonitor/internal/audio"
	"github.com/atici/MicMonitor/internal/build"
	"github.com/atici/MicMonitor/internal/config"
	"github.com/atici/MicMonitor/internal/log"
	"github.com/atici/MicMonitor/internal/tui"
)

// main is the entry point for the noise gate. The program flow has three
// phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information and runtime settings
//   - Parse command line arguments into a validated config
//   - Execute one-off commands (device list, presets) if requested
//   - Initialize PortAudio and derive the gate parameters
//
// 2. Concurrent Phase (Hot Path):
//   - Open the duplex stream; from here on PortAudio invokes the gate
//     callback once per block on its real-time thread
//   - Run the live status display (or block on signals headless)
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the stream, close telemetry, terminate PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	// One thread for the audio callback, one for UI and telemetry.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg == nil || cfg.Command == "presets" {
		return
	}

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	if cfg.Command == "list" {
		if err := audio.ListDevices(os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	engine, err := audio.NewEngine(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// CRITICAL: the first callback after Start marks the start of the
	// real-time path.
	if err := engine.Start(); err != nil {
		log.Fatalf("Failed to start audio stream: %v", err)
	}

	gc := engine.GateConfig()
	log.Infof("Gate session: preset=%s threshold=%.0fdB volume=%+.1fdB block=%d rate=%dHz latency=%.2fms",
		cfg.Gate.Preset, gc.ThresholdDB, gc.VolumeDB, gc.BlockSize, gc.SampleRate, gc.Latency()*1000)

	if cfg.TUIMode {
		if err := tui.Run(engine, cfg); err != nil {
			log.Errorf("Status display error: %v", err)
		}
	} else {
		waitForSignal(cfg)
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := engine.Close(); err != nil {
		log.Errorf("Error closing audio engine: %v", err)
	}
	log.Infof("Stopped")
}

// waitForSignal blocks a headless run until SIGINT or SIGTERM.
func waitForSignal(cfg *config.Config) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	log.Infof("Running headless (preset=%s), Ctrl+C to stop", cfg.Gate.Preset)
	<-done
}
