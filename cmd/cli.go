package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atici/MicMonitor/internal/build"
	"github.com/atici/MicMonitor/internal/config"
)

// ParseArgs parses the command line into a validated Config. The optional
// positional argument selects a latency preset; flags override both the
// defaults and any values loaded from a YAML config file. Invalid input is
// reported here, before any audio session starts.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetInfo()

	var (
		cfg        *config.Config
		configPath string

		volume        float64
		inputDevice   int
		outputDevice  int
		sampleRate    int
		blockSize     int
		thresholdDB   float64
		lowLatency    bool
		telemetry     bool
		telemetryPort string
		verbose       bool
		noTUI         bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [preset]",
		Short:         "Ultra-low latency microphone noise gate",
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Example: "  " + buildInfo.Name + " balanced        # recommended preset\n" +
			"  " + buildInfo.Name + " minimum -V 80   # minimum latency at 80% volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			if len(args) > 0 {
				name := strings.ToLower(args[0])
				if _, ok := config.LookupPreset(name); !ok {
					return fmt.Errorf("unknown preset %q\n\nAvailable presets:\n%s", args[0], presetUsage())
				}
				cfg.Gate.Preset = name
			}

			f := cmd.Flags()
			if f.Changed("volume") {
				cfg.VolumePercent = volume
			}
			if f.Changed("input-device") {
				cfg.Audio.InputDevice = inputDevice
			}
			if f.Changed("output-device") {
				cfg.Audio.OutputDevice = outputDevice
			}
			if f.Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if f.Changed("block-size") {
				cfg.Gate.BlockSize = blockSize
			}
			if f.Changed("threshold") {
				cfg.Gate.ThresholdDB = thresholdDB
			}
			if f.Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if f.Changed("telemetry") {
				cfg.Telemetry.Enabled = telemetry
			}
			if f.Changed("telemetry-port") {
				cfg.Telemetry.Port = telemetryPort
			}
			cfg.Verbose = verbose
			if verbose {
				cfg.LogLevel = "debug"
			}
			cfg.TUIMode = !noTUI

			return cfg.Validate()
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg = config.NewConfig()
			cfg.Command = "list"
			cfg.TUIMode = false
		},
	}
	rootCmd.AddCommand(listCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List available latency presets",
		Run: func(cmd *cobra.Command, args []string) {
			cfg = config.NewConfig()
			cfg.Command = "presets"
			cfg.TUIMode = false
			fmt.Printf("Available presets:\n%s", presetUsage())
		},
	}
	rootCmd.AddCommand(presetsCmd)

	// Gate configuration
	rootCmd.PersistentFlags().Float64VarP(&volume, "volume", "V", config.DefaultVolumePercent,
		"Output volume percentage (1-200, 100 = 0 dB)")
	rootCmd.PersistentFlags().IntVarP(&blockSize, "block-size", "b", 0,
		"Override the preset block size (samples)")
	rootCmd.PersistentFlags().Float64VarP(&thresholdDB, "threshold", "T", 0,
		"Override the preset gate threshold (dB)")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&inputDevice, "input-device", "i", config.MinDeviceID,
		"Input device ID. Use the 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&outputDevice, "output-device", "o", config.MinDeviceID,
		"Output device ID. Use the 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency device mode")

	// Telemetry configuration
	rootCmd.PersistentFlags().BoolVarP(&telemetry, "telemetry", "t", false,
		"Serve gate levels and spectrum over WebSocket")
	rootCmd.PersistentFlags().StringVar(&telemetryPort, "telemetry-port", config.DefaultTelemetryPort,
		"Port for the telemetry WebSocket server")

	// Debug configuration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false,
		"Run headless without the live status display")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func presetUsage() string {
	var b strings.Builder
	for _, p := range config.Presets() {
		fmt.Fprintf(&b, "  %-10s - %s\n", p.Name, p.Description)
	}
	return b.String()
}
