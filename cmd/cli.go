// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"visualizer/internal/config"
	"visualizer/internal/render"
	"visualizer/pkg/build"

	"github.com/spf13/cobra"
)

// ParseArgs parses the command line, loads the configuration file and applies
// the flags the user set on top of it. It returns a nil config when there is
// nothing to run (help or version was printed).
func ParseArgs(args []string) (*config.Config, *config.Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &config.Options{}
	var cfg *config.Config

	load := func(cmd *cobra.Command) error {
		c, err := config.LoadConfig(options.ConfigPath)
		if err != nil {
			return err
		}
		options.Apply(c, cmd.Flags().Changed)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd)
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = "list"
			return load(cmd)
		},
	}
	listCmd.Flags().BoolVarP(&options.Interactive, "interactive", "i", false,
		"Browse the devices interactively")
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()

	// Configuration
	flags.StringVar(&options.ConfigPath, config.FlagConfig, "",
		"Path to the YAML configuration file (default ./config.yaml when present)")
	flags.BoolVarP(&options.Verbose, config.FlagVerbose, "v", false,
		"Show verbose output")
	flags.StringVar(&options.LogFile, config.FlagLogFile, config.DefaultLogFile,
		"Log file used while the terminal display is active")

	// Source
	flags.StringVarP(&options.Source, config.FlagSource, "S", config.DefaultSource,
		"Sample source: sine, portaudio or wav")
	flags.StringVarP(&options.File, config.FlagFile, "f", "",
		"WAV file to play as the analog input (implies --source wav)")
	flags.BoolVar(&options.Loop, config.FlagLoop, true,
		"Restart the WAV file at its end")
	flags.IntVarP(&options.DeviceID, config.FlagDevice, "d", config.DefaultDeviceID,
		"Input device ID. Use the 'list' command to see available devices.")
	flags.BoolVarP(&options.LowLatency, config.FlagLowLatency, "l", false,
		"Use the device's low input latency")
	flags.BoolVar(&options.PickDevice, "pick-device", false,
		"Choose the input device and rate interactively before starting")
	flags.Float64VarP(&options.SampleRate, config.FlagSampleRate, "s", config.DefaultSampleRate,
		"Sampling frequency in Hertz (Hz)")

	// Pipeline
	flags.BoolVar(&options.DCBlock, config.FlagDCBlock, config.DefaultDCBlock,
		"Remove the frame mean before the transform")
	flags.StringVar(&options.Window, config.FlagWindow, config.DefaultWindow,
		"Window function: hamming, hann, blackman or rectangular")

	// Display and sink
	displays := "Display: terminal, sdl or headless"
	if !render.SupportsSDL() {
		displays += " (sdl needs a build with -tags sdl)"
	}
	flags.StringVarP(&options.Display, config.FlagDisplay, "D", config.DefaultDisplay, displays)
	flags.IntVar(&options.Scale, config.FlagScale, config.DefaultScale,
		"Window pixels per display pixel (sdl)")
	flags.IntVar(&options.Volume, config.FlagVolume, config.DefaultVolume,
		"Initial sink volume (0-127)")

	// Recording
	flags.BoolVarP(&options.Record, config.FlagRecord, "r", false,
		"Record every acquired frame to a WAV file")
	flags.StringVarP(&options.OutputFile, config.FlagOutput, "o", "",
		"Recording file name (implies --record). Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Network mirrors
	flags.StringVar(&options.UDPTarget, config.FlagUDP, "",
		"Send bar heights as UDP packets to host:port")
	flags.StringVar(&options.WSAddress, config.FlagWebSocket, "",
		"Serve bar heights to WebSocket clients on host:port")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, nil, err
	}
	return cfg, options, nil
}
