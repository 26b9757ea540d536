// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"visualizer/cmd"
	"visualizer/internal/audio"
	"visualizer/internal/log"
	"visualizer/internal/tui"
	"visualizer/pkg/build"
)

// main is the entry point of the visualizer.
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and the configuration file
//   - Execute one-off commands if requested
//
// 2. Frame Loop (Hot Path):
//   - Acquire, transform, aggregate, smooth and draw one frame at a time
//   - Network mirrors and the display run on their own goroutines
//
// 3. Shutdown Phase (Cold Path):
//   - Cancel on SIGINT/SIGTERM, display close or end of a WAV file
//   - Stop recording, mirrors, display and source in reverse order
func main() {
	if err := build.Initialize(); err != nil {
		log.Debugf("Development build: %v", err)
	}

	cfg, opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg == nil {
		return // --help or --version
	}

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, using %s", cfg.LogLevel, log.GetLevel())
	}

	if opts.Command != "" {
		if err := executeCommand(opts.Command, opts.Interactive); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, cfg, opts); err != nil {
		log.Fatalf("%v", err)
	}
}

// executeCommand handles one-off commands that don't start the frame loop.
func executeCommand(command string, interactive bool) error {
	switch command {
	case "list":
		if interactive {
			sel, err := tui.PickDevice()
			if errors.Is(err, tui.ErrNoSelection) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("--source portaudio --device %d --sample-rate %.0f\n", sel.Device.ID, sel.SampleRate)
			return nil
		}
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}
