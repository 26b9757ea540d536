// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"visualizer/internal/audio"
	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/render"
	"visualizer/internal/sampling"
	"visualizer/internal/sink"
	"visualizer/internal/transport"
	"visualizer/internal/transport/udp"
	"visualizer/internal/tui"
	"visualizer/pkg/build"
)

// headlessLogInterval is how often the headless display logs a frame summary.
const headlessLogInterval = time.Second

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(f func() error) { *c = append(*c, f) }

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// Run builds the visualizer from cfg and runs it until ctx is cancelled, the
// display is closed or a non-looping WAV file ends.
func Run(ctx context.Context, cfg *config.Config, opts *config.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cleanup closers
	defer func() {
		if cerr := cleanup.close(); cerr != nil {
			log.Errorf("Shutdown: %v", cerr)
		}
	}()

	if opts.PickDevice {
		sel, err := tui.PickDevice()
		if err != nil {
			return err
		}
		cfg.Source.Kind = config.SourcePortAudio
		cfg.Source.Device = sel.Device.ID
		cfg.Pipeline.SampleRate = sel.SampleRate
		log.Infof("Selected %s at %.0f Hz", sel.Device.Name, sel.SampleRate)
	}

	state, err := sink.NewState(cfg.Sink)
	if err != nil {
		return err
	}

	src, err := NewSource(cfg, state, cancel, &cleanup)
	if err != nil {
		return err
	}

	surface, err := NewDisplay(cfg, opts, state, cancel, &cleanup)
	if err != nil {
		return err
	}

	engine, err := audio.NewEngine(cfg, src, surface, state)
	if err != nil {
		return err
	}
	cleanup.add(engine.Close)

	if cfg.Recording.Enabled {
		name := cfg.Recording.OutputFile
		if name == "" {
			name = audio.DefaultRecordingName(time.Now())
		}
		if err := engine.StartRecording(name); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		cleanup.add(func() error {
			log.Infof("Recording saved to: %s", name)
			return nil
		})
	}

	if err := StartMirrors(cfg, engine, &cleanup); err != nil {
		return err
	}

	log.Infof("%s %s: %s source, %s display", build.GetBuildFlags().Name, build.GetBuildFlags().Version,
		cfg.Source.Kind, cfg.Display.Kind)
	return engine.Run(ctx)
}

// NewSource creates the sample source selected by cfg. A non-looping WAV file
// calls stop when it has played to the end.
func NewSource(cfg *config.Config, state *sink.State, stop context.CancelFunc, cleanup *closers) (sampling.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceSine:
		return sampling.NewSine(cfg.Source.Frequency, cfg.Source.Level), nil

	case config.SourcePortAudio:
		if err := audio.Initialize(); err != nil {
			return nil, err
		}
		cleanup.add(audio.Terminate)
		c, err := audio.NewCapture(cfg.Source.Device, cfg.Pipeline.SampleRate, cfg.Source.LowLatency)
		if err != nil {
			return nil, err
		}
		if err := c.Start(); err != nil {
			return nil, err
		}
		cleanup.add(c.Stop)
		return c, nil

	case config.SourceWAV:
		w, err := audio.OpenWAV(cfg.Source.File, cfg.Source.Loop)
		if err != nil {
			return nil, err
		}
		state.SetMetadata(w.Metadata)
		if !cfg.Source.Loop {
			t := time.AfterFunc(w.Duration(), func() {
				log.Infof("WAV source: end of %s", cfg.Source.File)
				stop()
			})
			cleanup.add(func() error { t.Stop(); return nil })
		}
		return w, nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source.Kind)
}

// NewDisplay creates the display selected by cfg. Quitting from the display
// calls stop.
func NewDisplay(cfg *config.Config, opts *config.Options, state *sink.State, stop context.CancelFunc, cleanup *closers) (render.Surface, error) {
	w, h := cfg.Display.Width, cfg.Display.Height

	switch cfg.Display.Kind {
	case config.DisplayHeadless:
		fb, err := render.NewFramebuffer(w, h)
		if err != nil {
			return nil, err
		}
		return fb, nil

	case config.DisplayTerminal:
		term, err := tui.NewTerminal(w, h, state, tui.DefaultRefresh)
		if err != nil {
			return nil, err
		}
		if err := redirectLog(opts.LogFile, cleanup); err != nil {
			return nil, err
		}
		term.Start()
		cleanup.add(term.Close)
		return term, nil

	case config.DisplaySDL:
		win, err := render.NewWindow(build.GetBuildFlags().Name, w, h, cfg.Display.Scale, func(key string) {
			if state.Apply(sink.CommandForKey(key)) {
				stop()
			}
		})
		if err != nil {
			return nil, err
		}
		cleanup.add(win.Close)
		return win, nil
	}
	return nil, fmt.Errorf("unknown display %q", cfg.Display.Kind)
}

// redirectLog sends the log to path while the terminal display runs.
func redirectLog(path string, cleanup *closers) error {
	if path == "" {
		log.SetOutput(io.Discard)
		cleanup.add(func() error { log.SetOutput(os.Stderr); return nil })
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	cleanup.add(func() error {
		log.SetOutput(os.Stderr)
		return f.Close()
	})
	return nil
}

// StartMirrors starts the network mirrors enabled in cfg. With the headless
// display at debug level a summary of each second's frame is logged as well.
func StartMirrors(cfg *config.Config, src transport.BandSource, cleanup *closers) error {
	t := cfg.Transport

	start := func(interval time.Duration, tr transport.Transport) error {
		p, err := transport.NewPublisher(interval, src, tr)
		if err != nil {
			tr.Close()
			return err
		}
		p.Start()
		cleanup.add(p.Close)
		return nil
	}

	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			return err
		}
		if err := start(t.UDPSendInterval, sender); err != nil {
			return err
		}
	}
	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(t.WebSocketAddress)
		if err != nil {
			return err
		}
		if err := start(t.WebSocketInterval, ws); err != nil {
			return err
		}
	}
	if cfg.Display.Kind == config.DisplayHeadless && log.Enabled(log.LevelDebug) {
		if err := start(headlessLogInterval, transport.NewLoggingTransport()); err != nil {
			return err
		}
	}
	return nil
}
