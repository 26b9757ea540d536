// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/render"
	"visualizer/internal/sink"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestParseArgs(t *testing.T) {
	cfg, opts, err := ParseArgs([]string{
		"-S", "sine", "-D", "headless", "--volume", "100", "--udp", "127.0.0.1:9999",
		"--window", "hann", "-o", "out.wav", "-v",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg == nil || opts == nil {
		t.Fatal("expected a configuration")
	}
	if opts.Command != "" {
		t.Errorf("command = %q; expected none", opts.Command)
	}
	if cfg.Display.Kind != config.DisplayHeadless || cfg.Sink.Volume != 100 || cfg.Pipeline.Window != "hann" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "127.0.0.1:9999" {
		t.Errorf("udp = %v %q", cfg.Transport.UDPEnabled, cfg.Transport.UDPTargetAddress)
	}
	if !cfg.Recording.Enabled || cfg.Recording.OutputFile != "out.wav" {
		t.Error("--output did not enable recording")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q with -v", cfg.LogLevel)
	}
}

func TestParseArgs_List(t *testing.T) {
	cfg, opts, err := ParseArgs([]string{"list", "-i"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg == nil || opts.Command != "list" || !opts.Interactive {
		t.Errorf("command = %q interactive = %v", opts.Command, opts.Interactive)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Unknown flag", []string{"--nope"}},
		{"Positional argument", []string{"extra"}},
		{"Volume out of range", []string{"--volume", "200"}},
		{"Unknown display", []string{"-D", "crt"}},
		{"Missing config file", []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseArgs(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseArgs_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "sink:\n  volume: 10\ndisplay:\n  kind: headless\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := ParseArgs([]string{"--config", path, "--volume", "20"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Display.Kind != config.DisplayHeadless {
		t.Errorf("display = %q; expected the file's", cfg.Display.Kind)
	}
	if cfg.Sink.Volume != 20 {
		t.Errorf("volume = %d; expected the flag to win", cfg.Sink.Volume)
	}
}

func TestParseArgs_Version(t *testing.T) {
	cfg, _, err := ParseArgs([]string{"--version"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg != nil {
		t.Error("expected no configuration after --version")
	}
}

func TestClosers_ReverseOrder(t *testing.T) {
	t.Parallel()
	var order []int
	var c closers
	for i := range 3 {
		c.add(func() error {
			order = append(order, i)
			if i == 1 {
				return errors.New("boom")
			}
			return nil
		})
	}
	if err := c.close(); err == nil {
		t.Error("expected the joined error")
	}
	if len(order) != 3 || order[0] != 2 || order[2] != 0 {
		t.Errorf("close order = %v; expected [2 1 0]", order)
	}
}

func newState(t *testing.T) *sink.State {
	t.Helper()
	s, err := sink.NewState(config.Default().Sink)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSource_Sine(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	var cleanup closers
	src, err := NewSource(&cfg, newState(t), func() {}, &cleanup)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if v := src.Read(); v >= 1<<config.SampleBits {
		t.Errorf("sample %d exceeds %d bits", v, config.SampleBits)
	}
	if len(cleanup) != 0 {
		t.Error("sine source registered cleanup")
	}

	cfg.Source.Kind = "tape"
	if _, err := NewSource(&cfg, newState(t), func() {}, &cleanup); err == nil {
		t.Error("expected error for an unknown source")
	}
}

func TestNewSource_WAVStopsAtEnd(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	enc.Metadata = &wav.Metadata{Title: "Short", Artist: "Test"}
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 80),
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg := config.Default()
	cfg.Source.Kind = config.SourceWAV
	cfg.Source.File = path
	cfg.Source.Loop = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	state := newState(t)
	var cleanup closers
	if _, err := NewSource(&cfg, state, cancel, &cleanup); err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	defer cleanup.close()

	if md := state.Metadata(); md.Title != "Short" || md.Artist != "Test" {
		t.Errorf("metadata = %+v", md)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop after the file ended")
	}
}

func TestNewDisplay_Headless(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Display.Kind = config.DisplayHeadless
	var cleanup closers
	surface, err := NewDisplay(&cfg, &config.Options{}, newState(t), func() {}, &cleanup)
	if err != nil {
		t.Fatalf("NewDisplay: %v", err)
	}
	fb, ok := surface.(*render.Framebuffer)
	if !ok {
		t.Fatalf("surface is %T; expected *render.Framebuffer", surface)
	}
	if w, h := fb.Size(); w != cfg.Display.Width || h != cfg.Display.Height {
		t.Errorf("size %dx%d", w, h)
	}

	cfg.Display.Kind = "crt"
	if _, err := NewDisplay(&cfg, &config.Options{}, newState(t), func() {}, &cleanup); err == nil {
		t.Error("expected error for an unknown display")
	}
}

func TestStartMirrors_Disabled(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Display.Kind = config.DisplayTerminal
	var cleanup closers
	if err := StartMirrors(&cfg, nil, &cleanup); err != nil {
		t.Fatalf("StartMirrors: %v", err)
	}
	if len(cleanup) != 0 {
		t.Errorf("%d publishers started with every mirror disabled", len(cleanup))
	}
}

func TestRun_HeadlessStopsOnCancel(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Display.Kind = config.DisplayHeadless
	cfg.Recording.Enabled = true
	cfg.Recording.OutputFile = filepath.Join(t.TempDir(), "run.wav")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := Run(ctx, &cfg, &config.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, err := os.Stat(cfg.Recording.OutputFile)
	if err != nil {
		t.Fatalf("recording missing: %v", err)
	}
	if info.Size() <= 44 {
		t.Errorf("recording has %d bytes; expected samples after the header", info.Size())
	}
}
