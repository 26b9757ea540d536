// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"visualizer/internal/log"
	"visualizer/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error".
	Pipeline  PipelineConfig  `yaml:"pipeline"`  // Spectrum pipeline constants.
	Display   DisplayConfig   `yaml:"display"`   // Display surface.
	Source    SourceConfig    `yaml:"source"`    // Where samples come from.
	Sink      SinkConfig      `yaml:"sink"`      // Initial audio sink state.
	Recording RecordingConfig `yaml:"recording"` // Recording of acquired frames.
	Transport TransportConfig `yaml:"transport"` // Network mirrors of the bar heights.
}

// PipelineConfig holds the constants of the acquisition and analysis pipeline.
type PipelineConfig struct {
	Samples         int     `yaml:"samples"`          // Samples per frame, power of 2.
	SampleRate      float64 `yaml:"sample_rate"`      // Sampling frequency in Hz.
	NumBars         int     `yaml:"num_bars"`         // Number of bands and bars.
	BaseThreshold   float64 `yaml:"base_threshold"`   // Noise floor of band 0.
	ThresholdDecay  float64 `yaml:"threshold_decay"`  // Noise floor falloff per band.
	SmoothingFactor float64 `yaml:"smoothing_factor"` // Weight of the previous frame, [0,1).
	MaxBarHeight    float64 `yaml:"max_bar_height"`   // Bar clamp in pixels.
	BandEdges       []int   `yaml:"band_edges"`       // num_bars+1 bin edges; empty for the default table.
	Window          string  `yaml:"window"`           // Window function name.
	DCBlock         bool    `yaml:"dc_block"`         // Subtract the frame mean before windowing.
}

// DisplayConfig selects and sizes the display surface.
type DisplayConfig struct {
	Kind   string `yaml:"kind"`   // "terminal", "sdl" or "headless".
	Width  int    `yaml:"width"`  // Pixels.
	Height int    `yaml:"height"` // Pixels.
	Scale  int    `yaml:"scale"`  // Window pixels per framebuffer pixel (sdl).
}

// SourceConfig selects the analog input stand-in.
type SourceConfig struct {
	Kind       string  `yaml:"kind"`        // "sine", "portaudio" or "wav".
	Device     int     `yaml:"device"`      // PortAudio input device index (-1 for default).
	LowLatency bool    `yaml:"low_latency"` // Use the device's low input latency (portaudio).
	File       string  `yaml:"file"`        // WAV file path.
	Loop       bool    `yaml:"loop"`        // Restart the WAV file at its end.
	Frequency  float64 `yaml:"frequency"`   // Sine frequency in Hz.
	Level      float64 `yaml:"level"`       // Sine amplitude as a fraction of full scale.
}

// SinkConfig is the initial state of the audio sink.
type SinkConfig struct {
	Volume    int    `yaml:"volume"`    // 0..127.
	Playback  string `yaml:"playback"`  // "playing", "paused", "stopped", ...
	Connected bool   `yaml:"connected"` // Whether a sink is connected at start.
	Title     string `yaml:"title"`
	Artist    string `yaml:"artist"`
	Album     string `yaml:"album"`
}

// RecordingConfig holds settings related to recording acquired frames.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Write every acquired frame to a WAV file.
	OutputFile string `yaml:"output_file"` // Empty for an auto-generated name.
	BitDepth   int    `yaml:"bit_depth"`   // PCM bit depth of the file (16 or 24).
}

// TransportConfig holds settings related to mirroring bar heights over the network.
type TransportConfig struct {
	UDPEnabled        bool          `yaml:"udp_enabled"`
	UDPTargetAddress  string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval   time.Duration `yaml:"udp_send_interval"`
	WebSocketEnabled  bool          `yaml:"websocket_enabled"`
	WebSocketAddress  string        `yaml:"websocket_address"` // Listen address, e.g. "127.0.0.1:8080".
	WebSocketInterval time.Duration `yaml:"websocket_interval"`
}

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, "config.yaml" in the working directory is used when present, and the
// built-in defaults otherwise. Environment overrides are applied last and the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	p := c.Pipeline
	if !bitint.IsPowerOfTwo(p.Samples) || p.Samples > MaxSamples {
		errs = append(errs, fmt.Errorf("pipeline.samples %d must be a power of 2 no larger than %d", p.Samples, MaxSamples))
	}
	if p.SampleRate < MinSampleRate || p.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("pipeline.sample_rate %.0f outside [%d, %d]", p.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if p.NumBars <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.num_bars must be positive, got %d", p.NumBars))
	}
	if p.BaseThreshold < 0 || p.ThresholdDecay < 0 {
		errs = append(errs, errors.New("pipeline.base_threshold and pipeline.threshold_decay must not be negative"))
	}
	if p.SmoothingFactor < 0 || p.SmoothingFactor >= 1 {
		errs = append(errs, fmt.Errorf("pipeline.smoothing_factor %g outside [0, 1)", p.SmoothingFactor))
	}
	if p.MaxBarHeight <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_bar_height must be positive, got %g", p.MaxBarHeight))
	}
	if len(p.BandEdges) != 0 && len(p.BandEdges) != p.NumBars+1 {
		errs = append(errs, fmt.Errorf("pipeline.band_edges has %d entries, need num_bars+1 = %d", len(p.BandEdges), p.NumBars+1))
	}

	switch c.Display.Kind {
	case DisplayTerminal, DisplaySDL, DisplayHeadless:
	default:
		errs = append(errs, fmt.Errorf("display.kind %q unknown", c.Display.Kind))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size %dx%d must be positive", c.Display.Width, c.Display.Height))
	}

	switch c.Source.Kind {
	case SourceSine:
		if c.Source.Frequency <= 0 || c.Source.Frequency >= p.SampleRate/2 {
			errs = append(errs, fmt.Errorf("source.frequency %g outside (0, %g)", c.Source.Frequency, p.SampleRate/2))
		}
	case SourcePortAudio:
	case SourceWAV:
		if c.Source.File == "" {
			errs = append(errs, errors.New("source.file must be set for the wav source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q unknown", c.Source.Kind))
	}

	if c.Sink.Volume < MinVolume || c.Sink.Volume > MaxVolume {
		errs = append(errs, fmt.Errorf("sink.volume %d outside [%d, %d]", c.Sink.Volume, MinVolume, MaxVolume))
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		errs = append(errs, fmt.Errorf("recording.bit_depth %d must be 16 or 24", c.Recording.BitDepth))
	}

	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress))
		}
		if t.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}
	if t.WebSocketEnabled && t.WebSocketInterval <= 0 {
		errs = append(errs, errors.New("transport.websocket_interval must be positive when the websocket mirror is enabled"))
	}

	return errors.Join(errs...)
}

// Edges returns the configured band table, or the default one.
func (p PipelineConfig) Edges() []int {
	if len(p.BandEdges) == 0 {
		return DefaultBandEdges(p.NumBars)
	}
	return append([]int(nil), p.BandEdges...)
}

// applyEnvOverrides lets the VIS_* environment variables override file values.
// Unparseable values are ignored and leave the file value in place.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("VIS_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Debugf("configuration: overriding log_level from env: %s", val)
	}

	// VIS_PIPELINE_{...}
	if val, ok := os.LookupEnv("VIS_DC_BLOCK"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Pipeline.DCBlock = b
			log.Debugf("configuration: overriding pipeline.dc_block from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("VIS_WINDOW"); ok {
		c.Pipeline.Window = val
		log.Debugf("configuration: overriding pipeline.window from env: %s", val)
	}

	// VIS_SOURCE_{...}
	if val, ok := os.LookupEnv("VIS_SOURCE"); ok {
		c.Source.Kind = val
		log.Debugf("configuration: overriding source.kind from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIS_SOURCE_FILE"); ok {
		c.Source.File = val
		log.Debugf("configuration: overriding source.file from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIS_DISPLAY"); ok {
		c.Display.Kind = val
		log.Debugf("configuration: overriding display.kind from env: %s", val)
	}

	// VIS_UDP_{...}
	if val, ok := os.LookupEnv("VIS_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
			log.Debugf("configuration: overriding transport.udp_enabled from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("VIS_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		log.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("VIS_UDP_SEND_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = d
			log.Debugf("configuration: overriding transport.udp_send_interval from env: %s", d)
		}
	}

	// VIS_WS_{...}
	if val, ok := os.LookupEnv("VIS_WS_ADDRESS"); ok {
		c.Transport.WebSocketEnabled = val != ""
		c.Transport.WebSocketAddress = val
		log.Debugf("configuration: overriding transport.websocket_address from env: %s", val)
	}
}
