// SPDX-License-Identifier: MIT
package config

import "time"

// Pipeline constants. These are the values the visualizer was tuned with on
// the device; every one of them may be overridden from the YAML file before
// start and is fixed for the life of the process afterwards.
const (
	DefaultSamples         = 64      // Samples per frame (N), power of 2
	DefaultSampleRate      = 44100.0 // Hz
	DefaultNumBars         = 64      // Bars on screen
	DefaultBaseThreshold   = 750.0   // Noise floor of band 0
	DefaultThresholdDecay  = 0.15    // Per-band falloff of the noise floor
	DefaultSmoothingFactor = 0.90    // Weight of the previous frame
	DefaultMaxBarHeight    = 80.0    // Pixels
	DefaultWindow          = "hamming"
	DefaultDCBlock         = false // The device feeds the raw ADC value in

	// Sample format of the analog input
	SampleBits = 12
	MaxSample  = 1<<SampleBits - 1

	// Display geometry
	DefaultDisplay = DisplayTerminal
	DefaultWidth   = 128
	DefaultHeight  = 160
	DefaultScale   = 4 // SDL window pixels per framebuffer pixel

	// Sources
	DefaultSource    = SourceSine
	DefaultDeviceID  = -1 // System default input
	DefaultSineFreq  = 16 * DefaultSampleRate / DefaultSamples
	DefaultSineLevel = 0.25 // Fraction of full scale

	// Sink
	MinVolume             = 0
	MaxVolume             = 127
	DefaultVolume         = 64
	DefaultPlayback       = "playing"
	VolumeIndicatorLinger = 3 * time.Second

	// Recording
	DefaultRecordBitDepth = 16

	// Transport
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond // ~30Hz
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultWebSocketPeriod = 33 * time.Millisecond

	// Hardware and processing limits
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxSamples    = 8192
)

// Display kinds.
const (
	DisplayTerminal = "terminal"
	DisplaySDL      = "sdl"
	DisplayHeadless = "headless"
)

// Source kinds.
const (
	SourceSine      = "sine"
	SourcePortAudio = "portaudio"
	SourceWAV       = "wav"
)

// DefaultBandEdges returns the device's band table: band i covers bin i+1.
func DefaultBandEdges(numBars int) []int {
	edges := make([]int, numBars+1)
	for i := range edges {
		edges[i] = i + 1
	}
	return edges
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Samples:         DefaultSamples,
			SampleRate:      DefaultSampleRate,
			NumBars:         DefaultNumBars,
			BaseThreshold:   DefaultBaseThreshold,
			ThresholdDecay:  DefaultThresholdDecay,
			SmoothingFactor: DefaultSmoothingFactor,
			MaxBarHeight:    DefaultMaxBarHeight,
			Window:          DefaultWindow,
			DCBlock:         DefaultDCBlock,
		},
		Display: DisplayConfig{
			Kind:   DefaultDisplay,
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Scale:  DefaultScale,
		},
		Source: SourceConfig{
			Kind:      DefaultSource,
			Device:    DefaultDeviceID,
			Frequency: DefaultSineFreq,
			Level:     DefaultSineLevel,
			Loop:      true,
		},
		Sink: SinkConfig{
			Volume:    DefaultVolume,
			Playback:  DefaultPlayback,
			Connected: true,
			Title:     "Test Tone",
			Artist:    "Signal Generator",
		},
		Recording: RecordingConfig{
			Enabled:  false,
			BitDepth: DefaultRecordBitDepth,
		},
		Transport: TransportConfig{
			UDPEnabled:        false,
			UDPTargetAddress:  DefaultUDPTarget,
			UDPSendInterval:   DefaultUDPInterval,
			WebSocketEnabled:  false,
			WebSocketAddress:  DefaultWebSocketAddr,
			WebSocketInterval: DefaultWebSocketPeriod,
		},
	}
}

// Command line flag names.
const (
	FlagConfig     = "config"
	FlagVerbose    = "verbose"
	FlagSource     = "source"
	FlagFile       = "file"
	FlagLoop       = "loop"
	FlagDevice     = "device"
	FlagLowLatency = "low-latency"
	FlagSampleRate = "sample-rate"
	FlagDisplay    = "display"
	FlagScale      = "scale"
	FlagRecord     = "record"
	FlagOutput     = "output"
	FlagDCBlock    = "dc-block"
	FlagWindow     = "window"
	FlagVolume     = "volume"
	FlagUDP        = "udp"
	FlagWebSocket  = "ws"
	FlagLogFile    = "log-file"
)

// DefaultLogFile receives the log while the terminal display owns the screen.
const DefaultLogFile = "visualizer.log"

// Options are the command line settings. Only flags the user actually set are
// applied on top of the file configuration.
type Options struct {
	ConfigPath  string
	Command     string // One-off command ("list") instead of running
	Interactive bool   // Interactive device list
	PickDevice  bool   // Choose the capture device interactively before running
	Verbose     bool
	LogFile     string

	Source     string
	File       string
	Loop       bool
	DeviceID   int
	LowLatency bool
	SampleRate float64
	Display    string
	Scale      int
	Record     bool
	OutputFile string
	DCBlock    bool
	Window     string
	Volume     int
	UDPTarget  string
	WSAddress  string
}

// Apply copies every option whose flag was set onto c. changed reports
// whether the user set a flag.
func (o *Options) Apply(c *Config, changed func(flag string) bool) {
	if o.Verbose {
		c.LogLevel = "debug"
	}
	if changed(FlagSource) {
		c.Source.Kind = o.Source
	}
	if changed(FlagFile) {
		c.Source.File = o.File
		if !changed(FlagSource) {
			c.Source.Kind = SourceWAV
		}
	}
	if changed(FlagLoop) {
		c.Source.Loop = o.Loop
	}
	if changed(FlagDevice) {
		c.Source.Device = o.DeviceID
	}
	if changed(FlagLowLatency) {
		c.Source.LowLatency = o.LowLatency
	}
	if changed(FlagSampleRate) {
		c.Pipeline.SampleRate = o.SampleRate
	}
	if changed(FlagDisplay) {
		c.Display.Kind = o.Display
	}
	if changed(FlagScale) {
		c.Display.Scale = o.Scale
	}
	if changed(FlagRecord) {
		c.Recording.Enabled = o.Record
	}
	if changed(FlagOutput) {
		c.Recording.OutputFile = o.OutputFile
		c.Recording.Enabled = true
	}
	if changed(FlagDCBlock) {
		c.Pipeline.DCBlock = o.DCBlock
	}
	if changed(FlagWindow) {
		c.Pipeline.Window = o.Window
	}
	if changed(FlagVolume) {
		c.Sink.Volume = o.Volume
	}
	if changed(FlagUDP) {
		c.Transport.UDPTargetAddress = o.UDPTarget
		c.Transport.UDPEnabled = o.UDPTarget != ""
	}
	if changed(FlagWebSocket) {
		c.Transport.WebSocketAddress = o.WSAddress
		c.Transport.WebSocketEnabled = o.WSAddress != ""
	}
}
