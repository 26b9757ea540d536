// SPDX-License-Identifier: MIT
package transport

import (
	applog "visualizer/internal/log"
)

// LoggingTransport writes a one-line summary of every frame to the debug log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: logging frames at debug level")
	return &LoggingTransport{}
}

// Send logs the frame's sequence number and its tallest bar.
func (lt *LoggingTransport) Send(f *Frame) error {
	if !applog.Enabled(applog.LevelDebug) {
		return nil
	}
	peak, height := Peak(f.Bands)
	applog.Debugf("Transport: frame %d, %d bands, peak band %d at %.1f", f.Seq, len(f.Bands), peak, height)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Peak returns the index and height of the tallest bar, or -1 when every bar
// is zero.
func Peak(bands []float32) (int, float32) {
	idx, height := -1, float32(0)
	for i, v := range bands {
		if v > height {
			idx, height = i, v
		}
	}
	return idx, height
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
