// SPDX-License-Identifier: MIT

// Package transport mirrors the rendered bar heights to the network. It is
// output only: nothing received by a transport reaches the pipeline.
package transport

import "time"

// BandSource provides the latest published bar heights. audio.Engine
// implements it.
type BandSource interface {
	BandsInto(dst []float64) error
	NumBands() int
}

// Frame is one snapshot of the bar heights. A Frame passed to Send is only
// valid for the duration of the call.
type Frame struct {
	Seq       uint32    `json:"seq"`
	Timestamp time.Time `json:"-"`
	Bands     []float32 `json:"bands"`
}

// Transport sends frames somewhere. Implementations must be safe for use
// from the publisher goroutine while Close is called from another.
type Transport interface {
	Send(f *Frame) error
	Close() error
}
