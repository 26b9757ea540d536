// SPDX-License-Identifier: MIT

// Package sink holds the latest state reported by the audio sink: volume,
// playback state, connection and track metadata. Sink callbacks write it from
// their own goroutines; the frame loop reads one Snapshot per frame. Every
// field is a latest-value cell, so a write simply replaces the previous one.
package sink

import (
	"fmt"
	"strings"
	"sync/atomic"

	"visualizer/internal/config"
)

// PlaybackState is the transport state of the sink.
type PlaybackState int32

const (
	Stopped PlaybackState = iota
	Playing
	Paused
	ForwardSeek
	ReverseSeek
	Error
)

var playbackNames = [...]string{
	Stopped:     "stopped",
	Playing:     "playing",
	Paused:      "paused",
	ForwardSeek: "forward_seek",
	ReverseSeek: "reverse_seek",
	Error:       "error",
}

func (p PlaybackState) String() string {
	if p >= 0 && int(p) < len(playbackNames) {
		return playbackNames[p]
	}
	return fmt.Sprintf("PlaybackState(%d)", int32(p))
}

// ParsePlayback converts a name (case-insensitive) to a PlaybackState.
func ParsePlayback(name string) (PlaybackState, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range playbackNames {
		if n == name {
			return PlaybackState(i), nil
		}
	}
	return Stopped, fmt.Errorf("unknown playback state: '%s'", name)
}

// AVRCP media attribute ids delivered by the metadata callback.
const (
	AttrTitle  uint8 = 0x01
	AttrArtist uint8 = 0x02
	AttrAlbum  uint8 = 0x04
)

// Metadata describes the current track.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Empty reports whether no attribute is set.
func (m Metadata) Empty() bool {
	return m.Title == "" && m.Artist == "" && m.Album == ""
}

// Snapshot is a copy of the sink state taken once per frame.
type Snapshot struct {
	Volume      int
	Playback    PlaybackState
	Connected   bool
	Metadata    Metadata
	HasMetadata bool
}

// State is the latest-value mailbox shared between the sink callbacks and the
// frame loop. The zero value is a disconnected, stopped sink at volume 0.
type State struct {
	volume    atomic.Int32
	playback  atomic.Int32
	connected atomic.Bool
	metadata  atomic.Pointer[Metadata]
}

// NewState creates a sink state from its initial configuration.
func NewState(cfg config.SinkConfig) (*State, error) {
	playback, err := ParsePlayback(cfg.Playback)
	if err != nil {
		return nil, err
	}
	s := &State{}
	s.volume.Store(int32(clampVolume(cfg.Volume)))
	s.playback.Store(int32(playback))
	s.connected.Store(cfg.Connected)
	s.SetMetadata(Metadata{Title: cfg.Title, Artist: cfg.Artist, Album: cfg.Album})
	return s, nil
}

func clampVolume(v int) int {
	return max(config.MinVolume, min(config.MaxVolume, v))
}

// --- Writers (sink callbacks) ---

// SetVolume stores a new volume, clamped to [0, 127].
func (s *State) SetVolume(v int) {
	s.volume.Store(int32(clampVolume(v)))
}

// AdjustVolume changes the volume by delta and returns the new value.
func (s *State) AdjustVolume(delta int) int {
	for {
		old := s.volume.Load()
		v := int32(clampVolume(int(old) + delta))
		if s.volume.CompareAndSwap(old, v) {
			return int(v)
		}
	}
}

// SetPlayback stores the playback state.
func (s *State) SetPlayback(p PlaybackState) {
	s.playback.Store(int32(p))
}

// TogglePlayback switches between Playing and Paused and returns the new
// state. Any other state becomes Playing.
func (s *State) TogglePlayback() PlaybackState {
	for {
		old := s.playback.Load()
		next := Playing
		if PlaybackState(old) == Playing {
			next = Paused
		}
		if s.playback.CompareAndSwap(old, int32(next)) {
			return next
		}
	}
}

// SetConnected stores the connection state. Track metadata survives a
// disconnect and is shown again on reconnect until the sink replaces it.
func (s *State) SetConnected(connected bool) {
	s.connected.Store(connected)
}

// SetMetadata replaces all track metadata.
func (s *State) SetMetadata(m Metadata) {
	if m.Empty() {
		s.metadata.Store(nil)
		return
	}
	s.metadata.Store(&m)
}

// SetMetadataAttr updates one attribute by its AVRCP id. Unknown ids are
// ignored and reported as false.
func (s *State) SetMetadataAttr(id uint8, text string) bool {
	for {
		old := s.metadata.Load()
		var m Metadata
		if old != nil {
			m = *old
		}
		switch id {
		case AttrTitle:
			m.Title = text
		case AttrArtist:
			m.Artist = text
		case AttrAlbum:
			m.Album = text
		default:
			return false
		}
		var next *Metadata
		if !m.Empty() {
			next = &m
		}
		if s.metadata.CompareAndSwap(old, next) {
			return true
		}
	}
}

// --- Readers ---

func (s *State) Volume() int             { return int(s.volume.Load()) }
func (s *State) Playback() PlaybackState { return PlaybackState(s.playback.Load()) }
func (s *State) Connected() bool         { return s.connected.Load() }
func (s *State) HasMetadata() bool       { return s.metadata.Load() != nil }

// Metadata returns the current track metadata.
func (s *State) Metadata() Metadata {
	if m := s.metadata.Load(); m != nil {
		return *m
	}
	return Metadata{}
}

// Snapshot reads every field once. Fields are individually consistent; a
// writer racing with the snapshot shows up in this frame or the next.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Volume:    s.Volume(),
		Playback:  s.Playback(),
		Connected: s.Connected(),
	}
	if m := s.metadata.Load(); m != nil {
		snap.Metadata = *m
		snap.HasMetadata = true
	}
	return snap
}
