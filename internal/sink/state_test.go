// SPDX-License-Identifier: MIT
package sink

import (
	"sync"
	"testing"

	"visualizer/internal/config"
)

func TestParsePlayback(t *testing.T) {
	t.Parallel()
	for p := Stopped; p <= Error; p++ {
		got, err := ParsePlayback(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePlayback(%q) = %v, %v; expected %v", p.String(), got, err, p)
		}
	}
	if got, err := ParsePlayback(" Paused "); err != nil || got != Paused {
		t.Errorf("ParsePlayback(\" Paused \") = %v, %v", got, err)
	}
	if _, err := ParsePlayback("rewinding"); err == nil {
		t.Error("expected error for unknown state")
	}
	if s := PlaybackState(42).String(); s != "PlaybackState(42)" {
		t.Errorf("String() = %q", s)
	}
}

func TestNewState(t *testing.T) {
	t.Parallel()
	s, err := NewState(config.SinkConfig{
		Volume:    200,
		Playback:  "paused",
		Connected: true,
		Title:     "Song",
	})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	snap := s.Snapshot()
	if snap.Volume != config.MaxVolume || snap.Playback != Paused || !snap.Connected {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if !snap.HasMetadata || snap.Metadata.Title != "Song" {
		t.Errorf("metadata = %+v, HasMetadata = %v", snap.Metadata, snap.HasMetadata)
	}

	if _, err := NewState(config.SinkConfig{Playback: "warp"}); err == nil {
		t.Error("expected error for unknown playback state")
	}
}

func TestState_ZeroValue(t *testing.T) {
	t.Parallel()
	var s State
	snap := s.Snapshot()
	if snap.Volume != 0 || snap.Playback != Stopped || snap.Connected || snap.HasMetadata {
		t.Errorf("zero State snapshot = %+v, expected stopped and disconnected", snap)
	}
}

func TestState_Volume(t *testing.T) {
	t.Parallel()
	var s State
	tests := []struct {
		set  int
		want int
	}{
		{64, 64},
		{-3, 0},
		{128, 127},
		{127, 127},
	}
	for _, tt := range tests {
		s.SetVolume(tt.set)
		if got := s.Volume(); got != tt.want {
			t.Errorf("SetVolume(%d): Volume() = %d, expected %d", tt.set, got, tt.want)
		}
	}

	s.SetVolume(120)
	if got := s.AdjustVolume(10); got != 127 {
		t.Errorf("AdjustVolume(+10) from 120 = %d, expected 127", got)
	}
	if got := s.AdjustVolume(-27); got != 100 {
		t.Errorf("AdjustVolume(-27) = %d, expected 100", got)
	}
}

func TestState_TogglePlayback(t *testing.T) {
	t.Parallel()
	var s State
	if got := s.TogglePlayback(); got != Playing {
		t.Errorf("toggle from Stopped = %v, expected Playing", got)
	}
	if got := s.TogglePlayback(); got != Paused {
		t.Errorf("toggle from Playing = %v, expected Paused", got)
	}
	s.SetPlayback(ForwardSeek)
	if got := s.TogglePlayback(); got != Playing {
		t.Errorf("toggle from ForwardSeek = %v, expected Playing", got)
	}
}

func TestState_MetadataAttr(t *testing.T) {
	t.Parallel()
	var s State

	if s.SetMetadataAttr(0x08, "Genre") {
		t.Error("unknown attribute id was accepted")
	}
	if s.HasMetadata() {
		t.Error("HasMetadata() = true after an unknown attribute")
	}

	s.SetMetadataAttr(AttrArtist, "Artist")
	s.SetMetadataAttr(AttrAlbum, "Album")
	s.SetMetadataAttr(AttrTitle, "Title")
	want := Metadata{Title: "Title", Artist: "Artist", Album: "Album"}
	if got := s.Metadata(); got != want {
		t.Errorf("Metadata() = %+v, expected %+v", got, want)
	}

	// Clearing every attribute means no metadata.
	s.SetMetadataAttr(AttrArtist, "")
	s.SetMetadataAttr(AttrAlbum, "")
	if !s.HasMetadata() {
		t.Error("HasMetadata() = false with a title still set")
	}
	s.SetMetadataAttr(AttrTitle, "")
	if s.HasMetadata() {
		t.Error("HasMetadata() = true with every attribute empty")
	}
}

func TestState_MetadataSurvivesDisconnect(t *testing.T) {
	t.Parallel()
	var s State
	s.SetConnected(true)
	s.SetMetadata(Metadata{Title: "Track"})
	s.SetConnected(false)

	snap := s.Snapshot()
	if snap.Connected || !snap.HasMetadata {
		t.Errorf("after disconnect: %+v", snap)
	}
}

// Writers race with the reader; run with -race.
func TestState_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	var s State
	var wg sync.WaitGroup

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				s.AdjustVolume(1)
				s.SetPlayback(PlaybackState(i % 6))
				s.SetConnected(i%2 == 0)
				s.SetMetadataAttr(AttrTitle, string(rune('a'+w)))
			}
		}()
	}

	for range 1000 {
		snap := s.Snapshot()
		if snap.Volume < config.MinVolume || snap.Volume > config.MaxVolume {
			t.Fatalf("snapshot volume %d out of range", snap.Volume)
		}
	}
	wg.Wait()

	if s.Volume() != config.MaxVolume {
		t.Errorf("Volume() = %d after 4000 increments, expected %d", s.Volume(), config.MaxVolume)
	}
}

func TestState_Apply(t *testing.T) {
	t.Parallel()
	s, err := NewState(config.SinkConfig{Volume: 64, Playback: "playing", Connected: true})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	steps := []struct {
		key      string
		volume   int
		playback PlaybackState
		conn     bool
		quit     bool
	}{
		{"+", 72, Playing, true, false},
		{"-", 64, Playing, true, false},
		{"down", 56, Playing, true, false},
		{" ", 56, Paused, true, false},
		{"space", 56, Playing, true, false},
		{"c", 56, Playing, false, false},
		{"c", 56, Playing, true, false},
		{"x", 56, Playing, true, false},
		{"q", 56, Playing, true, true},
	}
	for _, st := range steps {
		quit := s.Apply(CommandForKey(st.key))
		if quit != st.quit || s.Volume() != st.volume || s.Playback() != st.playback || s.Connected() != st.conn {
			t.Fatalf("after %q: quit=%v volume=%d playback=%v connected=%v",
				st.key, quit, s.Volume(), s.Playback(), s.Connected())
		}
	}

	// Volume keys saturate.
	for range 20 {
		s.Apply(CmdVolumeUp)
	}
	if s.Volume() != config.MaxVolume {
		t.Errorf("Volume() = %d after repeated volume up", s.Volume())
	}
}
