// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/sampling"
	"visualizer/internal/sink"
	"visualizer/pkg/bitint"

	"github.com/go-audio/wav"
)

// WAVSource plays a WAV file as if it were wired to the analog input: Read
// returns the sample at the time elapsed since the source started, mixed down
// to mono and converted to 12 bits. The whole file is decoded up front.
type WAVSource struct {
	samples []uint16
	rate    float64
	loop    bool

	start time.Time
	now   func() time.Time

	// Metadata is the track information from the file's INFO chunk, with
	// the file name as title when the file has none.
	Metadata sink.Metadata
}

var _ sampling.Source = (*WAVSource)(nil)

// OpenWAV decodes the WAV file at path.
func OpenWAV(path string, loop bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	src, err := NewWAVSource(f, loop)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if src.Metadata.Empty() {
		base := path[strings.LastIndexAny(path, `/\`)+1:]
		src.Metadata.Title = strings.TrimSuffix(base, ".wav")
	}
	return src, nil
}

// NewWAVSource decodes a WAV stream.
func NewWAVSource(r io.ReadSeeker, loop bool) (*WAVSource, error) {
	d := wav.NewDecoder(r)
	d.ReadMetadata()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("failed to read WAV headers: %w", err)
	}
	if d.NumChans == 0 || d.BitDepth == 0 || d.SampleRate == 0 {
		return nil, errors.New("not a valid WAV file")
	}
	meta := d.Metadata

	if err := d.Rewind(); err != nil {
		return nil, err
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}

	chans := int(d.NumChans)
	bits := int(d.BitDepth)
	frames := len(buf.Data) / chans
	if frames == 0 {
		return nil, errors.New("WAV file has no samples")
	}

	src := &WAVSource{
		samples: make([]uint16, frames),
		rate:    float64(d.SampleRate),
		loop:    loop,
		now:     time.Now,
	}
	offset := 0
	if bits == 8 {
		offset = 128 // 8-bit PCM is unsigned
	}
	for i := range frames {
		sum := 0
		for ch := range chans {
			sum += buf.Data[i*chans+ch] - offset
		}
		src.samples[i] = bitint.FromSigned(sum/chans, bits, config.SampleBits)
	}
	if meta != nil {
		src.Metadata = sink.Metadata{Title: meta.Title, Artist: meta.Artist, Album: meta.Product}
	}
	src.start = src.now()

	log.Infof("WAV source: %d frames, %d channel(s), %d bit, %.0f Hz, %s",
		frames, chans, bits, src.rate, src.Duration())
	return src, nil
}

// Restart rewinds playback to the beginning.
func (s *WAVSource) Restart() {
	s.start = s.now()
}

// Duration returns the length of the file.
func (s *WAVSource) Duration() time.Duration {
	return time.Duration(float64(len(s.samples)) / s.rate * float64(time.Second))
}

// Finished reports whether a non-looping source has played to the end.
func (s *WAVSource) Finished() bool {
	return !s.loop && s.index() >= int64(len(s.samples))
}

func (s *WAVSource) index() int64 {
	return int64(s.now().Sub(s.start).Seconds() * s.rate)
}

// Read returns the sample playing now. After the end of a non-looping file
// the input is silent (mid-scale).
func (s *WAVSource) Read() uint16 {
	i := s.index()
	n := int64(len(s.samples))
	if i >= n {
		if !s.loop {
			return bitint.Mid(config.SampleBits)
		}
		i %= n
	}
	return s.samples[max(i, 0)]
}
