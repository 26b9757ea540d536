// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/sampling"
	"visualizer/internal/sink"
	"visualizer/pkg/bitint"
	"visualizer/pkg/utils"

	"github.com/go-audio/wav"
)

func TestEngine_Recording(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "frames.wav")
	state := newTestState(t, 64, true)
	state.SetMetadata(sink.Metadata{Title: "Song", Artist: "Band", Album: "Record"})
	frame := utils.BinSine(config.DefaultSamples, 4, 1000)
	e := newTestEngine(t, testConfig(), sampling.NewFrame(frame), &countingSurface{w: 128, h: 160}, state)

	if err := e.StartRecording(filename); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := e.StartRecording(filename); err == nil {
		t.Error("expected error when already recording")
	}
	for range 3 {
		e.Step()
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if e.Recording() {
		t.Error("still recording after Close")
	}
	if err := e.StopRecording(); err != nil {
		t.Errorf("StopRecording when not recording: %v", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	d.ReadMetadata()
	if d.Metadata == nil || d.Metadata.Title != "Song" || d.Metadata.Product != "Record" {
		t.Errorf("metadata = %+v", d.Metadata)
	}
	if err := d.Rewind(); err != nil {
		t.Fatal(err)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if d.NumChans != 1 || d.BitDepth != 16 || d.SampleRate != 44100 {
		t.Errorf("format = %d ch, %d bit, %d Hz", d.NumChans, d.BitDepth, d.SampleRate)
	}
	if len(buf.Data) != 3*len(frame) {
		t.Fatalf("recorded %d samples; expected %d", len(buf.Data), 3*len(frame))
	}
	for i, v := range buf.Data {
		if want := bitint.ToSigned(frame[i%len(frame)], 12, 16); v != want {
			t.Fatalf("sample %d = %d; expected %d", i, v, want)
		}
	}
}

func TestStartRecording_InvalidPath(t *testing.T) {
	t.Parallel()
	state := newTestState(t, 64, true)
	e := newTestEngine(t, testConfig(), sineSource(), &countingSurface{w: 128, h: 160}, state)
	if err := e.StartRecording("/nonexistent/path/file.wav"); err == nil {
		t.Error("expected error for an invalid path")
	}
	if e.Recording() {
		t.Error("recording after a failed start")
	}
}

func TestStopRecording_ClosesFileOnEncoderError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	state := newTestState(t, 64, true)
	e := newTestEngine(t, testConfig(), sineSource(), &countingSurface{w: 128, h: 160}, state)

	if err := e.StartRecording(filepath.Join(dir, "broken.wav")); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	e.Step()
	// Closing the file underneath the encoder makes finishing the header fail.
	e.outputFile.Close()

	if err := e.StopRecording(); err == nil {
		t.Error("expected error when the header cannot be written")
	}
	if e.Recording() || e.wavEncoder != nil || e.outputFile != nil {
		t.Errorf("recording state kept after a failed stop: recording=%v encoder=%v file=%v",
			e.Recording(), e.wavEncoder != nil, e.outputFile != nil)
	}
	if err := e.StopRecording(); err != nil {
		t.Errorf("second StopRecording: %v", err)
	}

	if err := e.StartRecording(filepath.Join(dir, "next.wav")); err != nil {
		t.Fatalf("StartRecording after a failed stop: %v", err)
	}
	if err := e.StopRecording(); err != nil {
		t.Errorf("StopRecording: %v", err)
	}
}

func TestDefaultRecordingName(t *testing.T) {
	t.Parallel()
	ts := time.Date(2025, 3, 7, 9, 5, 1, 0, time.UTC)
	if got := DefaultRecordingName(ts); got != "recording-07-03-2025-090501.wav" {
		t.Errorf("DefaultRecordingName = %q", got)
	}
}
