// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/pkg/bitint"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultRecordingName returns recording-DD-MM-YYYY-HHMMSS.wav for t in UTC.
func DefaultRecordingName(t time.Time) string {
	return "recording-" + t.UTC().Format("02-01-2006-150405") + ".wav"
}

// StartRecording starts writing every acquired frame to a mono PCM WAV file.
// The 12-bit samples are centred and shifted to the configured bit depth.
func (e *Engine) StartRecording(filename string) error {
	if e.recording.Load() {
		return fmt.Errorf("already recording")
	}

	bits := e.recordBits
	if bits == 0 {
		bits = config.DefaultRecordBitDepth
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	rate := int(e.cfg.SampleRate)
	e.wavEncoder = wav.NewEncoder(file, rate, bits, 1, 1)
	e.sampleBuf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, e.cfg.Samples),
		SourceBitDepth: bits,
	}
	e.recordBits = bits

	e.recording.Store(true)
	log.Infof("Recording: writing %d-bit frames to %s", bits, filename)
	return nil
}

// StopRecording finishes the file. The track playing at this point is stored
// in the file's INFO chunk. The file is closed even if finishing it fails.
func (e *Engine) StopRecording() error {
	if !e.recording.Swap(false) {
		return nil
	}

	var encErr, fileErr error
	if e.wavEncoder != nil {
		if e.state != nil {
			if m := e.state.Metadata(); !m.Empty() {
				e.wavEncoder.Metadata = &wav.Metadata{
					Title:    m.Title,
					Artist:   m.Artist,
					Product:  m.Album,
					Software: "visualizer",
				}
			}
		}
		encErr = e.wavEncoder.Close()
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		fileErr = e.outputFile.Close()
		e.outputFile = nil
	}
	return errors.Join(encErr, fileErr)
}

// Recording reports whether frames are being written.
func (e *Engine) Recording() bool {
	return e.recording.Load()
}

// recordFrame appends the raw samples of one frame to the recording.
func (e *Engine) recordFrame(samples []float64) {
	if !e.recording.Load() || e.wavEncoder == nil {
		return
	}
	for i, v := range samples {
		e.sampleBuf.Data[i] = bitint.ToSigned(uint16(v), config.SampleBits, e.recordBits)
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(samples)]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		log.Errorf("Error writing to WAV file: %v", err)
	}
}
