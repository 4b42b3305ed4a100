// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"talksync/internal/log"

	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/mat"
)

var ErrUnsupportedFormat = errors.New("audio: unsupported or malformed audio file")

// WAVDecoder reads PCM WAV files through a memory mapping of the file.
type WAVDecoder struct{}

// NewWAVDecoder creates a WAV decoder.
func NewWAVDecoder() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode maps path into memory and decodes it.
func (d *WAVDecoder) Decode(ctx context.Context, path string) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			log.Warnf("audio: releasing %s: %v", path, err)
		}
	}()

	clip, err := DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debugf("audio: decoded %s (%d frames, %d channels, %d Hz)",
		path, clip.Len(), clip.Channels(), clip.SampleRate)
	return clip, nil
}

// DecodeWAV parses a complete WAV stream. The samples are copied out of r,
// so r may be released once DecodeWAV returns.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM WAV stream", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	channels := int(dec.NumChans)
	if channels < 1 || len(buf.Data) < channels {
		return nil, fmt.Errorf("%w: no samples", ErrUnsupportedFormat)
	}

	// A trailing partial frame is dropped.
	frames := len(buf.Data) / channels
	data := make([]float64, frames*channels)
	for i := range data {
		data[i] = float64(buf.Data[i])
	}

	return &Clip{
		SampleRate: int(dec.SampleRate),
		Frames:     mat.NewDense(frames, channels, data),
	}, nil
}
