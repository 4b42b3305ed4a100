// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrBitDepth = errors.New("audio: unsupported bit depth")

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// WriteWAV writes clip to path as integer PCM. Sample values are rounded
// and must already lie in the range of bitDepth.
func WriteWAV(path string, clip *Clip, bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	if clip.Len() == 0 || clip.SampleRate <= 0 {
		return fmt.Errorf("%w: empty clip", ErrUnsupportedFormat)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	channels := clip.Channels()
	encoder := wav.NewEncoder(file, clip.SampleRate, bitDepth, channels, wavFormatPCM)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           make([]int, 0, clip.Len()*channels),
		SourceBitDepth: bitDepth,
	}
	for i := range clip.Len() {
		for j := range channels {
			buf.Data = append(buf.Data, int(math.Round(clip.Frames.At(i, j))))
		}
	}

	if err := encoder.Write(buf); err != nil {
		file.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
