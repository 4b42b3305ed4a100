// SPDX-License-Identifier: MIT
/*
Package audio loads recordings into memory as frames x channels matrices.

WAV files are memory-mapped and parsed with go-audio/wav. Other containers
(video files, compressed audio) are converted to 16-bit PCM WAV by an
external ffmpeg process first. Sample values are kept as the raw integer
PCM values of the file, widened to float64.
*/
package audio

import (
	"time"

	"talksync/internal/window"

	"gonum.org/v1/gonum/mat"
)

// Clip is a decoded recording.
type Clip struct {
	SampleRate int
	Frames     *mat.Dense // frames x channels
}

// Len returns the number of frames.
func (c *Clip) Len() int {
	if c == nil || c.Frames == nil {
		return 0
	}
	rows, _ := c.Frames.Dims()
	return rows
}

// Channels returns the number of channels.
func (c *Clip) Channels() int {
	if c == nil || c.Frames == nil {
		return 0
	}
	_, cols := c.Frames.Dims()
	return cols
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.Len() == 0 || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Len()) / float64(c.SampleRate) * float64(time.Second))
}

// Signal returns the clip as a rank-2 signal sharing the clip's storage.
func (c *Clip) Signal() window.Frames {
	return window.Frames{Dense: c.Frames}
}

// Channel returns a copy of channel ch.
func (c *Clip) Channel(ch int) []float64 {
	return mat.Col(nil, ch, c.Frames)
}
