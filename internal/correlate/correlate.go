// SPDX-License-Identifier: MIT
/*
Package correlate estimates the time offset between two recordings of the
same event.

Each recording is reduced to an energy envelope, one value per window per
channel, and the envelopes of the chosen channel are cross-correlated:

	c := correlate.New(audio.NewFFmpegDecoder(nil, "", ""), nil)
	res, err := c.CorrelateFiles(ctx, "camera.mp4", "recorder.wav", 1.0, 0)
	lag, _ := res.Peak()   // -d when the second file lags the first by d
	delay := res.Offset()  // d, the shift to apply to the second file

Working on envelopes rather than raw samples keeps the correlation short and
tolerant of differences in microphones and gain.
*/
package correlate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"talksync/internal/audio"
	"talksync/internal/energy"
	"talksync/internal/log"
	"talksync/internal/spectral"
	"talksync/pkg/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrDecode          = errors.New("correlate: decoding failed")
	ErrChannelRange    = errors.New("correlate: channel out of range")
	ErrInvalidDuration = errors.New("correlate: window duration must be positive and finite")
)

// Decoder loads a recording.
type Decoder interface {
	Decode(ctx context.Context, path string) (*audio.Clip, error)
}

// Correlator computes envelope cross-correlations of audio files.
type Correlator struct {
	decoder Decoder
	conv    *spectral.Convolver
}

// New creates a correlator. A nil conv gets a convolver with its own plan
// cache; services pass a shared one.
func New(decoder Decoder, conv *spectral.Convolver) *Correlator {
	if conv == nil {
		conv = spectral.NewConvolver(nil)
	}
	return &Correlator{decoder: decoder, conv: conv}
}

// Result is the correlation curve of two envelopes.
type Result struct {
	Lags           []float64 // seconds, ascending
	Correlation    []float64
	WindowDuration float64
}

// Peak returns the lag with the highest correlation and its value. The
// earliest lag wins a tie.
func (r *Result) Peak() (lag, value float64) {
	if len(r.Correlation) == 0 {
		return 0, 0
	}
	i := utils.FindPeak(r.Correlation, 0, len(r.Correlation)-1)
	return r.Lags[i], r.Correlation[i]
}

// Offset returns the delay to apply to the second recording so that it
// lines up with the first.
func (r *Result) Offset() time.Duration {
	lag, _ := r.Peak()
	return time.Duration(math.Round(-lag * float64(time.Second)))
}

// CorrelateFiles decodes both files concurrently, computes their energy
// envelopes with windows of windowDuration seconds and cross-correlates the
// envelopes of channel.
func (c *Correlator) CorrelateFiles(ctx context.Context, file1, file2 string, windowDuration float64, channel int) (*Result, error) {
	if err := checkDuration(windowDuration); err != nil {
		return nil, err
	}
	if channel < 0 {
		return nil, fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}

	// The first failure cancels the other decode.
	var e1, e2 []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		e1, err = c.channelEnvelope(gctx, file1, windowDuration, channel)
		return err
	})
	g.Go(func() (err error) {
		e2, err = c.channelEnvelope(gctx, file2, windowDuration, channel)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	corr, err := c.conv.CrossCorrelate(e1, e2)
	if err != nil {
		return nil, fmt.Errorf("correlate %s and %s: %w", file1, file2, err)
	}

	res := &Result{
		Lags:           spectral.TimeAxis(len(e1), len(e2), 1/windowDuration),
		Correlation:    corr,
		WindowDuration: windowDuration,
	}

	lag, peak := res.Peak()
	log.Debugf("correlate: %s vs %s: %d x %d windows, peak %.6g at %.3fs",
		file1, file2, len(e1), len(e2), peak, lag)
	return res, nil
}

// Envelope returns the energy envelope of every channel of path, indexed
// [channel][window].
func (c *Correlator) Envelope(ctx context.Context, path string, windowDuration float64) ([][]float64, error) {
	if err := checkDuration(windowDuration); err != nil {
		return nil, err
	}

	clip, err := c.decoder.Decode(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if clip == nil {
		return nil, fmt.Errorf("%w: %s: no audio", ErrDecode, path)
	}

	stream, err := energy.WindowEnergy(clip.Signal(), clip.SampleRate, windowDuration, 0)
	if err != nil {
		return nil, fmt.Errorf("envelope of %s: %w", path, err)
	}

	envelopes := make([][]float64, clip.Channels())
	for stream.Next() {
		for ch, v := range stream.Value() {
			envelopes[ch] = append(envelopes[ch], v)
		}
	}

	log.Debugf("correlate: %s: %d channels, %d windows of %gs",
		path, len(envelopes), len(envelopes[0]), windowDuration)
	return envelopes, nil
}

func (c *Correlator) channelEnvelope(ctx context.Context, path string, windowDuration float64, channel int) ([]float64, error) {
	envelopes, err := c.Envelope(ctx, path, windowDuration)
	if err != nil {
		return nil, err
	}
	if channel >= len(envelopes) {
		return nil, fmt.Errorf("%w: %s has %d channels, requested %d",
			ErrChannelRange, path, len(envelopes), channel)
	}
	return envelopes[channel], nil
}

func checkDuration(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}
	return nil
}
