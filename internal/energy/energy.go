// SPDX-License-Identifier: MIT
/*
Package energy reduces windows of a signal to their energy, the mean
absolute amplitude, producing an envelope that tracks how loud a recording
is over time.
*/
package energy

import (
	"errors"
	"fmt"
	"math"

	"talksync/internal/window"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptySignal    = errors.New("energy: signal is empty along the reduction axis")
	ErrWindowTooShort = errors.New("energy: window holds no samples")
)

// Energy returns the mean absolute value of sig along axis. A Series
// reduces to a single value. Frames reduced along axis 0 give one value per
// column (channel), along axis 1 one value per row (frame).
func Energy(sig window.Signal, axis int) ([]float64, error) {
	if err := window.Check(sig); err != nil {
		return nil, err
	}
	ax, err := window.NormalizeAxis(axis, sig.Rank())
	if err != nil {
		return nil, err
	}
	if sig.Dim(ax) == 0 {
		return nil, ErrEmptySignal
	}

	switch s := sig.(type) {
	case window.Series:
		return []float64{meanAbs(s, make([]float64, len(s)))}, nil

	case window.Frames:
		return framesEnergy(s.Dense, ax), nil
	}
	return nil, fmt.Errorf("%w: %T", window.ErrUnsupportedSignal, sig)
}

// framesEnergy reduces m along axis, reusing one scratch vector per call.
func framesEnergy(m *mat.Dense, axis int) []float64 {
	rows, cols := m.Dims()
	if axis == 0 {
		out := make([]float64, cols)
		scratch := make([]float64, rows)
		for j := range cols {
			out[j] = meanAbs(mat.Col(scratch, j, m), scratch)
		}
		return out
	}

	out := make([]float64, rows)
	scratch := make([]float64, cols)
	for i := range rows {
		out[i] = meanAbs(mat.Row(scratch, i, m), scratch)
	}
	return out
}

// meanAbs writes |x| into dst and returns its mean. dst may alias x.
func meanAbs(x, dst []float64) float64 {
	for i, v := range x {
		dst[i] = math.Abs(v)
	}
	return stat.Mean(dst[:len(x)], nil)
}

// Stream is a single-pass sequence of window energies. Once Next has
// returned false the stream is exhausted; callers that need the envelope
// more than once must keep the result of Collect.
type Stream struct {
	sig    window.Signal
	axis   int
	cursor *window.Cursor
	value  []float64
}

// WindowEnergy streams the energy of consecutive, non-overlapping windows of
// windowDuration seconds. The window length in samples is truncated to a
// whole number.
func WindowEnergy(sig window.Signal, sampleRate int, windowDuration float64, axis int) (*Stream, error) {
	if err := window.Check(sig); err != nil {
		return nil, err
	}
	ax, err := window.NormalizeAxis(axis, sig.Rank())
	if err != nil {
		return nil, err
	}

	samples := windowDuration * float64(sampleRate)
	if !(samples >= 1) || math.IsInf(samples, 0) {
		return nil, fmt.Errorf("%w: %vs at %d Hz", ErrWindowTooShort, windowDuration, sampleRate)
	}
	n := int(samples)

	cursor, err := window.NewCursor(sig.Dim(ax), window.Spec{
		Size: float64(n),
		Step: float64(n), // no overlap
	})
	if err != nil {
		return nil, err
	}

	return &Stream{sig: sig, axis: ax, cursor: cursor}, nil
}

// Next advances to the next window. It returns false when the signal is
// exhausted.
func (s *Stream) Next() bool {
	start, end, ok := s.cursor.Next()
	if !ok {
		s.value = nil
		return false
	}
	// Windows are never empty, so Energy cannot fail here.
	s.value, _ = Energy(s.sig.Slice(s.axis, start, end), s.axis)
	return true
}

// Value returns the energy of the current window.
func (s *Stream) Value() []float64 {
	return s.value
}

// Collect drains the remaining windows.
func (s *Stream) Collect() [][]float64 {
	var out [][]float64
	for s.Next() {
		out = append(out, s.value)
	}
	return out
}
