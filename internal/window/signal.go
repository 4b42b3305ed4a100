// SPDX-License-Identifier: MIT
package window

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Signal is a read-only container that can be cut along one of its axes.
// The two implementations are Series (rank 1) and Frames (rank 2).
type Signal interface {
	// Rank returns the number of axes.
	Rank() int

	// Dim returns the length of a normalized (non-negative) axis.
	Dim(axis int) int

	// Slice returns the half-open range [start, end) along a normalized axis.
	// The result is a view of the same kind as the receiver.
	Slice(axis, start, end int) Signal
}

// Series is a one-dimensional signal such as an energy envelope.
type Series []float64

func (s Series) Rank() int { return 1 }

func (s Series) Dim(axis int) int { return len(s) }

func (s Series) Slice(axis, start, end int) Signal { return s[start:end:end] }

// Frames is a two-dimensional signal laid out as rows x columns. Decoded
// audio uses frames x channels, so axis 0 is time.
type Frames struct {
	*mat.Dense
}

// NewFrames wraps a row-major buffer of rows*cols values.
func NewFrames(rows, cols int, data []float64) Frames {
	return Frames{Dense: mat.NewDense(rows, cols, data)}
}

func (f Frames) Rank() int { return 2 }

func (f Frames) Dim(axis int) int {
	r, c := f.Dims()
	if axis == 0 {
		return r
	}
	return c
}

func (f Frames) Slice(axis, start, end int) Signal {
	r, c := f.Dims()
	if axis == 0 {
		return Frames{Dense: f.Dense.Slice(start, end, 0, c).(*mat.Dense)}
	}
	return Frames{Dense: f.Dense.Slice(0, r, start, end).(*mat.Dense)}
}

// NormalizeAxis maps a possibly negative axis onto [0, rank). -1 is the
// last axis.
func NormalizeAxis(axis, rank int) (int, error) {
	if axis >= rank || axis < -rank {
		return 0, fmt.Errorf("%w: the signal has %d dimensions, so axis must be in [%d, %d], got %d",
			ErrAxisRange, rank, -rank, rank-1, axis)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}

// Check reports ErrUnsupportedSignal for a nil signal or an empty Frames
// wrapper.
func Check(sig Signal) error {
	switch s := sig.(type) {
	case nil:
		return fmt.Errorf("%w: nil signal", ErrUnsupportedSignal)
	case Frames:
		if s.Dense == nil {
			return fmt.Errorf("%w: frames without a matrix", ErrUnsupportedSignal)
		}
	}
	return nil
}
