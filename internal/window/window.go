// SPDX-License-Identifier: MIT
/*
Package window breaks signals into (possibly overlapping) windows.

A window walk is described by a Spec. Window boundaries are tracked as
floating-point cursors and rounded half-to-even independently at every step,
so a fractional size or step produces integer windows that drift with the
cursor instead of accumulating error:

	Indices(10, Spec{Size: 3.7, Step: 2.1, AllowFloat: true})
	// (0,4) (2,6) (4,8) (6,10)

No apodization is applied. When the signal length is not the window size
plus a multiple of the step, trailing samples are dropped unless
IncludeShort is set.
*/
package window

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

var (
	ErrNotInteger        = errors.New("window: value must be an integer")
	ErrInvalidWindow     = errors.New("window: size and step must be positive and finite")
	ErrInvalidLength     = errors.New("window: number of samples must not be negative")
	ErrUnsupportedSignal = errors.New("window: unsupported signal")
	ErrAxisRange         = errors.New("window: axis out of range")
)

// Spec describes a window walk. The zero value of the flags gives the
// common case of full-length integer windows.
type Spec struct {
	Size float64 // Number of samples per window.
	Step float64 // Distance between the starts of consecutive windows.

	AllowFloat   bool // Accept fractional Size and Step.
	IncludeShort bool // Emit trailing windows cut short by the end of the signal.
	MinLength    int  // Skip windows shorter than this; values below 1 mean 1.
}

// Validate reports whether the spec can drive a walk.
func (s Spec) Validate() error {
	if !(s.Size > 0) || math.IsInf(s.Size, 0) || !(s.Step > 0) || math.IsInf(s.Step, 0) {
		return fmt.Errorf("%w: size=%v step=%v", ErrInvalidWindow, s.Size, s.Step)
	}
	if !s.AllowFloat {
		if s.Size != math.Trunc(s.Size) {
			return fmt.Errorf("%w: window size %v with AllowFloat unset", ErrNotInteger, s.Size)
		}
		if s.Step != math.Trunc(s.Step) {
			return fmt.Errorf("%w: step size %v with AllowFloat unset", ErrNotInteger, s.Step)
		}
	}
	return nil
}

func (s Spec) minLength() int {
	return max(s.MinLength, 1)
}

// Cursor walks the window ranges of a signal one at a time. A cursor is
// single-pass; create a new one to walk again.
type Cursor struct {
	n      int
	spec   Spec
	iStart float64
	iEnd   float64
	done   bool
}

// NewCursor validates the spec and positions a cursor before the first
// window of a signal with nSamples samples.
func NewCursor(nSamples int, spec Spec) (*Cursor, error) {
	if nSamples < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, nSamples)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Cursor{
		n:    nSamples,
		spec: spec,
		iEnd: spec.Size,
	}, nil
}

// Next returns the next half-open range [start, end). ok is false once
// the walk is over.
func (c *Cursor) Next() (start, end int, ok bool) {
	// Bounds are compared as floats; huge sizes or steps overflow int.
	n := float64(c.n)
	for !c.done && math.RoundToEven(c.iStart) <= n-1 {
		e := math.RoundToEven(c.iEnd)
		if e > n {
			if !c.spec.IncludeShort {
				break
			}
			e = n
		}

		a := int(math.RoundToEven(c.iStart))
		b := int(e)

		// The unclamped end carries forward.
		c.iStart += c.spec.Step
		c.iEnd += c.spec.Step

		if b-a >= c.spec.minLength() {
			return a, b, true
		}
	}
	c.done = true
	return 0, 0, false
}

// Indices returns the window ranges for a signal of nSamples samples. The
// sequence is lazy and can be ranged over any number of times.
func Indices(nSamples int, spec Spec) (iter.Seq2[int, int], error) {
	if _, err := NewCursor(nSamples, spec); err != nil {
		return nil, err
	}
	return func(yield func(int, int) bool) {
		c, _ := NewCursor(nSamples, spec)
		for {
			a, b, ok := c.Next()
			if !ok || !yield(a, b) {
				return
			}
		}
	}, nil
}

// Windows returns the windows of sig along axis as views of the same kind
// as sig. Negative axes count from the end.
func Windows(sig Signal, spec Spec, axis int) (iter.Seq[Signal], error) {
	if err := Check(sig); err != nil {
		return nil, err
	}
	ax, err := NormalizeAxis(axis, sig.Rank())
	if err != nil {
		return nil, err
	}
	ranges, err := Indices(sig.Dim(ax), spec)
	if err != nil {
		return nil, err
	}
	return func(yield func(Signal) bool) {
		for a, b := range ranges {
			if !yield(sig.Slice(ax, a, b)) {
				return
			}
		}
	}, nil
}
