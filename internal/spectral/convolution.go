// SPDX-License-Identifier: MIT
/*
Package spectral computes linear convolution and cross-correlation of real
sequences by multiplying zero-padded real FFTs.

Transform plans and their scratch buffers are kept in a PlanCache keyed by
the padded length, so repeated work on envelopes of similar length reuses
the same plan:

	conv := spectral.NewConvolver(nil)
	corr, err := conv.CrossCorrelate(e1, e2)
	lags := spectral.TimeAxis(len(e1), len(e2), 1/windowDuration)
*/
package spectral

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"talksync/pkg/bitint"
)

var (
	ErrNonFinite  = errors.New("spectral: input contains non-finite values")
	ErrEmptyInput = errors.New("spectral: input is empty")
)

// Convolver performs FFT convolutions using plans from its cache.
type Convolver struct {
	cache *PlanCache
}

// NewConvolver creates a convolver backed by cache. A nil cache gets a
// fresh one.
func NewConvolver(cache *PlanCache) *Convolver {
	if cache == nil {
		cache = NewPlanCache()
	}
	return &Convolver{cache: cache}
}

// Cache returns the plan cache used by the convolver.
func (c *Convolver) Cache() *PlanCache {
	return c.cache
}

// SmallestPowerOfTwoGreaterThan returns the padded FFT length for a linear
// convolution of n samples: the smallest power of two that is >= n. An
// exact power of two is returned unchanged.
func SmallestPowerOfTwoGreaterThan(n int) int {
	return bitint.NextPowerOfTwo(n)
}

// Convolve returns the linear convolution of x and h, of length
// len(x)+len(h)-1. Both inputs must be non-empty and finite.
func (c *Convolver) Convolve(x, h []float64) ([]float64, error) {
	if err := checkInput("x", x); err != nil {
		return nil, err
	}
	if err := checkInput("h", h); err != nil {
		return nil, err
	}

	nMin := len(x) + len(h) - 1
	p, err := c.cache.get(SmallestPowerOfTwoGreaterThan(nMin))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ws := &p.workspace

	// The second forward transform overwrites the spectrum buffer, so the
	// first one is saved before it runs.
	pad(ws.input, x)
	p.fft.Coefficients(ws.spectrum, ws.input)
	copy(ws.saved, ws.spectrum)

	pad(ws.input, h)
	p.fft.Coefficients(ws.spectrum, ws.input)

	for i := range ws.spectrum {
		ws.spectrum[i] *= ws.saved[i]
	}

	// gonum's inverse is unnormalized.
	p.fft.Sequence(ws.output, ws.spectrum)
	scale := 1 / float64(p.n)

	out := make([]float64, nMin)
	for i := range out {
		out[i] = ws.output[i] * scale
	}
	return out, nil
}

// CrossCorrelate returns the cross-correlation of x and h: the convolution
// of x with h reversed. Index i holds lag SampleAxis(len(x), len(h))[i],
// and the value at lag k is sum_i x[i]*h[i-k].
func (c *Convolver) CrossCorrelate(x, h []float64) ([]float64, error) {
	reversed := slices.Clone(h)
	slices.Reverse(reversed)
	return c.Convolve(x, reversed)
}

// SampleAxis returns the integer lags of a cross-correlation of sequences
// of length nx and nh: -(nh-1) ... nx-1.
func SampleAxis(nx, nh int) []int {
	if nx+nh-1 <= 0 {
		return []int{}
	}
	lags := make([]int, 0, nx+nh-1)
	for k := -(nh - 1); k < nx; k++ {
		lags = append(lags, k)
	}
	return lags
}

// TimeAxis returns SampleAxis in seconds for the given sample rate.
func TimeAxis(nx, nh int, sampleRate float64) []float64 {
	samples := SampleAxis(nx, nh)
	lags := make([]float64, len(samples))
	for i, k := range samples {
		lags[i] = float64(k) / sampleRate
	}
	return lags
}

func checkInput(name string, v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: input signal %s", ErrEmptyInput, name)
	}
	for _, s := range v {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: input signal %s", ErrNonFinite, name)
		}
	}
	return nil
}

// pad copies src into dst and zeroes the remainder.
func pad(dst, src []float64) {
	n := copy(dst, src)
	clear(dst[n:])
}
