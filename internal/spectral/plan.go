// SPDX-License-Identifier: MIT
package spectral

import (
	"errors"
	"fmt"
	"sync"

	"talksync/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

var ErrPlanLength = errors.New("spectral: plan length must be a power of 2")

// planWorkspace holds pre-allocated buffers for one transform length.
type planWorkspace struct {
	input    []float64    // ...for zero-padded real input samples
	spectrum []complex128 // ...for the forward transform output
	saved    []complex128 // ...for the first spectrum, kept while the second is computed
	output   []float64    // ...for the inverse transform output
}

// plan is a reusable real FFT of a fixed length. The mutex covers the
// whole forward-copy-forward-inverse sequence because the workspace is
// shared by every convolution of that length.
type plan struct {
	mu        sync.Mutex
	n         int
	fft       *fourier.FFT
	workspace planWorkspace
}

func newPlan(n int) (*plan, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrPlanLength, n)
	}

	// Real input of length N has N/2 + 1 complex coefficients.
	bins := n/2 + 1

	return &plan{
		n:   n,
		fft: fourier.NewFFT(n),
		workspace: planWorkspace{
			input:    make([]float64, n),
			spectrum: make([]complex128, bins),
			saved:    make([]complex128, bins),
			output:   make([]float64, n),
		},
	}, nil
}

// PlanCache keeps transform plans keyed by padded FFT length. Entries are
// created on first use and never evicted, so memory grows with the number
// of distinct lengths seen. A PlanCache is safe for concurrent use.
type PlanCache struct {
	mu    sync.Mutex
	plans map[int]*plan
}

// NewPlanCache creates an empty cache.
func NewPlanCache() *PlanCache {
	return &PlanCache{plans: make(map[int]*plan)}
}

// get returns the plan for length n, building it on a miss.
func (c *PlanCache) get(n int) (*plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.plans[n]; ok {
		return p, nil
	}
	p, err := newPlan(n)
	if err != nil {
		return nil, err
	}
	c.plans[n] = p
	return p, nil
}

// Len returns the number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plans)
}

// Has reports whether a plan for length n has been built.
func (c *PlanCache) Has(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.plans[n]
	return ok
}
