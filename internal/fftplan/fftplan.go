// Package fftplan caches algo-fft real-valued FFT plans, reusing the
// fast-plan-with-safe-fallback pattern from the teacher module's
// analysis/distance.go (lagFFTPlan/spectralFFTPlan) so every fingerprint
// Builder of a given FFT size shares one plan instead of allocating twiddle
// tables per call.
package fftplan

import (
	"errors"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// Plan wraps a real-valued forward FFT plan, preferring algo-fft's
// allocation-free FastPlanReal64 and falling back to the safe generic plan
// when a fast plan isn't available for the requested size.
type Plan struct {
	mu   sync.Mutex
	size int
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

var cache sync.Map // map[int]*Plan

// Get returns the cached plan for the given real-input FFT size, building it
// on first use.
func Get(size int) (*Plan, error) {
	if v, ok := cache.Load(size); ok {
		return v.(*Plan), nil
	}

	p := &Plan{size: size}

	fast, err := algofft.NewFastPlanReal64(size)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		// Ignore fast-plan setup errors and rely on the safe plan.
	}

	safe, err := algofft.NewPlanReal64(size)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	actual, _ := cache.LoadOrStore(size, p)
	return actual.(*Plan), nil
}

// Forward computes the magnitude-capable forward FFT of src (length == Size)
// into dst (length == Size/2+1), thread-safely.
func (p *Plan) Forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("fftplan: no forward plan available")
}

// Size reports the real-input FFT length this plan was built for.
func (p *Plan) Size() int {
	return p.size
}
