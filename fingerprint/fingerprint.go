// Package fingerprint builds the translation-equivariant, per-octave
// dominant-frequency fingerprint the matcher compares. See SPEC_FULL.md §3
// and §4.2 for the full data model and algorithm.
package fingerprint

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/soundmatch/audiomatch/internal/fftplan"
)

// Canonical, bit-exact parameters (SPEC_FULL.md §6).
const (
	BaseFreq = 220.0 // A3, Hz
	Octaves  = 12

	// OctaveRatio spans a half-octave (tritone) in the musical sense, not a
	// full octave — the name is the original product's, kept verbatim
	// because the 12-band, 220-14080Hz span depends on this exact value.
	OctaveRatio   = math.Sqrt2
	WindowSeconds = 0.02
	FFTSize       = 1024
	MatchWindows  = 3
)

// Sentinel errors.
var (
	ErrParameterInvalid = errors.New("fingerprint: parameter invalid")
)

// Fingerprint is the three-matrix storage of the conceptual
// (W-2, 12, 12, 3) tensor described in SPEC_FULL.md §3 and §9: F0 carries
// the δ=0 slice (broadcasts over o₁), F1 and F2 carry the δ=1,2 slices
// (broadcast over o₀). Each matrix has shape (Windows, Octaves), where
// Windows = W-2.
type Fingerprint struct {
	Windows int
	F0      [][]float64
	F1      [][]float64
	F2      [][]float64
}

// SamplesPerWindow reports n_per_window, the number of samples spanned by
// one analysis window at the given sample rate (SPEC_FULL.md §6/§7). A
// channel with fewer samples than this cannot fill a single real analysis
// window, regardless of sample rate.
func SamplesPerWindow(sampleRate int) int {
	return int(WindowSeconds * float64(sampleRate))
}

// Build converts one preprocessed mono stream, already at the canonical
// sample rate, into a Fingerprint.
func Build(samples []float64, sampleRate int) (*Fingerprint, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrParameterInvalid, sampleRate)
	}

	nPerWindow := SamplesPerWindow(sampleRate)
	if nPerWindow <= 0 {
		return nil, fmt.Errorf("%w: window size collapsed to 0 samples at %d Hz", ErrParameterInvalid, sampleRate)
	}
	if nPerWindow > FFTSize {
		return nil, fmt.Errorf("%w: window of %d samples exceeds FFT size %d", ErrParameterInvalid, nPerWindow, FFTSize)
	}

	freqScaling := float64(nPerWindow) / float64(sampleRate)
	bounds, err := octaveBounds(freqScaling)
	if err != nil {
		return nil, err
	}

	numWindows := 0
	if len(samples) > 0 {
		numWindows = (len(samples) + nPerWindow - 1) / nPerWindow
	}

	plan, err := fftplan.Get(FFTSize)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: fft plan: %w", err)
	}

	feature := make([][]float64, numWindows)
	windowBuf := make([]float64, FFTSize)
	spectrum := make([]complex128, FFTSize/2+1)

	for w := 0; w < numWindows; w++ {
		for i := range windowBuf {
			windowBuf[i] = 0
		}
		start := w * nPerWindow
		end := start + nPerWindow
		if end > len(samples) {
			end = len(samples)
		}
		copy(windowBuf, samples[start:end])

		if err := plan.Forward(spectrum, windowBuf); err != nil {
			return nil, fmt.Errorf("fingerprint: fft forward: %w", err)
		}

		row := make([]float64, Octaves)
		for o := 0; o < Octaves; o++ {
			b := bounds[o]
			peakBin := argmaxMagnitude(spectrum, b.lo, b.hi)
			row[o] = math.Log2(float64(peakBin) / b.loScaled)
		}
		feature[w] = row
	}

	// Pad to MatchWindows if the stream produced fewer windows.
	for len(feature) < MatchWindows {
		feature = append(feature, make([]float64, Octaves))
	}

	return assemble(feature), nil
}

type octaveBound struct {
	lo, hi   int     // FFT bin range, half-open [lo, hi)
	loScaled float64 // lo(o) before flooring, used as the log2 denominator
}

// octaveBounds computes, for every octave, the [lo,hi) FFT-bin range and
// rejects octaves whose range is empty (SPEC_FULL.md §4.2, ParameterInvalid).
func octaveBounds(freqScaling float64) ([]octaveBound, error) {
	bounds := make([]octaveBound, Octaves)
	for o := 0; o < Octaves; o++ {
		loScaled := BaseFreq * math.Pow(OctaveRatio, float64(o)) * freqScaling
		hiScaled := BaseFreq * math.Pow(OctaveRatio, float64(o+1)) * freqScaling
		lo := int(math.Floor(loScaled))
		hi := int(math.Floor(hiScaled))
		if hi <= lo {
			return nil, fmt.Errorf("%w: octave %d has empty FFT-bin range [%d,%d)", ErrParameterInvalid, o, lo, hi)
		}
		bounds[o] = octaveBound{lo: lo, hi: hi, loScaled: loScaled}
	}
	return bounds, nil
}

// argmaxMagnitude returns the FFT bin (in absolute spectrum-index units,
// i.e. argmax + lo) of maximum magnitude within spectrum[lo:hi]. Ties break
// to the lowest bin index; NaN/zero magnitudes never win against a
// non-anomalous candidate, so the lowest bin still wins by default.
func argmaxMagnitude(spectrum []complex128, lo, hi int) int {
	if hi > len(spectrum) {
		hi = len(spectrum)
	}
	bestIdx := lo
	bestMag := -1.0
	for i := lo; i < hi; i++ {
		mag := cmplx.Abs(spectrum[i])
		if mag > bestMag {
			bestMag = mag
			bestIdx = i
		}
	}
	return bestIdx
}

// assemble builds F0, F1, F2 from the per-window feature matrix, each of
// shape (W-2, Octaves), per SPEC_FULL.md §4.2's delta-time slicing.
func assemble(feature [][]float64) *Fingerprint {
	w := len(feature) - (MatchWindows - 1)
	fp := &Fingerprint{
		Windows: w,
		F0:      make([][]float64, w),
		F1:      make([][]float64, w),
		F2:      make([][]float64, w),
	}
	for t := 0; t < w; t++ {
		fp.F0[t] = feature[t]
		fp.F1[t] = feature[t+1]
		fp.F2[t] = feature[t+2]
	}
	return fp
}

// At reconstructs the conceptual broadcast-tensor cell value (t, o0, o1,
// delta) described in SPEC_FULL.md §3, for tests and documentation purposes.
func (fp *Fingerprint) At(t, o0, o1, delta int) float64 {
	switch delta {
	case 0:
		return fp.F0[t][o0]
	case 1:
		return fp.F1[t][o1]
	case 2:
		return fp.F2[t][o1]
	default:
		panic("fingerprint: delta must be in {0,1,2}")
	}
}
