// Package match scores one fingerprint against another by sliding the
// shorter along the longer and counting exact-equal feature triples, per
// SPEC_FULL.md §4.3.
package match

import "github.com/soundmatch/audiomatch/fingerprint"

// Epsilon is the tolerance used in place of exact float equality when
// comparing quantized feature values (SPEC_FULL.md §6).
const Epsilon = 1e-6

// Score slides the shorter of a, b along the longer and returns the maximum
// count of (t, o0, o1) triples whose F0/F1/F2 components all match within
// Epsilon, at the best alignment.
func Score(a, b *fingerprint.Fingerprint) int {
	scores := Scores(a, b)
	best := 0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	return best
}

// Scores returns the full sliding-score vector s(k) described in
// SPEC_FULL.md §4.3, for callers that need the whole alignment profile
// rather than just its peak.
func Scores(a, b *fingerprint.Fingerprint) []int {
	query, candidate := a, b
	if query.Windows > candidate.Windows {
		query, candidate = candidate, query
	}

	pad := query.Windows / 2
	paddedF0, paddedF1, paddedF2 := padTime(candidate, pad)

	convLen := len(paddedF0) - query.Windows + 1
	if convLen <= 0 {
		return []int{0}
	}

	octaves := fingerprint.Octaves
	scores := make([]int, convLen)
	for k := 0; k < convLen; k++ {
		count := 0
		for t := 0; t < query.Windows; t++ {
			qF0 := query.F0[t]
			qF1 := query.F1[t]
			qF2 := query.F2[t]
			cF0 := paddedF0[k+t]
			cF1 := paddedF1[k+t]
			cF2 := paddedF2[k+t]
			for o0 := 0; o0 < octaves; o0++ {
				if !approxEqual(qF0[o0], cF0[o0]) {
					continue
				}
				for o1 := 0; o1 < octaves; o1++ {
					if approxEqual(qF1[o1], cF1[o1]) && approxEqual(qF2[o1], cF2[o1]) {
						count++
					}
				}
			}
		}
		scores[k] = count
	}
	return scores
}

// padTime extends each of fp's three matrices by pad zero rows on both
// sides along the time axis (SPEC_FULL.md §4.3's padding step).
func padTime(fp *fingerprint.Fingerprint, pad int) (f0, f1, f2 [][]float64) {
	zero := make([]float64, fingerprint.Octaves)
	total := fp.Windows + 2*pad

	f0 = make([][]float64, total)
	f1 = make([][]float64, total)
	f2 = make([][]float64, total)
	for i := 0; i < pad; i++ {
		f0[i], f1[i], f2[i] = zero, zero, zero
	}
	for i := 0; i < fp.Windows; i++ {
		f0[pad+i] = fp.F0[i]
		f1[pad+i] = fp.F1[i]
		f2[pad+i] = fp.F2[i]
	}
	for i := pad + fp.Windows; i < total; i++ {
		f0[i], f1[i], f2[i] = zero, zero, zero
	}
	return f0, f1, f2
}

func approxEqual(x, y float64) bool {
	d := x - y
	if d < 0 {
		d = -d
	}
	return d < Epsilon
}
