package match

import (
	"math"
	"testing"

	"github.com/soundmatch/audiomatch/fingerprint"
)

const sampleRate = 44100

func TestScoreSelfMatchPeaksAtFullCellCount(t *testing.T) {
	samples := makeSine(440.0, 1.0)
	fp, err := fingerprint.Build(samples, sampleRate)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := Score(fp, fp)
	want := fp.Windows * fingerprint.Octaves * fingerprint.Octaves
	if got != want {
		t.Fatalf("Score(self) = %d, want %d", got, want)
	}
}

func TestScoreEmbeddedQueryMatchesCandidateClosely(t *testing.T) {
	candidate := makeSine(440.0, 0.5)
	query := concat(makeSilence(1.0), candidate, makeSilence(1.0))

	candFP, err := fingerprint.Build(candidate, sampleRate)
	if err != nil {
		t.Fatalf("Build(candidate) error = %v", err)
	}
	queryFP, err := fingerprint.Build(query, sampleRate)
	if err != nil {
		t.Fatalf("Build(query) error = %v", err)
	}

	selfScore := Score(candFP, candFP)
	got := Score(queryFP, candFP)
	if got < selfScore/2 {
		t.Fatalf("Score(embedded) = %d, want at least half of self-match %d", got, selfScore)
	}
}

func TestScoreWrongPitchScoresLow(t *testing.T) {
	query := makeSine(440.0, 0.5)
	candidate := makeSine(880.0, 0.5)

	queryFP, err := fingerprint.Build(query, sampleRate)
	if err != nil {
		t.Fatalf("Build(query) error = %v", err)
	}
	candFP, err := fingerprint.Build(candidate, sampleRate)
	if err != nil {
		t.Fatalf("Build(candidate) error = %v", err)
	}
	selfScore := Score(queryFP, queryFP)

	got := Score(queryFP, candFP)
	if got > selfScore/20 {
		t.Fatalf("Score(wrong pitch) = %d, want <= 5%% of self-match %d", got, selfScore)
	}
}

func TestScoreIsSymmetricInArgumentOrder(t *testing.T) {
	a := makeSine(440.0, 0.3)
	b := makeSine(440.0, 0.7)

	fa, err := fingerprint.Build(a, sampleRate)
	if err != nil {
		t.Fatalf("Build(a) error = %v", err)
	}
	fb, err := fingerprint.Build(b, sampleRate)
	if err != nil {
		t.Fatalf("Build(b) error = %v", err)
	}

	if Score(fa, fb) != Score(fb, fa) {
		t.Fatalf("Score(a,b) = %d != Score(b,a) = %d", Score(fa, fb), Score(fb, fa))
	}
}

func makeSine(freq, durationSec float64) []float64 {
	n := int(float64(sampleRate) * durationSec)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func makeSilence(durationSec float64) []float64 {
	return make([]float64, int(float64(sampleRate)*durationSec))
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
