package preprocess

import (
	"math"
	"testing"

	"github.com/soundmatch/audiomatch/pcm"
)

func TestTrimSilenceRemovesLeadingAndTrailingQuiet(t *testing.T) {
	const sr = 44100
	silence := make([]float64, sr/2)
	tone := makeSine(sr, 440, 0.2)
	samples := concat(silence, tone, silence)

	cfg := DefaultConfig()
	trimmed := TrimSilence(samples, cfg.SilenceTopDB, cfg.SilenceFrame, cfg.SilenceHop)

	if len(trimmed) == 0 {
		t.Fatalf("trimmed signal is empty")
	}
	if len(trimmed) >= len(samples) {
		t.Fatalf("trimmed length %d, want shorter than input %d", len(trimmed), len(samples))
	}
}

func TestTrimSilenceOfPureSilenceIsEmpty(t *testing.T) {
	samples := make([]float64, 44100)
	cfg := DefaultConfig()
	trimmed := TrimSilence(samples, cfg.SilenceTopDB, cfg.SilenceFrame, cfg.SilenceHop)
	if len(trimmed) != 0 {
		t.Fatalf("trimmed length = %d, want 0 for pure silence", len(trimmed))
	}
}

func TestResampleNoopWhenRatesMatch(t *testing.T) {
	samples := makeSine(44100, 440, 0.01)
	out, err := Resample(samples, 44100, 44100)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != len(samples) {
		t.Fatalf("Resample() changed length with equal rates: %d vs %d", len(out), len(samples))
	}
}

func TestResampleChangesLengthProportionally(t *testing.T) {
	samples := makeSine(44100, 440, 1.0)
	out, err := Resample(samples, 44100, 22050)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	wantLen := len(samples) / 2
	if out == nil || abs(len(out)-wantLen) > wantLen/10 {
		t.Fatalf("Resample() length = %d, want close to %d", len(out), wantLen)
	}
}

func TestSelectChannelsForcesMono(t *testing.T) {
	buf := &pcm.Buffer{Data: [][]float64{{1, 1}, {-1, -1}}, SampleRate: 44100}
	out, err := SelectChannels(buf, true, nil)
	if err != nil {
		t.Fatalf("SelectChannels() error = %v", err)
	}
	if out.NumChannels() != 1 {
		t.Fatalf("NumChannels() = %d, want 1", out.NumChannels())
	}
}

func makeSine(sampleRate int, freq, durationSec float64) []float64 {
	n := int(float64(sampleRate) * durationSec)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
