// Package preprocess trims silence and resamples PCM buffers to the
// fingerprint builder's canonical sample rate, mirroring the librosa-based
// contract (trim(top_db=120, frame_length=1024, hop_length=256) +
// resample) the original product relied on.
package preprocess

import (
	"fmt"
	"math"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/soundmatch/audiomatch/pcm"
)

// Config holds the canonical, bit-exact parameters for preprocessing.
type Config struct {
	TargetSampleRate int
	SilenceTopDB     float64
	SilenceFrame     int
	SilenceHop       int
}

// DefaultConfig returns the canonical parameters from SPEC_FULL.md §6.
func DefaultConfig() Config {
	return Config{
		TargetSampleRate: 44100,
		SilenceTopDB:     120.0,
		SilenceFrame:     1024,
		SilenceHop:       256,
	}
}

// SelectChannels reduces buf to the requested channels, honoring forceMono
// (which averages first) the same way the original product's
// load_file(force_to_mono, selected_channels) does.
func SelectChannels(buf *pcm.Buffer, forceMono bool, channels []int) (*pcm.Buffer, error) {
	if forceMono {
		buf = buf.Mono()
	}
	if channels == nil {
		return buf, nil
	}
	return buf.Select(channels)
}

// Channel runs the full single-channel preprocessing pass: trim silence,
// then resample to cfg.TargetSampleRate.
func Channel(cfg Config, samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("preprocess: invalid sample rate %d", sampleRate)
	}

	trimmed := TrimSilence(samples, cfg.SilenceTopDB, cfg.SilenceFrame, cfg.SilenceHop)

	if sampleRate == cfg.TargetSampleRate {
		return trimmed, nil
	}
	return Resample(trimmed, sampleRate, cfg.TargetSampleRate)
}

// TrimSilence removes leading and trailing samples whose short-term frame
// energy sits more than topDB below the peak frame energy, measured over
// analysis frames of size frameLen that start every hop samples (frames
// overlap when hop < frameLen) — the same frame_length/hop_length parameters
// librosa.effects.trim takes, reimplemented here so the engine has no Python
// runtime dependency. Only complete frames are measured (a signal no longer
// than frameLen is one frame), so samples past the last complete frame are
// dropped even when they are not quiet.
func TrimSilence(samples []float64, topDB float64, frameLen, hop int) []float64 {
	n := len(samples)
	if n == 0 || frameLen <= 0 || hop <= 0 {
		return samples
	}

	numFrames := 0
	if n > frameLen {
		numFrames = (n-frameLen)/hop + 1
	} else {
		numFrames = 1
	}

	frameEnergy := make([]float64, numFrames)
	peak := 0.0
	for f := 0; f < numFrames; f++ {
		start := f * hop
		end := start + frameLen
		if end > n {
			end = n
		}
		var sum float64
		for i := start; i < end; i++ {
			sum += samples[i] * samples[i]
		}
		frameEnergy[f] = sum
		if sum > peak {
			peak = sum
		}
	}

	if peak <= 0 {
		return samples[:0]
	}

	threshold := peak * math.Pow(10, -topDB/10)

	firstActive := -1
	lastActive := -1
	for f := 0; f < numFrames; f++ {
		if frameEnergy[f] >= threshold {
			if firstActive == -1 {
				firstActive = f
			}
			lastActive = f
		}
	}
	if firstActive == -1 {
		return samples[:0]
	}

	start := firstActive * hop
	end := lastActive*hop + frameLen
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return samples[start:end]
}

// Resample converts samples from fromRate to toRate using algo-dsp's
// best-quality band-limited interpolator, the same call the teacher module
// makes from internal/fitcommon.ResampleIfNeeded and every one of its cmd/
// tools.
func Resample(samples []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return samples, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("preprocess: resample %d->%d: %w", fromRate, toRate, err)
	}
	return r.Process(samples), nil
}
