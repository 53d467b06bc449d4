// Package testwav writes mono WAV fixtures for the engine's package tests,
// adapted from the teacher module's internal/fitcommon WAV helpers so every
// test that needs a synthetic tone on disk shares one writer instead of
// reimplementing the cwbudde/wav + go-audio/audio encoder call.
package testwav

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// WriteMonoSineWAV writes a single-channel 16-bit PCM WAV containing a pure
// sine tone of the given frequency and duration.
func WriteMonoSineWAV(path string, sampleRate int, freq, durationSec, amplitude float64) error {
	n := int(float64(sampleRate) * durationSec)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return WriteMonoWAV(path, samples, sampleRate)
}

// WriteMonoWAV writes data as a single-channel 16-bit PCM WAV.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("testwav: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("testwav: encode %s: %w", path, err)
	}
	return nil
}
