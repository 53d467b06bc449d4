package decode

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/soundmatch/audiomatch/pcm"
)

// PCMDecoder decodes uncompressed and MP3 audio files, the way the teacher
// module's internal/fitcommon.ReadWAVMono reads WAV fixtures, extended here
// to normalize samples into [-1,1] and to preserve every channel rather than
// folding straight to mono.
type PCMDecoder struct{}

// NewPCMDecoder constructs the .wav/.mp3 decoder.
func NewPCMDecoder() *PCMDecoder {
	return &PCMDecoder{}
}

// Decode implements Decoder.
func (d *PCMDecoder) Decode(_ context.Context, path string) (*pcm.Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		return nil, fmt.Errorf("%w: pcm decoder cannot handle %s", ErrInputUnavailable, path)
	}
}

func decodeWAV(path string) (*pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav file: %s", ErrDecodeFailed, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: invalid wav buffer: %s", ErrDecodeFailed, path)
	}

	numChannels := buf.Format.NumChannels
	frames := len(buf.Data) / numChannels
	full := math.Pow(2, float64(buf.SourceBitDepth-1))
	if full <= 0 {
		full = 1
	}

	data := make([][]float64, numChannels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			data[c][i] = float64(buf.Data[i*numChannels+c]) / full
		}
	}

	return &pcm.Buffer{Data: data, SampleRate: buf.Format.SampleRate}, nil
}

func decodeMP3(path string) (*pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}

	// go-mp3 always emits interleaved 16-bit little-endian stereo PCM,
	// regardless of the source channel layout.
	const channels = 2
	frames := len(raw) / 4
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*4 + c*2
			sample := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
			data[c][i] = float64(sample) / 32768.0
		}
	}

	return &pcm.Buffer{Data: data, SampleRate: dec.SampleRate()}, nil
}
