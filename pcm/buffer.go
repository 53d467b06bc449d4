// Package pcm defines the in-memory PCM sample buffer shared by the
// decoder, preprocessor and fingerprint builder.
package pcm

import "fmt"

// Buffer is a finite sequence of interleaved-free PCM samples: Data[c][i] is
// sample i of channel c. Samples are nominally in [-1.0, 1.0] but values
// outside that range are tolerated.
type Buffer struct {
	Data       [][]float64
	SampleRate int
}

// NumChannels reports how many channels the buffer carries.
func (b *Buffer) NumChannels() int {
	return len(b.Data)
}

// NumFrames reports the number of samples per channel.
func (b *Buffer) NumFrames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Validate checks the structural invariants the rest of the pipeline relies
// on: a positive sample rate, at least one channel, and channels of equal
// length. Zero-length channels are not rejected.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", b.SampleRate)
	}
	if len(b.Data) == 0 {
		return fmt.Errorf("pcm: buffer has no channels")
	}
	n := len(b.Data[0])
	for i, ch := range b.Data {
		if len(ch) != n {
			return fmt.Errorf("pcm: channel %d has %d samples, want %d", i, len(ch), n)
		}
	}
	return nil
}

// Channel returns a single-channel mono buffer built from channel idx.
func (b *Buffer) Channel(idx int) (*Buffer, error) {
	if idx < 0 || idx >= len(b.Data) {
		return nil, fmt.Errorf("pcm: channel index %d out of range [0,%d)", idx, len(b.Data))
	}
	return &Buffer{
		Data:       [][]float64{b.Data[idx]},
		SampleRate: b.SampleRate,
	}, nil
}

// Mono averages all channels into a single mono buffer.
func (b *Buffer) Mono() *Buffer {
	n := b.NumFrames()
	mono := make([]float64, n)
	if len(b.Data) == 0 {
		return &Buffer{Data: [][]float64{mono}, SampleRate: b.SampleRate}
	}
	inv := 1.0 / float64(len(b.Data))
	for _, ch := range b.Data {
		for i, v := range ch {
			mono[i] += v * inv
		}
	}
	return &Buffer{Data: [][]float64{mono}, SampleRate: b.SampleRate}
}

// Select returns a new buffer retaining only the given channel indices, in
// the order given.
func (b *Buffer) Select(indices []int) (*Buffer, error) {
	out := make([][]float64, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(b.Data) {
			return nil, fmt.Errorf("pcm: channel index %d out of range [0,%d)", idx, len(b.Data))
		}
		out = append(out, b.Data[idx])
	}
	return &Buffer{Data: out, SampleRate: b.SampleRate}, nil
}
