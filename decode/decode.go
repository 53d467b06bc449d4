// Package decode implements the decoder adapter contract: turning a media
// file on disk into a raw PCM sample buffer plus a sample rate, agnostic of
// the concrete file format behind it.
package decode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundmatch/audiomatch/pcm"
)

// Sentinel errors surfaced by every concrete Decoder.
var (
	ErrInputUnavailable = errors.New("decode: input unavailable")
	ErrDecodeFailed     = errors.New("decode: decode failed")
)

// Decoder turns a file on disk into PCM samples and a sample rate.
type Decoder interface {
	Decode(ctx context.Context, path string) (*pcm.Buffer, error)
}

// Registry dispatches to a concrete Decoder by lowercased file extension,
// mirroring the original product's per-extension loader table.
type Registry struct {
	byExt map[string]Decoder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Decoder)}
}

// Register binds a decoder to one or more extensions (with or without the
// leading dot).
func (r *Registry) Register(dec Decoder, exts ...string) {
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = dec
	}
}

// Decode resolves path's extension to a registered decoder and runs it.
func (r *Registry) Decode(ctx context.Context, path string) (*pcm.Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputUnavailable, path, err)
	}
	ext := normalizeExt(filepath.Ext(path))
	dec, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInputUnavailable, ext)
	}
	buf, err := dec.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.NumChannels() == 0 || buf.NumFrames() == 0 {
		return nil, fmt.Errorf("%w: %s: decoder returned no samples", ErrDecodeFailed, path)
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}
	return buf, nil
}

// Extensions reports every extension currently registered, dot-prefixed.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// Accepts reports whether path's extension is registered.
func (r *Registry) Accepts(path string) bool {
	_, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// NewQueryRegistry returns the registry used for query files: the PCM
// decoder for .wav/.mp3 and the ffmpeg-backed video decoder for container
// formats, per the accepted query extensions list.
func NewQueryRegistry(ffmpegPath, ffprobePath string) *Registry {
	r := NewRegistry()
	r.Register(NewPCMDecoder(), ".wav", ".mp3")
	r.Register(NewFFmpegVideoDecoder(ffmpegPath, ffprobePath), ".mov", ".mp4", ".avi", ".flv", ".mkv")
	return r
}

// NewCandidateRegistry returns the registry used for candidate directory
// scans: .wav only. The video decoder is deliberately never wired in here —
// candidates are never decoded through the video-container path, an
// asymmetry inherited from the original product (see SPEC_FULL.md §9).
func NewCandidateRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPCMDecoder(), ".wav")
	return r
}
