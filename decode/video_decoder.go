package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"

	"github.com/soundmatch/audiomatch/pcm"
)

// FFmpegVideoDecoder extracts the audio track of a video container by
// shelling out to ffmpeg/ffprobe, the way zfogg-sidechain's
// internal/fingerprint.extractAudioSamples and
// gvasels-personal-music-searchengine's Analyzer.decodeToMono do: no pack
// example decodes a video container in pure Go, so this is the idiomatic
// choice rather than a hand-rolled demuxer.
type FFmpegVideoDecoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegVideoDecoder constructs the decoder, defaulting to the ffmpeg and
// ffprobe binaries on PATH when the given paths are empty.
func NewFFmpegVideoDecoder(ffmpegPath, ffprobePath string) *FFmpegVideoDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegVideoDecoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Channels  int    `json:"channels"`
	SampleRt  string `json:"sample_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// Decode implements Decoder.
func (d *FFmpegVideoDecoder) Decode(ctx context.Context, path string) (*pcm.Buffer, error) {
	sampleRate, channels, err := d.probeAudioTrack(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", path,
		"-vn",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-f", "f32le",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg failed on %s: %v: %s", ErrDecodeFailed, path, err, stderr.String())
	}

	raw := stdout.Bytes()
	frameBytes := 4 * channels
	frames := len(raw) / frameBytes
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s: ffmpeg produced no audio samples", ErrDecodeFailed, path)
	}

	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*4
			bits := binary.LittleEndian.Uint32(raw[off : off+4])
			data[c][i] = float64(math.Float32frombits(bits))
		}
	}

	return &pcm.Buffer{Data: data, SampleRate: sampleRate}, nil
}

func (d *FFmpegVideoDecoder) probeAudioTrack(ctx context.Context, path string) (sampleRate int, channels int, err error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels,sample_rate,codec_type",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %v: %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return 0, 0, fmt.Errorf("ffprobe json: %v", err)
	}
	if len(out.Streams) == 0 {
		return 0, 0, fmt.Errorf("no audio stream found")
	}
	stream := out.Streams[0]
	if stream.Channels < 1 {
		return 0, 0, fmt.Errorf("invalid channel count %d", stream.Channels)
	}
	var sr int
	if _, err := fmt.Sscanf(stream.SampleRt, "%d", &sr); err != nil || sr <= 0 {
		return 0, 0, fmt.Errorf("invalid sample rate %q", stream.SampleRt)
	}
	return sr, stream.Channels, nil
}
