// Package config loads an optional JSON engine-configuration file that
// overrides the canonical fingerprinting/preprocessing parameters, using
// the same pointer-field-override-on-defaults pattern as the teacher
// module's preset.LoadJSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/soundmatch/audiomatch/preprocess"
)

// File is the JSON schema for an engine configuration file. Every field is
// optional; absent fields leave the corresponding default untouched.
type File struct {
	TargetSampleRate *int     `json:"target_sample_rate"`
	SilenceTopDB     *float64 `json:"silence_top_db"`
	SilenceFrame     *int     `json:"silence_frame"`
	SilenceHop       *int     `json:"silence_hop"`
	FFmpegPath       *string  `json:"ffmpeg_path"`
	FFprobePath      *string  `json:"ffprobe_path"`
}

// Engine is the resolved, fully-populated engine configuration: a
// preprocess.Config plus the external binary paths the video decoder needs.
type Engine struct {
	Preprocess  preprocess.Config
	FFmpegPath  string
	FFprobePath string
}

// Default returns the canonical, bit-exact engine configuration.
func Default() Engine {
	return Engine{Preprocess: preprocess.DefaultConfig()}
}

// LoadJSON reads path and applies it on top of Default().
func LoadJSON(path string) (Engine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return Engine{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	eng := Default()
	if err := Apply(&eng, &f); err != nil {
		return Engine{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return eng, nil
}

// Apply overrides dst's fields from f, validating each override.
func Apply(dst *Engine, f *File) error {
	if f == nil {
		return nil
	}

	if f.TargetSampleRate != nil {
		if *f.TargetSampleRate <= 0 {
			return fmt.Errorf("target_sample_rate must be > 0")
		}
		dst.Preprocess.TargetSampleRate = *f.TargetSampleRate
	}
	if f.SilenceTopDB != nil {
		if *f.SilenceTopDB <= 0 {
			return fmt.Errorf("silence_top_db must be > 0")
		}
		dst.Preprocess.SilenceTopDB = *f.SilenceTopDB
	}
	if f.SilenceFrame != nil {
		if *f.SilenceFrame <= 0 {
			return fmt.Errorf("silence_frame must be > 0")
		}
		dst.Preprocess.SilenceFrame = *f.SilenceFrame
	}
	if f.SilenceHop != nil {
		if *f.SilenceHop <= 0 {
			return fmt.Errorf("silence_hop must be > 0")
		}
		dst.Preprocess.SilenceHop = *f.SilenceHop
	}
	if f.FFmpegPath != nil {
		dst.FFmpegPath = *f.FFmpegPath
	}
	if f.FFprobePath != nil {
		dst.FFprobePath = *f.FFprobePath
	}
	return nil
}
