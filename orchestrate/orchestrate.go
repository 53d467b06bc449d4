// Package orchestrate drives one query-vs-directory matching pass: decode
// and fingerprint the query's channels, walk the candidate directory,
// fingerprint and score each candidate, and report ranked results through a
// progress collaborator. See SPEC_FULL.md §4.4.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/soundmatch/audiomatch/decode"
	"github.com/soundmatch/audiomatch/fingerprint"
	"github.com/soundmatch/audiomatch/match"
	"github.com/soundmatch/audiomatch/pcm"
	"github.com/soundmatch/audiomatch/preprocess"
)

// Sentinel errors, matching the teacher module's fmt.Errorf("...: %w", ...)
// wrapping style.
var (
	ErrEmptyAfterTrim   = errors.New("orchestrate: channel has fewer samples than one analysis window after silence trim")
	ErrParameterInvalid = errors.New("orchestrate: parameter invalid")
	ErrCancelled        = errors.New("orchestrate: cancelled")
)

// ProgressSink is the orchestrator's collaborator contract. Every method is
// called synchronously from the goroutine running Run; an implementation
// backing a UI must marshal onto its own event loop internally.
type ProgressSink interface {
	// OnProgress reports overall completion as a fraction in [0,1].
	OnProgress(fraction float64)
	// OnMatch reports one candidate's final score, in completion order.
	OnMatch(index int, path string, score int)
	// OnCandidateError reports that a candidate could not be decoded or
	// fingerprinted; the candidate is still included in the result list
	// with score 0 rather than aborting the run.
	OnCandidateError(path string, err error)
	// OnFinished is called once, after the last candidate; it is not called
	// when Run returns an error.
	OnFinished()
}

// ProgressStep is the fraction-of-total-candidates increment between
// OnProgress calls (SPEC_FULL.md §6).
const ProgressStep = 0.05

// Result is one candidate's final ranked score.
type Result struct {
	Path  string
	Score int
}

// Config bundles the registries and preprocessing parameters a Run needs.
type Config struct {
	QueryRegistry     *decode.Registry
	CandidateRegistry *decode.Registry
	Preprocess        preprocess.Config
}

// DefaultConfig wires the canonical query/candidate registries (ffmpeg
// resolved from PATH) and preprocessing defaults.
func DefaultConfig() Config {
	return Config{
		QueryRegistry:     decode.NewQueryRegistry("", ""),
		CandidateRegistry: decode.NewCandidateRegistry(),
		Preprocess:        preprocess.DefaultConfig(),
	}
}

// Run matches queryPath against every accepted file under candidateDir,
// reporting progress through sink and returning the full ranked result list
// (also delivered incrementally via sink.OnMatch). If ctx is cancelled
// between candidates, Run returns the ranked results scored so far together
// with an error wrapping ErrCancelled.
func Run(ctx context.Context, cfg Config, queryPath, candidateDir string, sink ProgressSink) ([]Result, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil progress sink", ErrParameterInvalid)
	}

	queryFPs, err := fingerprintQuery(ctx, cfg, queryPath)
	if err != nil {
		return nil, err
	}

	candidates, err := listCandidates(cfg.CandidateRegistry, candidateDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	total := len(candidates)
	lastReported := -1.0

	for i, path := range candidates {
		if err := ctx.Err(); err != nil {
			sort.SliceStable(results, func(i, j int) bool {
				return results[i].Score > results[j].Score
			})
			return results, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		score, err := scoreCandidate(ctx, cfg, path, queryFPs)
		if err != nil {
			sink.OnCandidateError(path, err)
			score = 0
		}

		results = append(results, Result{Path: path, Score: score})
		sink.OnMatch(i, path, score)

		fraction := float64(i+1) / float64(total)
		if total == 0 {
			fraction = 1.0
		}
		if fraction-lastReported >= ProgressStep || i == total-1 {
			sink.OnProgress(fraction)
			lastReported = fraction
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	sink.OnFinished()
	return results, nil
}

// fingerprintQuery decodes the query file and builds one fingerprint per
// channel, per SPEC_FULL.md §4.4 step 1.
func fingerprintQuery(ctx context.Context, cfg Config, queryPath string) ([]*fingerprint.Fingerprint, error) {
	buf, err := cfg.QueryRegistry.Decode(ctx, queryPath)
	if err != nil {
		return nil, err
	}

	fps := make([]*fingerprint.Fingerprint, buf.NumChannels())
	for c := 0; c < buf.NumChannels(); c++ {
		ch, err := buf.Channel(c)
		if err != nil {
			return nil, err
		}
		fp, err := fingerprintChannel(cfg, ch)
		if err != nil {
			return nil, fmt.Errorf("orchestrate: query channel %d: %w", c, err)
		}
		fps[c] = fp
	}
	return fps, nil
}

// fingerprintChannel runs the shared preprocess-then-build pipeline for a
// single-channel buffer.
func fingerprintChannel(cfg Config, buf *pcm.Buffer) (*fingerprint.Fingerprint, error) {
	samples := buf.Data[0]
	trimmed, err := preprocess.Channel(cfg.Preprocess, samples, buf.SampleRate)
	if err != nil {
		return nil, err
	}
	if len(trimmed) < fingerprint.SamplesPerWindow(cfg.Preprocess.TargetSampleRate) {
		return nil, ErrEmptyAfterTrim
	}
	return fingerprint.Build(trimmed, cfg.Preprocess.TargetSampleRate)
}

// scoreCandidate decodes and fingerprints channel 0 of a candidate file and
// returns the maximum match score across every query channel.
func scoreCandidate(ctx context.Context, cfg Config, path string, queryFPs []*fingerprint.Fingerprint) (int, error) {
	buf, err := cfg.CandidateRegistry.Decode(ctx, path)
	if err != nil {
		return 0, err
	}
	ch, err := buf.Channel(0)
	if err != nil {
		return 0, err
	}
	candidateFP, err := fingerprintChannel(cfg, ch)
	if err != nil {
		return 0, fmt.Errorf("orchestrate: candidate %s: %w", path, err)
	}

	best := 0
	for _, q := range queryFPs {
		if s := match.Score(q, candidateFP); s > best {
			best = s
		}
	}
	return best, nil
}

// listCandidates recursively enumerates every file under dir whose
// extension the candidate registry accepts.
func listCandidates(reg *decode.Registry, dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if reg.Accepts(path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParameterInvalid, dir, err)
	}
	sort.Strings(out)
	return out, nil
}
