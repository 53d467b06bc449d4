package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soundmatch/audiomatch/decode"
	"github.com/soundmatch/audiomatch/internal/testwav"
)

type recordingSink struct {
	matches  []Result
	finished bool
	progress []float64
}

func (s *recordingSink) OnProgress(fraction float64) { s.progress = append(s.progress, fraction) }
func (s *recordingSink) OnMatch(index int, path string, score int) {
	s.matches = append(s.matches, Result{Path: path, Score: score})
}
func (s *recordingSink) OnCandidateError(path string, err error) {}
func (s *recordingSink) OnFinished()                             { s.finished = true }

func TestRunRanksCandidatesByMatchScore(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "candidates")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir candidates: %v", err)
	}
	queryPath := filepath.Join(root, "query.wav")
	matchPath := filepath.Join(dir, "match.wav")
	mismatchPath := filepath.Join(dir, "mismatch.wav")

	mustWriteTone(t, queryPath, 440.0, 0.3)
	mustWriteTone(t, matchPath, 440.0, 0.3)
	mustWriteTone(t, mismatchPath, 220.0, 0.3)

	cfg := DefaultConfig()
	cfg.QueryRegistry = decode.NewQueryRegistry("", "")
	cfg.CandidateRegistry = decode.NewCandidateRegistry()

	sink := &recordingSink{}
	results, err := Run(context.Background(), cfg, queryPath, dir, sink)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !sink.finished {
		t.Fatalf("OnFinished was never called")
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (query itself is not a candidate)", len(results))
	}
	if results[0].Path != matchPath {
		t.Fatalf("best match = %s, want %s", results[0].Path, matchPath)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not sorted descending: %+v", results)
	}
}

func TestRunSkipsUnreadableCandidateInsteadOfAborting(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "candidates")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir candidates: %v", err)
	}
	queryPath := filepath.Join(root, "query.wav")
	goodPath := filepath.Join(dir, "good.wav")
	corruptPath := filepath.Join(dir, "corrupt.wav")

	mustWriteTone(t, queryPath, 440.0, 0.3)
	mustWriteTone(t, goodPath, 440.0, 0.3)
	if err := os.WriteFile(corruptPath, []byte("not a wav file"), 0o644); err != nil {
		t.Fatalf("write corrupt fixture: %v", err)
	}

	cfg := DefaultConfig()
	cfg.QueryRegistry = decode.NewQueryRegistry("", "")
	cfg.CandidateRegistry = decode.NewCandidateRegistry()

	var errorPaths []string
	sink := &recordingSink{}
	results, err := Run(context.Background(), cfg, queryPath, dir, sink)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (candidate failures must not abort the run)", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Path == corruptPath && r.Score != 0 {
			t.Fatalf("corrupt candidate score = %d, want 0", r.Score)
		}
		if r.Path == corruptPath {
			errorPaths = append(errorPaths, r.Path)
		}
	}
	if len(errorPaths) != 1 {
		t.Fatalf("expected the corrupt candidate to still appear in results with score 0")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	queryPath := filepath.Join(dir, "query.wav")
	mustWriteTone(t, queryPath, 440.0, 0.3)
	mustWriteTone(t, filepath.Join(dir, "c.wav"), 440.0, 0.3)

	cfg := DefaultConfig()
	cfg.QueryRegistry = decode.NewQueryRegistry("", "")
	cfg.CandidateRegistry = decode.NewCandidateRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	if _, err := Run(ctx, cfg, queryPath, dir, sink); err == nil {
		t.Fatalf("expected ErrCancelled for an already-cancelled context")
	}
}

func mustWriteTone(t *testing.T, path string, freq, durationSec float64) {
	t.Helper()
	if err := testwav.WriteMonoSineWAV(path, 44100, freq, durationSec, 0.5); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
