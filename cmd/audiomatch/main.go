// Command audiomatch is the headless CLI driver for the fingerprinting
// engine: given a query recording and a directory of candidate waveforms,
// it reports the best-matching candidate and optionally writes a ranked
// CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"github.com/soundmatch/audiomatch/config"
	"github.com/soundmatch/audiomatch/decode"
	"github.com/soundmatch/audiomatch/orchestrate"
	"github.com/soundmatch/audiomatch/resultio"
)

func main() {
	queryPath := flag.String("query", "", "Query audio/video file path")
	candidateDir := flag.String("candidates", "", "Directory of candidate WAV files, searched recursively")
	configPath := flag.String("config", "", "Optional JSON engine-configuration override file")
	outputDir := flag.String("output-dir", "", "Optional directory to write the ranked Path,Score CSV report to, named after the query's basename")
	ffmpegPath := flag.String("ffmpeg", "", "ffmpeg binary path (default: resolved from PATH)")
	ffprobePath := flag.String("ffprobe", "", "ffprobe binary path (default: resolved from PATH)")
	quiet := flag.Bool("quiet", false, "Suppress the progress bar")
	flag.Parse()

	logger := log.New(os.Stderr)

	if *queryPath == "" || *candidateDir == "" {
		logger.Fatal("both -query and -candidates are required")
	}

	eng := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadJSON(*configPath)
		if err != nil {
			logger.Fatal("loading engine config", "err", err)
		}
		eng = loaded
	}
	if *ffmpegPath != "" {
		eng.FFmpegPath = *ffmpegPath
	}
	if *ffprobePath != "" {
		eng.FFprobePath = *ffprobePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink := newCLISink(logger, *quiet)

	results, err := orchestrate.Run(ctx, orchestrateConfig(eng), *queryPath, *candidateDir, sink)
	if err != nil {
		logger.Fatal("matching failed", "err", err)
	}

	sink.Close()

	if len(results) == 0 {
		logger.Warn("no candidates found", "dir", *candidateDir)
		return
	}

	best := results[0]
	fmt.Printf("Best match: %s (score %d)\n", best.Path, best.Score)

	if *outputDir != "" {
		path, err := resultio.WriteCSVReport(*outputDir, *queryPath, results)
		if err != nil {
			logger.Fatal("writing CSV report", "err", err)
		}
		logger.Info("wrote report", "path", path)
	}
}

func orchestrateConfig(eng config.Engine) orchestrate.Config {
	return orchestrate.Config{
		QueryRegistry:     decode.NewQueryRegistry(eng.FFmpegPath, eng.FFprobePath),
		CandidateRegistry: decode.NewCandidateRegistry(),
		Preprocess:        eng.Preprocess,
	}
}

// cliSink implements orchestrate.ProgressSink on top of a progress bar and
// a structured logger, the concrete headless sink SPEC_FULL.md §6
// describes.
type cliSink struct {
	logger *log.Logger
	bar    *progressbar.ProgressBar
}

func newCLISink(logger *log.Logger, quiet bool) *cliSink {
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("matching"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return &cliSink{logger: logger, bar: bar}
}

func (s *cliSink) OnProgress(fraction float64) {
	if s.bar == nil {
		return
	}
	_ = s.bar.Set(int(fraction * 100))
}

func (s *cliSink) OnMatch(index int, path string, score int) {
	s.logger.Debug("candidate scored", "index", index, "path", path, "score", score)
}

func (s *cliSink) OnCandidateError(path string, err error) {
	s.logger.Warn("candidate skipped", "path", path, "err", err)
}

func (s *cliSink) OnFinished() {
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}

func (s *cliSink) Close() {
	if s.bar != nil {
		fmt.Println()
	}
}
