// Package resultio writes orchestrator results to CSV, the same
// Path,Score contract the original product's view layer used for its
// exported report.
package resultio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundmatch/audiomatch/orchestrate"
)

// WriteCSV writes results (expected already sorted descending by score) to
// w as a header row "Path,Score" followed by one row per result.
func WriteCSV(w io.Writer, results []orchestrate.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Path", "Score"}); err != nil {
		return fmt.Errorf("resultio: write header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write([]string{r.Path, fmt.Sprintf("%d", r.Score)}); err != nil {
			return fmt.Errorf("resultio: write row %s: %w", r.Path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("resultio: flush: %w", err)
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes results to it.
func WriteCSVFile(path string, results []orchestrate.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("resultio: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(f, results)
}

// ReportPath derives the canonical report path for a query file within
// outputDir: <output_dir>/<query_basename_without_ext>.csv, the same
// os.path.join(OUTPUT_PATH, os.path.splitext(os.path.basename(query))[0] +
// ".csv") construction the original product's view layer used (SPEC_FULL.md
// §6).
func ReportPath(outputDir, queryPath string) string {
	base := filepath.Base(queryPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+".csv")
}

// WriteCSVReport derives the report path for queryPath under outputDir via
// ReportPath, creates outputDir if necessary, and writes results to it.
// It returns the path written.
func WriteCSVReport(outputDir, queryPath string, results []orchestrate.Result) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("resultio: create output dir %s: %w", outputDir, err)
	}
	path := ReportPath(outputDir, queryPath)
	if err := WriteCSVFile(path, results); err != nil {
		return "", err
	}
	return path, nil
}
