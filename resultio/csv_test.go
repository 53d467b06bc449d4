package resultio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundmatch/audiomatch/orchestrate"
)

func TestWriteCSVWritesHeaderAndRows(t *testing.T) {
	var sb strings.Builder
	results := []orchestrate.Result{
		{Path: "a.wav", Score: 42},
		{Path: "b.wav", Score: 7},
	}
	if err := WriteCSV(&sb, results); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "Path,Score\na.wav,42\nb.wav,7\n"
	if sb.String() != want {
		t.Fatalf("WriteCSV() = %q, want %q", sb.String(), want)
	}
}

func TestWriteCSVEmptyResultsStillWritesHeader(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if sb.String() != "Path,Score\n" {
		t.Fatalf("WriteCSV() = %q, want header only", sb.String())
	}
}

func TestReportPathDerivesFromQueryBasename(t *testing.T) {
	got := ReportPath("/tmp/out", "/home/me/recordings/track one.mp4")
	want := filepath.Join("/tmp/out", "track one.csv")
	if got != want {
		t.Fatalf("ReportPath() = %q, want %q", got, want)
	}
}

func TestReportPathStripsOnlyFinalExtension(t *testing.T) {
	got := ReportPath("out", "query.v2.wav")
	want := filepath.Join("out", "query.v2.csv")
	if got != want {
		t.Fatalf("ReportPath() = %q, want %q", got, want)
	}
}

func TestWriteCSVReportCreatesOutputDirAndNamesFileAfterQuery(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "reports")
	queryPath := filepath.Join(root, "query.wav")

	results := []orchestrate.Result{{Path: "a.wav", Score: 1}}
	path, err := WriteCSVReport(outputDir, queryPath, results)
	if err != nil {
		t.Fatalf("WriteCSVReport() error = %v", err)
	}
	want := filepath.Join(outputDir, "query.csv")
	if path != want {
		t.Fatalf("WriteCSVReport() path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file not written: %v", err)
	}
}
