// Package report renders accumulated sample results: a persisted plain-text
// summary, a console echo of the totals and an optional per-sample table.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mtbatch/internal/display"
	"mtbatch/internal/format"
)

// SummaryFileName is the report written inside the output directory.
const SummaryFileName = "batch_assembly_summary.txt"

// NameWidth is the minimum, left-aligned width of the sample column.
const NameWidth = 30

const (
	title      = "GetOrganelle Batch Assembly Summary"
	heavyRule  = "============================================================"
	lightRule  = "------------------------------------------------------------"
	detailCols = 72
)

// Result is one attempted sample as seen by the report.
type Result struct {
	SampleName string
	Succeeded  bool
	ExitCode   int
	Reason     string
	Detail     string
	Duration   time.Duration
}

// Counts are the aggregate totals; Total == Successful + Failed.
type Counts struct {
	Total      int
	Successful int
	Failed     int
}

// Count tallies results.
func Count(results []Result) Counts {
	c := Counts{Total: len(results)}
	for _, r := range results {
		if r.Succeeded {
			c.Successful++
		}
	}
	c.Failed = c.Total - c.Successful
	return c
}

// Render writes the summary text for results generated at now.
func Render(w io.Writer, results []Result, now time.Time) error {
	c := Count(results)
	var b bytes.Buffer
	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintf(&b, "Generated: %s\n\n", format.Timestamp(now))
	fmt.Fprintf(&b, "Total samples: %d\n", c.Total)
	fmt.Fprintf(&b, "Successful: %d\n", c.Successful)
	fmt.Fprintf(&b, "Failed: %d\n\n", c.Failed)
	fmt.Fprintln(&b, "Sample Details:")
	fmt.Fprintln(&b, lightRule)
	for _, r := range results {
		fmt.Fprintf(&b, "%-*s %s\n", NameWidth, r.SampleName, display.Status(r.Succeeded))
	}
	_, err := w.Write(b.Bytes())
	return err
}

// WriteSummary persists the summary under outputDir and returns its path.
func WriteSummary(results []Result, outputDir string, now time.Time) (string, error) {
	path := filepath.Join(outputDir, SummaryFileName)
	var b bytes.Buffer
	if err := Render(&b, results, now); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write summary report: %w", err)
	}
	return path, nil
}

// Echo prints the totals and, when any sample failed, the failed sample names.
func Echo(w io.Writer, results []Result) {
	c := Count(results)
	fmt.Fprintf(w, "\nResults:\n")
	fmt.Fprintf(w, "  Total: %d\n", c.Total)
	fmt.Fprintf(w, "  Successful: %d\n", c.Successful)
	fmt.Fprintf(w, "  Failed: %d\n", c.Failed)
	if c.Failed == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailed samples:\n")
	for _, r := range results {
		if !r.Succeeded {
			fmt.Fprintf(w, "  - %s\n", r.SampleName)
		}
	}
}

// Table renders one row per result with exit code, duration and failure detail.
func Table(results []Result, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Header("#", "Sample", "Status", "Exit", "Duration", "Detail")
	for i, r := range results {
		exit := "-"
		if r.ExitCode >= 0 {
			exit = fmt.Sprint(r.ExitCode)
		}
		detail := display.Reason(r.Reason)
		if line := format.FirstLine(r.Detail, detailCols); line != "" {
			if detail != "" {
				detail += ": "
			}
			detail += line
		}
		tb.Row(i+1, r.SampleName, display.Status(r.Succeeded), exit, format.FmtDuration(r.Duration), detail)
	}
	c := Count(results)
	tb.Footer("", "Total", fmt.Sprintf("%d/%d ok", c.Successful, c.Total), "", "", "")
	tb.AlignRight(1, 4, 5)
	return tb.String()
}
