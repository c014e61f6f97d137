package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/psibatch/psibatch/internal/audit"
)

// CSVWriter renders one row per result with a fixed column set.
type CSVWriter struct {
	path string
}

// NewCSVWriter writes to path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Name identifies the format in logs and config.
func (w *CSVWriter) Name() string { return "csv" }

// Write renders the tabular dump.
func (w *CSVWriter) Write(results []audit.Result) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{"url", "strategy", "status", "performance", "accessibility", "best_practices", "seo"}
	header = append(header, audit.TimingAudits...)
	header = append(header, "checked_at", "error")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return writeFile(w.path, buf.Bytes())
}

func row(r audit.Result) []string {
	cols := []string{r.URL, string(r.Strategy), string(r.Status)}
	if r.Succeeded() {
		cols = append(cols,
			strconv.Itoa(r.Report.Scores.Performance),
			strconv.Itoa(r.Report.Scores.Accessibility),
			strconv.Itoa(r.Report.Scores.BestPractices),
			strconv.Itoa(r.Report.Scores.SEO),
		)
		for _, id := range audit.TimingAudits {
			cols = append(cols, r.Report.Metrics[id])
		}
	} else {
		cols = append(cols, "", "", "", "")
		for range audit.TimingAudits {
			cols = append(cols, "")
		}
	}
	cols = append(cols, r.CheckedAt.Format(time.RFC3339), r.ErrorReason())
	return cols
}
