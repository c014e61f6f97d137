package report

import (
	"io"

	"golang.org/x/text/message"

	"github.com/psibatch/psibatch/internal/audit"
)

// Summary prints the end-of-run batch summary to a terminal.
type Summary struct {
	out        io.Writer
	printer    *message.Printer
	strategies []audit.Strategy
	topN       int
}

// NewSummary builds a Summary writing to out.
func NewSummary(out io.Writer, strategies []audit.Strategy, locale string) *Summary {
	return &Summary{
		out:        out,
		printer:    newPrinter(locale),
		strategies: strategies,
		topN:       3,
	}
}

// Print renders counts, per-strategy averages and top performers for
// the batch that just ran, plus the cumulative result total.
func (s *Summary) Print(batch []audit.Result, cumulative int) {
	succeeded, failed := 0, 0
	for _, r := range batch {
		if r.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}

	s.printer.Fprintf(s.out, "\nBatch summary: %d checks (%d ok, %d failed), %d results accumulated\n",
		len(batch), succeeded, failed, cumulative)

	for _, st := range Aggregate(batch, s.strategies) {
		if st.Checks == 0 {
			continue
		}
		s.printer.Fprintf(s.out, "  %-8s perf %.1f  a11y %.1f  bp %.1f  seo %.1f  (%d checks, %d failed)\n",
			st.Strategy, st.AvgPerformance, st.AvgAccessibility, st.AvgBestPractices, st.AvgSEO,
			st.Checks, st.Failures)
	}

	top := TopPerformers(batch, s.topN)
	if len(top) > 0 {
		s.printer.Fprintf(s.out, "  top performers:\n")
		for _, r := range top {
			s.printer.Fprintf(s.out, "    %3d  %s (%s)\n", r.Report.Scores.Performance, r.URL, r.Strategy)
		}
	}
}
