package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/psibatch/psibatch/internal/audit"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>PageSpeed batch report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
th { background: #f2f2f2; }
td.num { text-align: right; }
tr.failure td { color: #a00; }
</style>
</head>
<body>
<h1>PageSpeed batch report</h1>
<p>Generated {{.GeneratedAt}} &middot; {{.TotalChecks}} checks</p>

<h2>Per-strategy averages</h2>
<table>
<tr><th>Strategy</th><th>Checks</th><th>Failures</th><th>Performance</th><th>Accessibility</th><th>Best practices</th><th>SEO</th></tr>
{{range .Stats}}
<tr>
<td>{{.Strategy}}</td>
<td class="num">{{.Checks}}</td>
<td class="num">{{.Failures}}</td>
<td class="num">{{.AvgPerformance}}</td>
<td class="num">{{.AvgAccessibility}}</td>
<td class="num">{{.AvgBestPractices}}</td>
<td class="num">{{.AvgSEO}}</td>
</tr>
{{end}}
</table>

<h2>Results</h2>
<table>
<tr><th>URL</th><th>Strategy</th><th>Status</th><th>Perf</th><th>A11y</th><th>BP</th><th>SEO</th><th>Checked</th><th>Error</th></tr>
{{range .Rows}}
<tr class="{{.Status}}">
<td>{{.URL}}</td>
<td>{{.Strategy}}</td>
<td>{{.Status}}</td>
<td class="num">{{.Performance}}</td>
<td class="num">{{.Accessibility}}</td>
<td class="num">{{.BestPractices}}</td>
<td class="num">{{.SEO}}</td>
<td>{{.CheckedAt}}</td>
<td>{{.Error}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`

// HTMLWriter renders the human-readable summary document.
type HTMLWriter struct {
	path       string
	strategies []audit.Strategy
	printer    *message.Printer
	clock      audit.Clock
	tmpl       *template.Template
}

// NewHTMLWriter writes to path. The locale tag controls number
// formatting in the averages table; an unknown tag falls back to
// English.
func NewHTMLWriter(path string, strategies []audit.Strategy, locale string, clock audit.Clock) *HTMLWriter {
	return &HTMLWriter{
		path:       path,
		strategies: strategies,
		printer:    newPrinter(locale),
		clock:      clock,
		tmpl:       template.Must(template.New("report").Parse(htmlTemplate)),
	}
}

// Name identifies the format in logs and config.
func (w *HTMLWriter) Name() string { return "html" }

type htmlStats struct {
	Strategy         audit.Strategy
	Checks           int
	Failures         int
	AvgPerformance   string
	AvgAccessibility string
	AvgBestPractices string
	AvgSEO           string
}

type htmlRow struct {
	URL           string
	Strategy      audit.Strategy
	Status        audit.Status
	Performance   string
	Accessibility string
	BestPractices string
	SEO           string
	CheckedAt     string
	Error         string
}

// Write renders the summary document.
func (w *HTMLWriter) Write(results []audit.Result) error {
	stats := Aggregate(results, w.strategies)
	data := struct {
		GeneratedAt string
		TotalChecks int
		Stats       []htmlStats
		Rows        []htmlRow
	}{
		GeneratedAt: w.clock.Now().Format(time.RFC3339),
		TotalChecks: len(results),
	}

	for _, s := range stats {
		data.Stats = append(data.Stats, htmlStats{
			Strategy:         s.Strategy,
			Checks:           s.Checks,
			Failures:         s.Failures,
			AvgPerformance:   w.printer.Sprintf("%.1f", s.AvgPerformance),
			AvgAccessibility: w.printer.Sprintf("%.1f", s.AvgAccessibility),
			AvgBestPractices: w.printer.Sprintf("%.1f", s.AvgBestPractices),
			AvgSEO:           w.printer.Sprintf("%.1f", s.AvgSEO),
		})
	}

	for _, r := range results {
		row := htmlRow{
			URL:       r.URL,
			Strategy:  r.Strategy,
			Status:    r.Status,
			CheckedAt: r.CheckedAt.Format(time.RFC3339),
			Error:     r.ErrorReason(),
		}
		if r.Succeeded() {
			row.Performance = fmt.Sprintf("%d", r.Report.Scores.Performance)
			row.Accessibility = fmt.Sprintf("%d", r.Report.Scores.Accessibility)
			row.BestPractices = fmt.Sprintf("%d", r.Report.Scores.BestPractices)
			row.SEO = fmt.Sprintf("%d", r.Report.Scores.SEO)
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return writeFile(w.path, buf.Bytes())
}

func newPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}
