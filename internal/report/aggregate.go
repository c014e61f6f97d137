// Package report renders accumulated results into the output formats.
// Every renderer is a pure function of the final result list and is
// regenerated in full on each run.
package report

import (
	"sort"

	"github.com/psibatch/psibatch/internal/audit"
)

// StrategyStats aggregates results for one strategy.
type StrategyStats struct {
	Strategy         audit.Strategy
	Checks           int
	Successes        int
	Failures         int
	AvgPerformance   float64
	AvgAccessibility float64
	AvgBestPractices float64
	AvgSEO           float64
}

// Aggregate computes per-strategy averages over the success results,
// returned in the supplied strategy order.
func Aggregate(results []audit.Result, strategies []audit.Strategy) []StrategyStats {
	byStrategy := make(map[audit.Strategy]*StrategyStats, len(strategies))
	out := make([]StrategyStats, 0, len(strategies))
	for _, s := range strategies {
		byStrategy[s] = &StrategyStats{Strategy: s}
	}

	for _, r := range results {
		stats, ok := byStrategy[r.Strategy]
		if !ok {
			// Strategy dropped from config; still count it at the end.
			stats = &StrategyStats{Strategy: r.Strategy}
			byStrategy[r.Strategy] = stats
			strategies = append(strategies, r.Strategy)
		}
		stats.Checks++
		if !r.Succeeded() {
			stats.Failures++
			continue
		}
		stats.Successes++
		stats.AvgPerformance += float64(r.Report.Scores.Performance)
		stats.AvgAccessibility += float64(r.Report.Scores.Accessibility)
		stats.AvgBestPractices += float64(r.Report.Scores.BestPractices)
		stats.AvgSEO += float64(r.Report.Scores.SEO)
	}

	for _, s := range strategies {
		stats := byStrategy[s]
		if stats.Successes > 0 {
			n := float64(stats.Successes)
			stats.AvgPerformance /= n
			stats.AvgAccessibility /= n
			stats.AvgBestPractices /= n
			stats.AvgSEO /= n
		}
		out = append(out, *stats)
	}
	return out
}

// TopPerformers returns up to n success results with the highest
// performance scores, ties broken by URL for determinism.
func TopPerformers(results []audit.Result, n int) []audit.Result {
	successes := make([]audit.Result, 0, len(results))
	for _, r := range results {
		if r.Succeeded() {
			successes = append(successes, r)
		}
	}
	sort.SliceStable(successes, func(i, j int) bool {
		si, sj := successes[i].Report.Scores.Performance, successes[j].Report.Scores.Performance
		if si != sj {
			return si > sj
		}
		return successes[i].URL < successes[j].URL
	})
	if n > 0 && n < len(successes) {
		successes = successes[:n]
	}
	return successes
}
