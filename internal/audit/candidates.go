package audit

import "strings"

// CandidateOptions toggles the candidate-set build steps.
type CandidateOptions struct {
	// Deduplicate keeps the first occurrence of each distinct key.
	Deduplicate bool
	// Normalize keys URLs by their normalized form; when false the raw
	// string is the identity.
	Normalize bool
	// Filter, when non-empty, keeps only URLs containing the substring.
	Filter string
}

// CandidateStats reports what each build step did.
type CandidateStats struct {
	Input      int
	Duplicates int
	FilteredIn int
	Output     int
}

// BuildCandidates deduplicates and filters the raw sitemap URLs into the
// ordered candidate set. Relative order of first-seen qualifying URLs is
// preserved; the returned strings are always the original raw URLs.
func BuildCandidates(rawURLs []string, opts CandidateOptions) ([]string, CandidateStats) {
	stats := CandidateStats{Input: len(rawURLs)}

	urls := rawURLs
	if opts.Deduplicate {
		seen := make(map[string]struct{}, len(urls))
		deduped := make([]string, 0, len(urls))
		for _, raw := range urls {
			key := raw
			if opts.Normalize {
				key = NormalizeURL(raw)
			}
			if _, ok := seen[key]; ok {
				stats.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, raw)
		}
		urls = deduped
	}

	if opts.Filter != "" {
		filtered := make([]string, 0, len(urls))
		for _, raw := range urls {
			if strings.Contains(raw, opts.Filter) {
				filtered = append(filtered, raw)
			}
		}
		stats.FilteredIn = len(filtered)
		urls = filtered
	}

	stats.Output = len(urls)
	return urls, stats
}
