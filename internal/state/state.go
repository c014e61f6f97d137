// Package state owns the resumability file shared between runs.
package state

import (
	"sort"
	"time"

	"github.com/psibatch/psibatch/internal/audit"
)

// RunState is the in-memory view of prior progress. It is owned by the
// Store for the duration of a run: one load at start, mutation in
// memory, one save at the end. Callers go through IsProcessed,
// MarkProcessed and AppendResult rather than touching the collections.
type RunState struct {
	lastUpdated time.Time
	lastRunID   string
	processed   map[string]struct{}
	results     []audit.Result
}

// NewRunState returns an empty state, the "no prior progress" value.
func NewRunState() *RunState {
	return &RunState{processed: make(map[string]struct{})}
}

// IsProcessed reports whether a terminal result was already recorded for
// the (URL, strategy) pair in this or a previous run.
func (s *RunState) IsProcessed(url string, strategy audit.Strategy) bool {
	_, ok := s.processed[audit.ProcessedKey(url, strategy)]
	return ok
}

// MarkProcessed records the pair as terminally handled. Marking an
// existing key is a no-op.
func (s *RunState) MarkProcessed(url string, strategy audit.Strategy) {
	s.processed[audit.ProcessedKey(url, strategy)] = struct{}{}
}

// AppendResult adds a result behind everything accumulated so far, so
// previous-run results always precede the current run's.
func (s *RunState) AppendResult(r audit.Result) {
	s.results = append(s.results, r)
}

// Results returns the accumulated results in append order.
func (s *RunState) Results() []audit.Result {
	out := make([]audit.Result, len(s.results))
	copy(out, s.results)
	return out
}

// ProcessedCount returns the number of distinct processed keys.
func (s *RunState) ProcessedCount() int {
	return len(s.processed)
}

// SetRunID stamps the state with the identifier of the current run.
func (s *RunState) SetRunID(id string) {
	s.lastRunID = id
}

// LastUpdated reports when the state was last persisted.
func (s *RunState) LastUpdated() time.Time {
	return s.lastUpdated
}

// document is the on-disk shape of RunState.
type document struct {
	LastUpdated   time.Time      `json:"last_updated"`
	LastRunID     string         `json:"last_run_id,omitempty"`
	ProcessedURLs []string       `json:"processed_urls"`
	Results       []audit.Result `json:"results"`
}

func (s *RunState) toDocument(now time.Time) document {
	keys := make([]string, 0, len(s.processed))
	for k := range s.processed {
		keys = append(keys, k)
	}
	// Set membership is unordered; sort for stable diffs.
	sort.Strings(keys)
	return document{
		LastUpdated:   now,
		LastRunID:     s.lastRunID,
		ProcessedURLs: keys,
		Results:       s.results,
	}
}

func fromDocument(doc document) *RunState {
	st := NewRunState()
	st.lastUpdated = doc.LastUpdated
	st.lastRunID = doc.LastRunID
	for _, key := range doc.ProcessedURLs {
		st.processed[key] = struct{}{}
	}
	st.results = doc.Results
	return st
}
