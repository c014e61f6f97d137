package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psibatch/psibatch/internal/audit"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	clk := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	return NewStore(path, clk, zap.NewNop())
}

func sampleResults() []audit.Result {
	at := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	return []audit.Result{
		audit.NewSuccess("http://example.com/a", audit.StrategyMobile, audit.ScoreReport{
			Scores:  audit.CategoryScores{Performance: 90, Accessibility: 80, BestPractices: 70, SEO: 60},
			Metrics: map[string]string{"first-contentful-paint": "1.0 s"},
		}, at),
		audit.NewFailure("http://example.com/b", audit.StrategyDesktop, "rate limit exceeded", at),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	st := NewRunState()
	st.SetRunID("run-1")
	for _, r := range sampleResults() {
		st.AppendResult(r)
		st.MarkProcessed(r.URL, r.Strategy)
	}

	require.NoError(t, store.Save(st))

	loaded := store.Load()
	assert.Equal(t, st.Results(), loaded.Results(), "result order must survive the round trip")
	assert.Equal(t, st.ProcessedCount(), loaded.ProcessedCount())
	assert.True(t, loaded.IsProcessed("http://example.com/a", audit.StrategyMobile))
	assert.True(t, loaded.IsProcessed("http://example.com/b", audit.StrategyDesktop))
	assert.False(t, loaded.IsProcessed("http://example.com/a", audit.StrategyDesktop))
	assert.False(t, loaded.LastUpdated().IsZero())
}

func TestStoreRoundTripVariantShape(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	st := NewRunState()
	for _, r := range sampleResults() {
		st.AppendResult(r)
	}
	require.NoError(t, store.Save(st))

	results := store.Load().Results()
	require.Len(t, results, 2)

	require.True(t, results[0].Succeeded())
	assert.Nil(t, results[0].Failure)
	assert.Equal(t, 90, results[0].Report.Scores.Performance)

	require.False(t, results[1].Succeeded())
	assert.Nil(t, results[1].Report)
	assert.Equal(t, "rate limit exceeded", results[1].ErrorReason())
}

func TestStoreLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	st := store.Load()

	assert.Zero(t, st.ProcessedCount())
	assert.Empty(t, st.Results())
}

func TestStoreLoadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewStore(path, &fakeClock{now: time.Now()}, zap.NewNop())

	st := store.Load()

	assert.Zero(t, st.ProcessedCount(), "corrupt state is treated as no prior progress")
	assert.Empty(t, st.Results())
}

func TestMarkProcessedIdempotent(t *testing.T) {
	t.Parallel()

	st := NewRunState()
	st.MarkProcessed("http://Example.com/a/", audit.StrategyMobile)
	st.MarkProcessed("http://example.com/a", audit.StrategyMobile)

	assert.Equal(t, 1, st.ProcessedCount(), "normalized variants share one key")
	assert.True(t, st.IsProcessed("http://EXAMPLE.com/a", audit.StrategyMobile))
}

func TestAppendResultPreservesOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	at := time.Unix(0, 0).UTC()

	st := NewRunState()
	st.AppendResult(audit.NewFailure("r1", audit.StrategyMobile, "x", at))
	st.AppendResult(audit.NewFailure("r2", audit.StrategyMobile, "x", at))
	require.NoError(t, store.Save(st))

	// Second run appends behind the previous results.
	st = store.Load()
	st.AppendResult(audit.NewFailure("r3", audit.StrategyMobile, "x", at))
	st.AppendResult(audit.NewFailure("r4", audit.StrategyMobile, "x", at))
	require.NoError(t, store.Save(st))

	urls := make([]string, 0, 4)
	for _, r := range store.Load().Results() {
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, urls)
}
