package audit

// SelectBatch carves the slice of candidates to process this run.
//
// A batchSize <= 0 selects the entire candidate list. maxURLs, when
// positive, truncates the already-selected batch; it is applied after
// batching, so raising it past batchSize has no effect. The remainder
// is not persisted anywhere: it is recomputed on the next run by
// re-filtering the full sitemap against the processed set.
func SelectBatch(candidates []string, batchSize, maxURLs int) (batch []string, remaining int) {
	batch = candidates
	if batchSize > 0 && batchSize < len(batch) {
		batch = batch[:batchSize]
	}
	if maxURLs > 0 && maxURLs < len(batch) {
		batch = batch[:maxURLs]
	}
	return batch, len(candidates) - len(batch)
}
