package resultsdb

import (
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/pipeline"
)

// RunRecorder adapts a Store to the pipeline's display contract so
// joined tables are persisted as each capture finishes.
type RunRecorder struct {
	store *Store
	runID string
}

var _ pipeline.Display = (*RunRecorder)(nil)

// Recorder returns a display collaborator that records captures under
// the given run.
func (s *Store) Recorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// Show persists one capture's joined table.
func (r *RunRecorder) Show(key string, joined *feature.Joined) error {
	return r.store.RecordCapture(r.runID, key, joined)
}
