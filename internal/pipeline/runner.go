package pipeline

import (
	"fmt"
	"strings"

	"github.com/wavesense-data/motion.report/internal/fileset"
	"github.com/wavesense-data/motion.report/internal/monitoring"
)

var runnerLog = monitoring.Tagged("Runner")

// TripleResult is the per-capture outcome of a run.
type TripleResult struct {
	Key         string
	Rows        int
	MeanBitrate float64
	Span        float64
	Skipped     bool
	Reason      string
}

// RunSummary accumulates the outcomes of one run.
type RunSummary struct {
	Processed int
	Skipped   int
	Results   []TripleResult
}

// Runner processes the capture triples under a base directory. A nil
// Display discards the joined tables.
type Runner struct {
	Params  Params
	Display Display
	Verbose bool
}

// Run discovers capture triples and processes the selection: 0 processes
// every triple, a positive value the 1-indexed triple alone. A selection
// beyond the available triples is a configuration error, as is an
// invalid parameter set. Per-capture read and processing failures skip
// that capture and continue.
func (r *Runner) Run(baseDir string, selection int) (*RunSummary, error) {
	if err := r.Params.Validate(); err != nil {
		return nil, err
	}
	if selection < 0 {
		return nil, fmt.Errorf("file set selection must be non-negative, got %d", selection)
	}

	disc, err := fileset.Discover(baseDir)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{}
	for _, inc := range disc.Incomplete {
		runnerLog("Capture %s missing from %s, set skipped", inc.Key, strings.Join(inc.Missing, ", "))
		summary.Skipped++
		summary.Results = append(summary.Results, TripleResult{
			Key:     inc.Key,
			Skipped: true,
			Reason:  "missing from " + strings.Join(inc.Missing, ", "),
		})
	}
	for _, extra := range disc.Extras {
		runnerLog("Unpaired capture file %s ignored", extra)
	}
	for _, name := range disc.Unkeyed {
		runnerLog("File %s carries no capture identifier, ignored", name)
	}

	triples := disc.Triples
	if selection > 0 {
		if selection > len(triples) {
			return nil, fmt.Errorf("file set %d requested but only %d available", selection, len(triples))
		}
		triples = triples[selection-1 : selection]
	}

	for _, triple := range triples {
		joined, err := ProcessTriple(triple, r.Params)
		if err != nil {
			runnerLog("Skipping capture %s: %v", triple.Key, err)
			summary.Skipped++
			summary.Results = append(summary.Results, TripleResult{
				Key:     triple.Key,
				Skipped: true,
				Reason:  err.Error(),
			})
			continue
		}

		mean, span := joinedStats(joined)
		if r.Verbose {
			runnerLog("Capture %s: rows=%d span=%.1fs", triple.Key, joined.Len(), span)
		}
		if r.Display != nil {
			if err := r.Display.Show(triple.Key, joined); err != nil {
				runnerLog("Display failed for capture %s: %v", triple.Key, err)
			}
		}
		summary.Processed++
		summary.Results = append(summary.Results, TripleResult{
			Key:         triple.Key,
			Rows:        joined.Len(),
			MeanBitrate: mean,
			Span:        span,
		})
	}
	return summary, nil
}
