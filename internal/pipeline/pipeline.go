// Package pipeline drives capture analysis end to end: discover capture
// triples, align each signal onto the uniform grid, fill gaps, extract
// windowed features, join them on the shared timestamps, and hand the
// joined table to a display collaborator.
package pipeline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/fileset"
	"github.com/wavesense-data/motion.report/internal/timeline"
	"github.com/wavesense-data/motion.report/internal/trace"
)

// ProcessTriple runs one capture through the full pipeline and returns
// its joined feature table.
func ProcessTriple(t fileset.Triple, p Params) (*feature.Joined, error) {
	csi, err := trace.ReadCSICapture(t.Magnitude, t.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSI capture: %w", err)
	}
	bitrate, err := trace.ReadBitrateCapture(t.Bitrate)
	if err != nil {
		return nil, fmt.Errorf("failed to read bitrate capture: %w", err)
	}

	csiGrid, err := timeline.AlignCSI(csi.Timestamps, csi.Magnitudes, p.Interval, p.Subcarriers, p.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("failed to align CSI timeline: %w", err)
	}
	timeline.FillCSIGaps(csiGrid)

	bitrateGrid, err := timeline.AlignBitrate(bitrate.Timestamps, bitrate.Lengths, p.Interval, p.HeaderAdjust)
	if err != nil {
		return nil, fmt.Errorf("failed to align bitrate timeline: %w", err)
	}
	timeline.FillBitrateGaps(bitrateGrid)

	csiSeries, err := feature.CSIFeature(csiGrid, p.CSIWindow, p.CSIStride)
	if err != nil {
		return nil, fmt.Errorf("failed to extract CSI feature: %w", err)
	}
	bitrateSeries, err := feature.BitrateMedian(bitrateGrid, p.BitrateWindow, p.BitrateStride)
	if err != nil {
		return nil, fmt.Errorf("failed to extract bitrate median: %w", err)
	}

	joined, err := feature.Join(csiSeries, bitrateSeries, p.JoinMode)
	if err != nil {
		return nil, fmt.Errorf("failed to join feature series: %w", err)
	}
	return joined, nil
}

// joinedStats summarises one joined table: the mean of the present
// bitrate medians and the timestamp span in seconds.
func joinedStats(joined *feature.Joined) (meanBitrate, span float64) {
	var present []float64
	for _, v := range joined.BitrateMedian {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	meanBitrate = math.NaN()
	if len(present) > 0 {
		meanBitrate = stat.Mean(present, nil)
	}
	if n := joined.Len(); n > 1 {
		span = joined.Timestamps[n-1] - joined.Timestamps[0]
	}
	return meanBitrate, span
}
