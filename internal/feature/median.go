package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/wavesense-data/motion.report/internal/timeline"
)

// BitrateMedian slides a window over the grid's bitrate column and reduces
// each window to its median, skipping missing values. The grid is sorted by
// timestamp before windowing so strides walk the grid in time order.
func BitrateMedian(g *timeline.Grid, windowSize, stride int) (*Series, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	col, ok := g.ColumnIndex(timeline.BitrateColumn)
	if !ok {
		return nil, fmt.Errorf("grid has no %s column", timeline.BitrateColumn)
	}
	g.SortByTimestamp()

	n := g.Rows()
	count := WindowCount(n, windowSize, stride)
	out := &Series{
		Name:       BitrateMedianColumn,
		Timestamps: make([]float64, 0, count),
		Values:     make([]float64, 0, count),
	}

	window := make([]float64, 0, windowSize)
	for start := 0; start+windowSize <= n; start += stride {
		window = window[:0]
		for r := start; r < start+windowSize; r++ {
			if v := g.Values[r][col]; !math.IsNaN(v) {
				window = append(window, v)
			}
		}
		out.Timestamps = append(out.Timestamps, g.Timestamps[centerIndex(start, windowSize)])
		out.Values = append(out.Values, median(window))
	}
	return out, nil
}

// median returns the middle value of vs, averaging the two central values
// for even counts. It sorts a copy and reports NaN for an empty slice.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
