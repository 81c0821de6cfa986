package timeline

import (
	"fmt"
	"math"
)

// Aggregation selects how raw samples sharing a grid bucket collapse into
// one value.
type Aggregation string

const (
	// AggregationMean averages all samples landing in a bucket, per column
	// independently.
	AggregationMean Aggregation = "mean"
	// AggregationFirst keeps the first sample in original row order.
	AggregationFirst Aggregation = "first"
)

// ParseAggregation validates a configured aggregation method name.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(s) {
	case AggregationMean, AggregationFirst:
		return Aggregation(s), nil
	}
	return "", fmt.Errorf("aggregation method must be either %q or %q, got %q", AggregationMean, AggregationFirst, s)
}

// SelectSubcarriers returns target subcarrier indices evenly spaced over
// [0, total-1] by linear interpolation, truncated to integers. The first and
// last indices are always selected. Truncation can collapse neighbours into
// duplicates; duplicates are kept. A target of 0 (or >= total) selects every
// index.
func SelectSubcarriers(total, target int) []int {
	if total <= 0 {
		return nil
	}
	if target <= 0 || target >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, target)
	if target == 1 {
		return idx
	}
	step := float64(total-1) / float64(target-1)
	for j := 1; j < target-1; j++ {
		idx[j] = int(float64(j) * step)
	}
	idx[target-1] = total - 1
	return idx
}

// AlignCSI resamples per-packet subcarrier magnitudes onto a uniform grid.
// Each row of magnitudes pairs with the timestamp at the same index; rows
// whose timestamps round to the same bucket are aggregated per column. When
// subcarriers is positive and smaller than the capture width, an evenly
// spaced subset is retained and the output columns are renumbered from zero.
// Buckets no raw sample rounds to hold NaN in every column.
func AlignCSI(timestamps []float64, magnitudes [][]float64, interval float64, subcarriers int, agg Aggregation) (*Grid, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %g", interval)
	}
	if _, err := ParseAggregation(string(agg)); err != nil {
		return nil, err
	}
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no samples to align")
	}
	if len(magnitudes) != len(timestamps) {
		return nil, fmt.Errorf("magnitude rows (%d) and timestamps (%d) disagree", len(magnitudes), len(timestamps))
	}
	total := len(magnitudes[0])
	if total == 0 {
		return nil, fmt.Errorf("magnitude rows are empty")
	}
	for i, row := range magnitudes {
		if len(row) != total {
			return nil, fmt.Errorf("magnitude row %d has %d subcarriers, want %d", i, len(row), total)
		}
	}

	selected := SelectSubcarriers(total, subcarriers)
	width := len(selected)

	buckets := make([]int64, len(timestamps))
	kMin, kMax := int64(math.MaxInt64), int64(math.MinInt64)
	for i, ts := range timestamps {
		k := BucketIndex(ts, interval)
		buckets[i] = k
		if k < kMin {
			kMin = k
		}
		if k > kMax {
			kMax = k
		}
	}

	rows := int(kMax-kMin) + 1
	g := newGrid(interval, kMin, rows, make([]string, width))
	for j := range selected {
		g.Columns[j] = fmt.Sprintf("%s%d", SubcarrierPrefix, j)
	}

	switch agg {
	case AggregationMean:
		counts := make([]int, rows)
		sums := make([][]float64, rows)
		for i, k := range buckets {
			r := int(k - kMin)
			if sums[r] == nil {
				sums[r] = make([]float64, width)
			}
			for c, si := range selected {
				sums[r][c] += magnitudes[i][si]
			}
			counts[r]++
		}
		for r := 0; r < rows; r++ {
			if counts[r] == 0 {
				continue
			}
			for c := 0; c < width; c++ {
				g.Values[r][c] = sums[r][c] / float64(counts[r])
			}
		}
	case AggregationFirst:
		seen := make([]bool, rows)
		for i, k := range buckets {
			r := int(k - kMin)
			if seen[r] {
				continue
			}
			seen[r] = true
			for c, si := range selected {
				g.Values[r][c] = magnitudes[i][si]
			}
		}
	}

	return g, nil
}

// AlignBitrate converts per-packet lengths into summed payload bytes per
// grid bucket. headerAdjust is subtracted from every length before summing;
// negative payloads are kept, not clamped. Buckets with no packets hold NaN
// (no traffic is only assumed by the zero fill pass, never here).
func AlignBitrate(timestamps []float64, lengths []float64, interval float64, headerAdjust int) (*Grid, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %g", interval)
	}
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no packets to align")
	}
	if len(lengths) != len(timestamps) {
		return nil, fmt.Errorf("packet lengths (%d) and timestamps (%d) disagree", len(lengths), len(timestamps))
	}

	buckets := make([]int64, len(timestamps))
	kMin, kMax := int64(math.MaxInt64), int64(math.MinInt64)
	for i, ts := range timestamps {
		k := BucketIndex(ts, interval)
		buckets[i] = k
		if k < kMin {
			kMin = k
		}
		if k > kMax {
			kMax = k
		}
	}

	rows := int(kMax-kMin) + 1
	g := newGrid(interval, kMin, rows, []string{BitrateColumn})

	sums := make([]float64, rows)
	seen := make([]bool, rows)
	for i, k := range buckets {
		r := int(k - kMin)
		sums[r] += lengths[i] - float64(headerAdjust)
		seen[r] = true
	}
	for r := 0; r < rows; r++ {
		if seen[r] {
			g.Values[r][0] = sums[r]
		}
	}

	return g, nil
}

// newGrid builds a grid of NaN cells spanning rows buckets from kMin.
func newGrid(interval float64, kMin int64, rows int, columns []string) *Grid {
	g := &Grid{
		Interval:   interval,
		Timestamps: make([]float64, rows),
		Columns:    columns,
		Values:     make([][]float64, rows),
	}
	for r := 0; r < rows; r++ {
		g.Timestamps[r] = BucketTime(kMin+int64(r), interval)
		row := make([]float64, len(columns))
		for c := range row {
			row[c] = math.NaN()
		}
		g.Values[r] = row
	}
	return g
}
