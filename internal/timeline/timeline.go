// Package timeline resamples irregularly timestamped packet measurements
// onto a uniform sampling grid and fills the gaps the alignment leaves
// behind. Grids are the common currency between the trace readers and the
// feature extractors: rows are bucket timestamps, columns are named signals,
// and cells with no contributing raw samples hold NaN until a fill pass
// replaces them.
package timeline

import (
	"math"
	"sort"
	"strings"
)

// Column naming shared across the pipeline. Subcarrier columns are numbered
// subcarrier_0..subcarrier_{n-1} after any subsetting; the aligned bitrate
// column is always bitrate_bytes.
const (
	SubcarrierPrefix = "subcarrier_"
	BitrateColumn    = "bitrate_bytes"
)

// Grid is a table of aggregated values on a uniform timestamp grid. The
// timestamp axis runs from the rounded minimum to the rounded maximum of the
// raw data at a fixed interval; it never extrapolates beyond the observed
// range.
type Grid struct {
	Interval   float64
	Timestamps []float64
	Columns    []string
	Values     [][]float64 // Values[row][col]; NaN marks a missing cell
}

// Rows returns the number of grid timestamps.
func (g *Grid) Rows() int {
	if g == nil {
		return 0
	}
	return len(g.Timestamps)
}

// ColumnIndex locates a value column by name.
func (g *Grid) ColumnIndex(name string) (int, bool) {
	for i, c := range g.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns a copy of one value column in row order.
func (g *Grid) Column(name string) ([]float64, bool) {
	idx, ok := g.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, g.Rows())
	for r := range g.Values {
		out[r] = g.Values[r][idx]
	}
	return out, true
}

// SubcarrierColumns returns the indices of the subcarrier value columns in
// declaration order.
func (g *Grid) SubcarrierColumns() []int {
	var idx []int
	for i, c := range g.Columns {
		if strings.HasPrefix(c, SubcarrierPrefix) {
			idx = append(idx, i)
		}
	}
	return idx
}

// SortByTimestamp stably reorders the grid rows into ascending timestamp
// order. Aligned grids are already sorted; fill passes call this to uphold
// their sorted-input contract for hand-built grids.
func (g *Grid) SortByTimestamp() {
	if g.Rows() < 2 {
		return
	}
	sort.Stable(byTimestamp{g})
}

type byTimestamp struct{ g *Grid }

func (b byTimestamp) Len() int           { return b.g.Rows() }
func (b byTimestamp) Less(i, j int) bool { return b.g.Timestamps[i] < b.g.Timestamps[j] }
func (b byTimestamp) Swap(i, j int) {
	b.g.Timestamps[i], b.g.Timestamps[j] = b.g.Timestamps[j], b.g.Timestamps[i]
	b.g.Values[i], b.g.Values[j] = b.g.Values[j], b.g.Values[i]
}

// BucketIndex maps a raw timestamp to its grid bucket at the given interval.
// Ties round half to even, matching the rounding the grid labels are built
// from.
func BucketIndex(ts, interval float64) int64 {
	return int64(math.RoundToEven(ts / interval))
}

// BucketTime materialises the grid label for a bucket index. Every grid
// label derives from this one expression, so a bucket key and its label
// compare equal exactly and two grids built at the same interval join
// exactly.
func BucketTime(bucket int64, interval float64) float64 {
	return float64(bucket) * interval
}
