package timeline

import (
	"math"
	"strings"
)

// FillCSIGaps sorts the grid by timestamp, then replaces missing subcarrier
// values by the nearest earlier known value, and any still-missing leading
// cells by the nearest later known value. Columns are filled independently;
// a column with no known value at all stays missing. Filling an already
// filled grid is a no-op.
func FillCSIGaps(g *Grid) {
	if g.Rows() == 0 {
		return
	}
	g.SortByTimestamp()
	for _, c := range g.SubcarrierColumns() {
		last := math.NaN()
		for r := 0; r < g.Rows(); r++ {
			if math.IsNaN(g.Values[r][c]) {
				g.Values[r][c] = last
			} else {
				last = g.Values[r][c]
			}
		}
		next := math.NaN()
		for r := g.Rows() - 1; r >= 0; r-- {
			if math.IsNaN(g.Values[r][c]) {
				g.Values[r][c] = next
			} else {
				next = g.Values[r][c]
			}
		}
	}
}

// FillBitrateGaps sorts the grid by timestamp, then replaces missing values
// with zero in every column whose name contains "bitrate". A missing bucket
// means no traffic was observed there, so zero is the true value, unlike the
// CSI case where the channel still existed between packets.
func FillBitrateGaps(g *Grid) {
	if g.Rows() == 0 {
		return
	}
	g.SortByTimestamp()
	for c, name := range g.Columns {
		if !strings.Contains(name, "bitrate") {
			continue
		}
		for r := 0; r < g.Rows(); r++ {
			if math.IsNaN(g.Values[r][c]) {
				g.Values[r][c] = 0
			}
		}
	}
}
