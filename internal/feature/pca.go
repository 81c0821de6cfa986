package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wavesense-data/motion.report/internal/timeline"
)

// CSIFeature slides a window over the grid's subcarrier columns and reduces
// each window to the variance captured by its first principal component.
// Window rows are observations, subcarriers are variables. The result is
// rounded to two decimal places, half to even.
//
// Windows containing a missing magnitude produce a missing feature value
// rather than an error, as do degenerate windows whose covariance is
// undefined (a single row).
func CSIFeature(g *timeline.Grid, windowSize, stride int) (*Series, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	cols := g.SubcarrierColumns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("grid has no %s columns", timeline.SubcarrierPrefix)
	}

	n := g.Rows()
	count := WindowCount(n, windowSize, stride)
	out := &Series{
		Name:       CSIFeatureColumn,
		Timestamps: make([]float64, 0, count),
		Values:     make([]float64, 0, count),
	}

	window := mat.NewDense(windowSize, len(cols), nil)
	var pc stat.PC
	for start := 0; start+windowSize <= n; start += stride {
		clean := true
		for r := 0; r < windowSize; r++ {
			for c, col := range cols {
				v := g.Values[start+r][col]
				if math.IsNaN(v) {
					clean = false
				}
				window.Set(r, c, v)
			}
		}

		value := math.NaN()
		if clean && windowSize > 1 {
			if ok := pc.PrincipalComponents(window, nil); ok {
				value = round2(pc.VarsTo(nil)[0])
			}
		}
		out.Timestamps = append(out.Timestamps, g.Timestamps[centerIndex(start, windowSize)])
		out.Values = append(out.Values, value)
	}
	return out, nil
}

// round2 rounds to two decimal places, ties to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
