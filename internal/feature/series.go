// Package feature derives scalar feature series from aligned grids by
// sliding fixed-size windows over them, and joins the derived series on
// their shared timestamp grid.
package feature

// Feature column names carried through joins, exports, and persistence.
const (
	CSIFeatureColumn    = "csi_feature"
	BitrateMedianColumn = "bitrate_median"
)

// Default window geometry for the CSI extractor, and for the median filter
// when it is used on its own. The pipeline driver configures the median
// filter with its own (smaller) window.
const (
	DefaultCSIWindow    = 10
	DefaultCSIStride    = 1
	DefaultMedianWindow = 5
	DefaultMedianStride = 1
)

// Series is one derived feature indexed by window-center timestamp.
type Series struct {
	Name       string
	Timestamps []float64
	Values     []float64
}

// Len returns the number of feature rows.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Timestamps)
}

// WindowCount returns how many full windows of size w at stride s fit over n
// rows: max(0, (n-w)/s + 1). Partial windows at the tail never count.
func WindowCount(n, w, s int) int {
	if w <= 0 || s <= 0 || n < w {
		return 0
	}
	return (n-w)/s + 1
}

// centerIndex is the input row whose timestamp labels a window.
func centerIndex(start, w int) int {
	return start + w/2
}
