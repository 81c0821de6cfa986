package feature

import (
	"fmt"
	"math"
	"sort"
)

// JoinMode selects how timestamps absent from one side of a join are
// treated.
type JoinMode string

const (
	// JoinInner keeps only timestamps present in both series.
	JoinInner JoinMode = "inner"
	// JoinOuter keeps every timestamp, padding the absent side with
	// missing values.
	JoinOuter JoinMode = "outer"
)

// DefaultJoinMode is used when no mode is given. The pipeline driver
// explicitly requests an inner join instead.
const DefaultJoinMode = JoinOuter

// ParseJoinMode validates a join mode string.
func ParseJoinMode(s string) (JoinMode, error) {
	switch JoinMode(s) {
	case JoinInner:
		return JoinInner, nil
	case JoinOuter:
		return JoinOuter, nil
	}
	return "", fmt.Errorf("join mode must be either %q or %q, got %q", JoinInner, JoinOuter, s)
}

// Joined is the row-aligned pairing of the two feature series.
type Joined struct {
	Timestamps    []float64
	CSIFeature    []float64
	BitrateMedian []float64
}

// Len returns the number of joined rows.
func (j *Joined) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Timestamps)
}

// Join pairs the CSI feature series with the bitrate median series on exact
// timestamp equality. Both series come off the same bucket grid, so equal
// instants carry identical float values and no tolerance is needed. Rows
// are returned in ascending timestamp order.
func Join(csi, bitrate *Series, mode JoinMode) (*Joined, error) {
	if mode == "" {
		mode = DefaultJoinMode
	}
	if mode != JoinInner && mode != JoinOuter {
		return nil, fmt.Errorf("join mode must be either %q or %q, got %q", JoinInner, JoinOuter, mode)
	}

	csiAt := make(map[float64]float64, csi.Len())
	for i, ts := range csi.Timestamps {
		if _, dup := csiAt[ts]; !dup {
			csiAt[ts] = csi.Values[i]
		}
	}
	bitrateAt := make(map[float64]float64, bitrate.Len())
	for i, ts := range bitrate.Timestamps {
		if _, dup := bitrateAt[ts]; !dup {
			bitrateAt[ts] = bitrate.Values[i]
		}
	}

	var stamps []float64
	switch mode {
	case JoinInner:
		for ts := range csiAt {
			if _, ok := bitrateAt[ts]; ok {
				stamps = append(stamps, ts)
			}
		}
	case JoinOuter:
		for ts := range csiAt {
			stamps = append(stamps, ts)
		}
		for ts := range bitrateAt {
			if _, ok := csiAt[ts]; !ok {
				stamps = append(stamps, ts)
			}
		}
	}
	sort.Float64s(stamps)

	out := &Joined{
		Timestamps:    stamps,
		CSIFeature:    make([]float64, len(stamps)),
		BitrateMedian: make([]float64, len(stamps)),
	}
	for i, ts := range stamps {
		out.CSIFeature[i] = valueOrNaN(csiAt, ts)
		out.BitrateMedian[i] = valueOrNaN(bitrateAt, ts)
	}
	return out, nil
}

func valueOrNaN(m map[float64]float64, ts float64) float64 {
	if v, ok := m[ts]; ok {
		return v
	}
	return math.NaN()
}
