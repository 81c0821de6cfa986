// Package trace reads the capture exports produced by the collection rig:
// raw CSI magnitude tables, their timestamp sidecars, and packet length
// exports from Wireshark.
//
// The Wireshark exports carry a quirk worth knowing about: the length
// column header ends with a literal carriage return, left over from the
// capture host's line endings. Readers match that header byte for byte,
// so a cleaned-up export is rejected rather than silently misread.
package trace

const (
	// TimeColumn holds capture timestamps as fractional epoch seconds.
	TimeColumn = "frame.time"
	// LengthColumn holds frame lengths in bytes. The trailing carriage
	// return is part of the name as written by the capture host.
	LengthColumn = "_ws.col.Length\r"
)

// CSICapture is one capture's channel state samples: a timestamp per row
// and one magnitude per subcarrier per row.
type CSICapture struct {
	Timestamps []float64
	Magnitudes [][]float64
}

// Len returns the number of samples.
func (c *CSICapture) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Timestamps)
}

// Subcarriers returns the number of magnitude columns per sample.
func (c *CSICapture) Subcarriers() int {
	if c == nil || len(c.Magnitudes) == 0 {
		return 0
	}
	return len(c.Magnitudes[0])
}

// BitrateCapture is one capture's frame log: a timestamp and a frame
// length in bytes per captured frame.
type BitrateCapture struct {
	Timestamps []float64
	Lengths    []float64
}

// Len returns the number of captured frames.
func (c *BitrateCapture) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Timestamps)
}
