// Package units provides shared formatting for byte counts, rates and
// time spans in summary output.
package units

import (
	"fmt"
	"math"
	"time"
)

// Binary byte multiples.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// FormatBytes renders a byte count using the largest binary unit that
// keeps the value at or above one. NaN renders as "n/a" so summaries of
// empty captures stay printable.
func FormatBytes(n float64) string {
	switch {
	case math.IsNaN(n):
		return "n/a"
	case n >= GiB:
		return fmt.Sprintf("%.2f GiB", n/GiB)
	case n >= MiB:
		return fmt.Sprintf("%.2f MiB", n/MiB)
	case n >= KiB:
		return fmt.Sprintf("%.2f KiB", n/KiB)
	default:
		return fmt.Sprintf("%.0f B", n)
	}
}

// FormatRate renders a byte rate per second.
func FormatRate(bytesPerSecond float64) string {
	if math.IsNaN(bytesPerSecond) {
		return "n/a"
	}
	return FormatBytes(bytesPerSecond) + "/s"
}

// FormatSeconds renders a span given in seconds.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) {
		return "n/a"
	}
	return FormatDuration(time.Duration(seconds * float64(time.Second)))
}

// FormatDuration renders a duration compactly: sub-minute spans keep
// one decimal, longer spans switch to minute and hour forms.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
