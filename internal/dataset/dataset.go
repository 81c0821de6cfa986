// Package dataset converts joined feature tables into the classifier's
// training input: fixed-length runs of bitrate medians, each labeled
// with the capture's activity class.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wavesense-data/motion.report/internal/feature"
)

// Activity labels.
const (
	LabelStatic   = 0
	LabelActivity = 1
)

// Header columns of the training CSV.
const (
	ActivityColumn = "Activity"
	SequenceColumn = "Bitrate_Sequence"
)

// ParseActivity maps an activity name to its numeric label. Matching is
// case-insensitive. Unknown names map to LabelActivity; ok reports
// whether the name was recognised so callers can warn.
func ParseActivity(name string) (label int, ok bool) {
	switch strings.ToLower(name) {
	case "static":
		return LabelStatic, true
	case "mild", "aggressive":
		return LabelActivity, true
	default:
		return LabelActivity, false
	}
}

// Sequence is one labeled training sample.
type Sequence struct {
	Label  int
	Values []float64
}

// Sequences windows the joined bitrate medians into fixed-length
// labeled samples. Windows are taken in table order, length samples at
// a time, advancing by stride. A capture shorter than length produces
// no samples, and any window containing NaN is dropped rather than
// padded.
func Sequences(joined *feature.Joined, length, stride, label int) ([]Sequence, error) {
	if length <= 0 {
		return nil, fmt.Errorf("sequence length must be positive, got %d", length)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("sequence stride must be positive, got %d", stride)
	}
	if joined == nil {
		return nil, nil
	}

	var seqs []Sequence
	for start := 0; start+length <= joined.Len(); start += stride {
		window := joined.BitrateMedian[start : start+length]
		if hasNaN(window) {
			continue
		}
		values := make([]float64, length)
		copy(values, window)
		seqs = append(seqs, Sequence{Label: label, Values: values})
	}
	return seqs, nil
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// WriteCSV writes sequences in the classifier's input format: the label
// as an integer and the window as a JSON array in a single CSV cell.
func WriteCSV(w io.Writer, seqs []Sequence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ActivityColumn, SequenceColumn}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, seq := range seqs {
		encoded, err := json.Marshal(seq.Values)
		if err != nil {
			return fmt.Errorf("encode sequence: %w", err)
		}
		if err := cw.Write([]string{strconv.Itoa(seq.Label), string(encoded)}); err != nil {
			return fmt.Errorf("write sequence row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes sequences to path, creating parent directories as
// needed.
func WriteFile(path string, seqs []Sequence) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	if err := WriteCSV(f, seqs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
