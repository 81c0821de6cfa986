// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wavesense-data/motion.report/internal/fileset"
	"github.com/wavesense-data/motion.report/internal/trace"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CaptureTriple describes one synthetic capture for fixture writing. The
// key must be exactly fifteen characters; timestamps are shared by the
// magnitude sidecar and the bitrate export.
type CaptureTriple struct {
	Key        string
	Timestamps []float64
	Magnitudes [][]float64
	Lengths    []float64
}

// WriteCaptureTriple writes a capture triple under baseDir using the
// directory layout and header conventions the readers expect, and
// returns the capture key.
func WriteCaptureTriple(t *testing.T, baseDir string, c CaptureTriple) string {
	t.Helper()
	if len(c.Key) != 15 {
		t.Fatalf("capture key %q must be 15 characters", c.Key)
	}

	var mag strings.Builder
	for _, row := range c.Magnitudes {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%g", v)
		}
		mag.WriteString(strings.Join(cells, ","))
		mag.WriteString("\n")
	}
	writeFixture(t, baseDir, fileset.MagnitudeDir, "mag"+c.Key+".csv", mag.String())

	var meta strings.Builder
	meta.WriteString(trace.TimeColumn + "\n")
	for _, ts := range c.Timestamps {
		fmt.Fprintf(&meta, "%g\n", ts)
	}
	writeFixture(t, baseDir, fileset.MetadataDir, "met"+c.Key+".csv", meta.String())

	var br strings.Builder
	br.WriteString(trace.TimeColumn + "," + trace.LengthColumn + "\r\n")
	for i, ts := range c.Timestamps {
		length := 100.0
		if i < len(c.Lengths) {
			length = c.Lengths[i]
		}
		fmt.Fprintf(&br, "%g,%g\r\r\n", ts, length)
	}
	writeFixture(t, baseDir, fileset.BitrateDir, "br_"+c.Key+".csv", br.String())

	return c.Key
}

func writeFixture(t *testing.T, baseDir, dir, name, content string) {
	t.Helper()
	path := filepath.Join(baseDir, dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}
}
