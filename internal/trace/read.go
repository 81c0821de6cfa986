package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadCSICapture loads a magnitude table and its timestamp sidecar. The
// magnitude file is headerless, one sample per row, one subcarrier per
// column. The sidecar carries a TimeColumn header and one timestamp per
// magnitude row.
func ReadCSICapture(magnitudePath, metadataPath string) (*CSICapture, error) {
	magRows, err := readRows(magnitudePath)
	if err != nil {
		return nil, err
	}
	if len(magRows) == 0 {
		return nil, fmt.Errorf("%s: no magnitude samples", magnitudePath)
	}

	metaRows, err := readRows(metadataPath)
	if err != nil {
		return nil, err
	}
	if len(metaRows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", metadataPath)
	}
	timeIdx := columnIndex(metaRows[0], TimeColumn)
	if timeIdx < 0 {
		return nil, fmt.Errorf("%s: missing %q column", metadataPath, TimeColumn)
	}
	metaRows = metaRows[1:]
	if len(metaRows) == 0 {
		return nil, fmt.Errorf("%s: no timestamps", metadataPath)
	}
	if len(metaRows) != len(magRows) {
		return nil, fmt.Errorf("%s has %d samples but %s has %d timestamps",
			magnitudePath, len(magRows), metadataPath, len(metaRows))
	}

	capture := &CSICapture{
		Timestamps: make([]float64, len(metaRows)),
		Magnitudes: make([][]float64, len(magRows)),
	}
	for i, row := range metaRows {
		ts, err := parseCell(row[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad timestamp: %w", metadataPath, i+2, err)
		}
		capture.Timestamps[i] = ts
	}
	for i, row := range magRows {
		sample := make([]float64, len(row))
		for j, cell := range row {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: bad magnitude: %w",
					magnitudePath, i+1, j+1, err)
			}
			sample[j] = v
		}
		capture.Magnitudes[i] = sample
	}
	return capture, nil
}

// ReadBitrateCapture loads a Wireshark frame export carrying TimeColumn
// and LengthColumn.
func ReadBitrateCapture(path string) (*BitrateCapture, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	timeIdx := columnIndex(rows[0], TimeColumn)
	if timeIdx < 0 {
		return nil, fmt.Errorf("%s: missing %q column", path, TimeColumn)
	}
	lengthIdx := columnIndex(rows[0], LengthColumn)
	if lengthIdx < 0 {
		return nil, fmt.Errorf("%s: missing %q column", path, LengthColumn)
	}
	rows = rows[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no frames", path)
	}

	capture := &BitrateCapture{
		Timestamps: make([]float64, len(rows)),
		Lengths:    make([]float64, len(rows)),
	}
	for i, row := range rows {
		ts, err := parseCell(row[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad timestamp: %w", path, i+2, err)
		}
		length, err := parseCell(row[lengthIdx])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad length: %w", path, i+2, err)
		}
		capture.Timestamps[i] = ts
		capture.Lengths[i] = length
	}
	return capture, nil
}

// readRows parses a whole CSV file. Ragged rows surface as csv errors.
func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// columnIndex finds name in a header row. The first cell is compared with
// any byte order mark stripped; otherwise the match is exact, trailing
// carriage returns included.
func columnIndex(header []string, name string) int {
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\uFEFF")
		}
		if cell == name {
			return i
		}
	}
	return -1
}

// parseCell parses one numeric cell, tolerating padding and stray
// carriage returns inside the cell.
func parseCell(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}
