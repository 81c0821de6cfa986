// Package fileset discovers matched capture triples under a base
// directory. Each capture session leaves three files behind, one per
// subdirectory: a CSI magnitude table, a CSI timestamp sidecar, and a
// bitrate frame export. The three filenames share a fifteen character
// capture identifier at a fixed offset, and pairing is driven by that
// identifier. Lexicographic rank only breaks ties between files that
// share an identifier within one directory.
package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Capture subdirectories expected under the base directory.
const (
	MagnitudeDir = "csi_magnitude_data"
	MetadataDir  = "csi_metadata"
	BitrateDir   = "br_metadata"
)

// Capture identifier position within a raw filename: a three character
// prefix, then fifteen identifier characters.
const (
	keyStart = 3
	keyEnd   = 18
)

// CaptureKey extracts the shared capture identifier from a raw filename.
// It reports false for names too short to carry one.
func CaptureKey(name string) (string, bool) {
	if len(name) < keyEnd {
		return "", false
	}
	return name[keyStart:keyEnd], true
}

// Triple is one matched capture: full paths to its magnitude table,
// timestamp sidecar, and bitrate export.
type Triple struct {
	Key       string
	Magnitude string
	Metadata  string
	Bitrate   string
}

// Incomplete records a capture identifier that is absent from at least
// one of the three directories.
type Incomplete struct {
	Key     string
	Missing []string
}

// Discovery is the result of scanning a capture base directory.
type Discovery struct {
	// Triples holds fully matched captures ordered by identifier.
	Triples []Triple
	// Incomplete holds identifiers that could not be matched across all
	// three directories.
	Incomplete []Incomplete
	// Extras holds files whose identifier matched but which had no
	// counterpart at the same rank, such as a re-captured session that
	// left two magnitude tables behind.
	Extras []string
	// Unkeyed holds files whose names are too short to carry an
	// identifier.
	Unkeyed []string
}

// Discover scans the three capture subdirectories under baseDir and
// pairs files by capture identifier. A missing subdirectory is an error;
// unmatched or unparseable files are reported on the Discovery for the
// caller to log, not dropped silently.
func Discover(baseDir string) (*Discovery, error) {
	dirs := []string{MagnitudeDir, MetadataDir, BitrateDir}
	byDir := make([]map[string][]string, len(dirs))
	disc := &Discovery{}

	for i, dir := range dirs {
		entries, err := os.ReadDir(filepath.Join(baseDir, dir))
		if err != nil {
			return nil, fmt.Errorf("failed to list capture directory: %w", err)
		}
		keyed := make(map[string][]string)
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			key, ok := CaptureKey(name)
			if !ok {
				disc.Unkeyed = append(disc.Unkeyed, filepath.Join(dir, name))
				continue
			}
			keyed[key] = append(keyed[key], name)
		}
		byDir[i] = keyed
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, keyed := range byDir {
		for k := range keyed {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		var missing []string
		matched := 0
		for i, dir := range dirs {
			n := len(byDir[i][key])
			if n == 0 {
				missing = append(missing, dir)
			} else if matched == 0 || n < matched {
				matched = n
			}
		}
		if len(missing) > 0 {
			disc.Incomplete = append(disc.Incomplete, Incomplete{Key: key, Missing: missing})
			continue
		}
		for r := 0; r < matched; r++ {
			disc.Triples = append(disc.Triples, Triple{
				Key:       key,
				Magnitude: filepath.Join(baseDir, MagnitudeDir, byDir[0][key][r]),
				Metadata:  filepath.Join(baseDir, MetadataDir, byDir[1][key][r]),
				Bitrate:   filepath.Join(baseDir, BitrateDir, byDir[2][key][r]),
			})
		}
		for i, dir := range dirs {
			for _, name := range byDir[i][key][matched:] {
				disc.Extras = append(disc.Extras, filepath.Join(dir, name))
			}
		}
	}
	return disc, nil
}
