package main

import (
	"encoding/csv"
	"flag"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wavesense-data/motion.report/internal/config"
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/pipeline"
)

func ptrFloat64(v float64) *float64 { return &v }

// TestFlagOverridePrecedence verifies the merge order used by
// resolveConfig: configuration file values apply first and any flag the
// user set explicitly wins over them. This mirrors the flag.Visit switch
// in main.go using a private FlagSet.
func TestFlagOverridePrecedence(t *testing.T) {
	tests := []struct {
		name         string
		fileInterval *float64
		args         []string
		want         float64
	}{
		{
			name: "defaults only",
			args: []string{},
			want: config.DefaultIntervalSeconds,
		},
		{
			name:         "file value applies",
			fileInterval: ptrFloat64(0.25),
			args:         []string{},
			want:         0.25,
		},
		{
			name:         "explicit flag wins over file",
			fileInterval: ptrFloat64(0.25),
			args:         []string{"-interval", "0.05"},
			want:         0.05,
		},
		{
			name:         "explicit flag restating the default still wins",
			fileInterval: ptrFloat64(0.25),
			args:         []string{"-interval", "0.1"},
			want:         0.1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			interval := fs.Float64("interval", config.DefaultIntervalSeconds, "Alignment interval in seconds")
			if err := fs.Parse(tc.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg := config.EmptyPipelineConfig()
			cfg.IntervalSeconds = tc.fileInterval
			fs.Visit(func(f *flag.Flag) {
				if f.Name == "interval" {
					cfg.IntervalSeconds = interval
				}
			})

			if got := cfg.GetIntervalSeconds(); got != tc.want {
				t.Errorf("interval = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestJoinModeFlagParsing verifies the join flag accepts both modes and
// rejects anything else once resolved through the configuration.
func TestJoinModeFlagParsing(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    feature.JoinMode
		wantErr bool
	}{
		{
			name: "flag not set keeps driver default",
			args: []string{},
			want: feature.JoinInner,
		},
		{
			name: "outer join requested",
			args: []string{"-join", "outer"},
			want: feature.JoinOuter,
		},
		{
			name: "inner join requested",
			args: []string{"-join", "inner"},
			want: feature.JoinInner,
		},
		{
			name:    "unknown mode rejected",
			args:    []string{"-join", "cross"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			join := fs.String("join", string(config.DefaultJoinMode), "Join mode for the feature tables")
			if err := fs.Parse(tc.args); err != nil {
				t.Fatalf("failed to parse flags: %v", err)
			}

			cfg := config.EmptyPipelineConfig()
			fs.Visit(func(f *flag.Flag) {
				if f.Name == "join" {
					cfg.JoinMode = join
				}
			})

			err := cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected a validation error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got := cfg.GetJoinMode(); got != tc.want {
				t.Errorf("join mode = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNullableSlice(t *testing.T) {
	out := nullableSlice([]float64{1.5, math.NaN(), 0})

	if out[0] == nil || *out[0] != 1.5 {
		t.Errorf("out[0] = %v, want 1.5", out[0])
	}
	if out[1] != nil {
		t.Errorf("out[1] = %v, want nil for a gap cell", *out[1])
	}
	if out[2] == nil || *out[2] != 0 {
		t.Errorf("out[2] = %v, want 0", out[2])
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), ""},
		{2.68, "2.68"},
		{90, "90"},
		{12.5, "12.5"},
	}

	for _, tc := range tests {
		if got := formatCell(tc.in); got != tc.want {
			t.Errorf("formatCell(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExportJoinedCSV(t *testing.T) {
	c := pipeline.NewCollector()
	c.Show("2024_06_01_0900", &feature.Joined{
		Timestamps:    []float64{0.5, 0.6},
		CSIFeature:    []float64{1.25, math.NaN()},
		BitrateMedian: []float64{90, 0},
	})

	path := filepath.Join(t.TempDir(), "joined.csv")
	if err := exportJoinedCSV(path, c); err != nil {
		t.Fatalf("exportJoinedCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "capture_key" || rows[0][3] != "bitrate_median" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "0.500000" {
		t.Errorf("timestamp cell = %q, want %q", rows[1][1], "0.500000")
	}
	if rows[1][2] != "1.25" {
		t.Errorf("feature cell = %q, want %q", rows[1][2], "1.25")
	}
	if rows[2][2] != "" {
		t.Errorf("gap cell = %q, want empty", rows[2][2])
	}
	if rows[2][0] != "2024_06_01_0900" {
		t.Errorf("capture key cell = %q", rows[2][0])
	}
}
