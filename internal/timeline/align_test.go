package timeline

import (
	"math"
	"testing"
)

func TestParseAggregation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Aggregation
		wantErr bool
	}{
		{name: "mean", input: "mean", want: AggregationMean},
		{name: "first", input: "first", want: AggregationFirst},
		{name: "unknown", input: "median", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Mean", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAggregation(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAggregation(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAggregation(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAggregation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSelectSubcarriers(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		target int
		want   []int
	}{
		{name: "all when target zero", total: 4, target: 0, want: []int{0, 1, 2, 3}},
		{name: "all when target equals total", total: 4, target: 4, want: []int{0, 1, 2, 3}},
		{name: "all when target exceeds total", total: 4, target: 5, want: []int{0, 1, 2, 3}},
		{name: "single keeps first", total: 5, target: 1, want: []int{0}},
		{name: "ends preserved", total: 5, target: 2, want: []int{0, 4}},
		{name: "odd spacing truncates", total: 10, target: 3, want: []int{0, 4, 9}},
		{name: "three of five", total: 5, target: 3, want: []int{0, 2, 4}},
		{name: "twelve of sixty-four", total: 64, target: 12,
			want: []int{0, 5, 11, 17, 22, 28, 34, 40, 45, 51, 57, 63}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectSubcarriers(tt.total, tt.target)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectSubcarriers(%d, %d) = %v, want %v", tt.total, tt.target, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SelectSubcarriers(%d, %d)[%d] = %d, want %d", tt.total, tt.target, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAlignCSIMeanAggregation(t *testing.T) {
	// Two samples share bucket 10, bucket 11 and 12 are empty, bucket 13
	// holds one sample.
	timestamps := []float64{1.0, 1.02, 1.3}
	magnitudes := [][]float64{{2, 20}, {4, 40}, {10, 100}}

	g, err := AlignCSI(timestamps, magnitudes, 0.1, 0, AggregationMean)
	if err != nil {
		t.Fatalf("AlignCSI: %v", err)
	}

	if g.Rows() != 4 {
		t.Fatalf("Rows() = %d, want 4", g.Rows())
	}
	if len(g.Columns) != 2 || g.Columns[0] != "subcarrier_0" || g.Columns[1] != "subcarrier_1" {
		t.Fatalf("Columns = %v, want [subcarrier_0 subcarrier_1]", g.Columns)
	}

	if got := g.Values[0][0]; math.Abs(got-3) > 1e-12 {
		t.Errorf("bucket 0 column 0 = %v, want 3", got)
	}
	if got := g.Values[0][1]; math.Abs(got-30) > 1e-12 {
		t.Errorf("bucket 0 column 1 = %v, want 30", got)
	}
	for r := 1; r <= 2; r++ {
		for c := 0; c < 2; c++ {
			if !math.IsNaN(g.Values[r][c]) {
				t.Errorf("empty bucket %d column %d = %v, want NaN", r, c, g.Values[r][c])
			}
		}
	}
	if got := g.Values[3][0]; got != 10 {
		t.Errorf("bucket 3 column 0 = %v, want 10", got)
	}
}

func TestAlignCSIFirstKeepsOriginalOrder(t *testing.T) {
	// Both samples round to the same bucket; "first" keeps the earlier row
	// of the input, not the earlier timestamp.
	timestamps := []float64{1.02, 1.0}
	magnitudes := [][]float64{{4}, {2}}

	g, err := AlignCSI(timestamps, magnitudes, 0.1, 0, AggregationFirst)
	if err != nil {
		t.Fatalf("AlignCSI: %v", err)
	}
	if g.Rows() != 1 {
		t.Fatalf("Rows() = %d, want 1", g.Rows())
	}
	if got := g.Values[0][0]; got != 4 {
		t.Errorf("first aggregation = %v, want 4", got)
	}
}

func TestAlignCSIFirstRoundTrip(t *testing.T) {
	// One sample per bucket, shuffled: alignment reorders the raw values by
	// bucket without changing them.
	timestamps := []float64{0.3, 0.0, 0.2, 0.1}
	magnitudes := [][]float64{{30}, {0}, {20}, {10}}

	g, err := AlignCSI(timestamps, magnitudes, 0.1, 0, AggregationFirst)
	if err != nil {
		t.Fatalf("AlignCSI: %v", err)
	}
	want := []float64{0, 10, 20, 30}
	if g.Rows() != len(want) {
		t.Fatalf("Rows() = %d, want %d", g.Rows(), len(want))
	}
	for r, w := range want {
		if g.Values[r][0] != w {
			t.Errorf("row %d = %v, want %v", r, g.Values[r][0], w)
		}
	}
}

func TestAlignCSIGridRowCount(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []float64
		interval   float64
	}{
		{name: "sparse", timestamps: []float64{0.0, 0.5, 2.7}, interval: 0.1},
		{name: "dense duplicates", timestamps: []float64{1.0, 1.0, 1.01, 1.04, 1.11}, interval: 0.1},
		{name: "single sample", timestamps: []float64{3.21}, interval: 0.1},
		{name: "coarse interval", timestamps: []float64{0.2, 4.9, 9.1}, interval: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			magnitudes := make([][]float64, len(tt.timestamps))
			for i := range magnitudes {
				magnitudes[i] = []float64{float64(i)}
			}
			g, err := AlignCSI(tt.timestamps, magnitudes, tt.interval, 0, AggregationMean)
			if err != nil {
				t.Fatalf("AlignCSI: %v", err)
			}

			kMin, kMax := BucketIndex(tt.timestamps[0], tt.interval), BucketIndex(tt.timestamps[0], tt.interval)
			for _, ts := range tt.timestamps {
				k := BucketIndex(ts, tt.interval)
				if k < kMin {
					kMin = k
				}
				if k > kMax {
					kMax = k
				}
			}
			wantRows := int(kMax-kMin) + 1
			if g.Rows() != wantRows {
				t.Errorf("Rows() = %d, want %d", g.Rows(), wantRows)
			}

			// Every raw timestamp must land on exactly one grid label.
			labels := make(map[float64]int)
			for _, ts := range g.Timestamps {
				labels[ts]++
			}
			for _, ts := range tt.timestamps {
				label := BucketTime(BucketIndex(ts, tt.interval), tt.interval)
				if labels[label] != 1 {
					t.Errorf("raw timestamp %v maps to label %v seen %d times, want 1", ts, label, labels[label])
				}
			}
		})
	}
}

func TestAlignCSIHundredSampleCapture(t *testing.T) {
	// 100 irregular samples spanning ten seconds of capture. Every tenth
	// bucket starting at 5 receives no sample of its own (its sample lands
	// in the previous bucket), so the aligned grid has gaps that the fill
	// pass must close.
	timestamps := make([]float64, 100)
	magnitudes := make([][]float64, 100)
	for i := 0; i < 100; i++ {
		switch {
		case i%10 == 5:
			timestamps[i] = float64(i-1)*0.1 + 0.03
		case i%2 == 0:
			timestamps[i] = float64(i)*0.1 - 0.02
		default:
			timestamps[i] = float64(i)*0.1 + 0.02
		}
		magnitudes[i] = []float64{5.0}
	}

	g, err := AlignCSI(timestamps, magnitudes, 0.1, 0, AggregationMean)
	if err != nil {
		t.Fatalf("AlignCSI: %v", err)
	}
	if g.Rows() != 100 {
		t.Fatalf("Rows() = %d, want 100", g.Rows())
	}

	sawGap := false
	for r := 0; r < g.Rows(); r++ {
		if math.IsNaN(g.Values[r][0]) {
			sawGap = true
		}
	}
	if !sawGap {
		t.Fatal("expected at least one empty bucket before filling")
	}

	FillCSIGaps(g)
	for r := 0; r < g.Rows(); r++ {
		if got := g.Values[r][0]; got != 5.0 {
			t.Errorf("filled cell %d = %v, want 5.0", r, got)
		}
	}
}

func TestAlignCSISubsetRenumbersColumns(t *testing.T) {
	timestamps := []float64{0.0, 0.1}
	magnitudes := [][]float64{
		{0, 1, 2, 3, 4},
		{10, 11, 12, 13, 14},
	}

	g, err := AlignCSI(timestamps, magnitudes, 0.1, 3, AggregationMean)
	if err != nil {
		t.Fatalf("AlignCSI: %v", err)
	}
	wantCols := []string{"subcarrier_0", "subcarrier_1", "subcarrier_2"}
	for i, want := range wantCols {
		if g.Columns[i] != want {
			t.Errorf("Columns[%d] = %q, want %q", i, g.Columns[i], want)
		}
	}
	// Selected source indices are 0, 2, 4.
	wantRow := []float64{10, 12, 14}
	for c, want := range wantRow {
		if got := g.Values[1][c]; got != want {
			t.Errorf("row 1 column %d = %v, want %v", c, got, want)
		}
	}
}

func TestAlignCSIErrors(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []float64
		magnitudes [][]float64
		interval   float64
		agg        Aggregation
	}{
		{name: "bad aggregation", timestamps: []float64{0}, magnitudes: [][]float64{{1}}, interval: 0.1, agg: "median"},
		{name: "empty input", timestamps: nil, magnitudes: nil, interval: 0.1, agg: AggregationMean},
		{name: "length mismatch", timestamps: []float64{0, 1}, magnitudes: [][]float64{{1}}, interval: 0.1, agg: AggregationMean},
		{name: "ragged rows", timestamps: []float64{0, 1}, magnitudes: [][]float64{{1, 2}, {1}}, interval: 0.1, agg: AggregationMean},
		{name: "zero interval", timestamps: []float64{0}, magnitudes: [][]float64{{1}}, interval: 0, agg: AggregationMean},
		{name: "empty rows", timestamps: []float64{0}, magnitudes: [][]float64{{}}, interval: 0.1, agg: AggregationMean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AlignCSI(tt.timestamps, tt.magnitudes, tt.interval, 0, tt.agg); err == nil {
				t.Error("AlignCSI expected error, got nil")
			}
		})
	}
}

func TestAlignBitratePayloadSum(t *testing.T) {
	// Two packets in one bucket: payload sum is (100-34) + (50-34).
	timestamps := []float64{1.23, 1.23}
	lengths := []float64{100, 50}

	g, err := AlignBitrate(timestamps, lengths, 0.1, 34)
	if err != nil {
		t.Fatalf("AlignBitrate: %v", err)
	}
	if g.Rows() != 1 {
		t.Fatalf("Rows() = %d, want 1", g.Rows())
	}
	if len(g.Columns) != 1 || g.Columns[0] != BitrateColumn {
		t.Fatalf("Columns = %v, want [%s]", g.Columns, BitrateColumn)
	}
	if got := g.Values[0][0]; got != 82 {
		t.Errorf("payload sum = %v, want 82", got)
	}
	wantTS := BucketTime(BucketIndex(1.23, 0.1), 0.1)
	if g.Timestamps[0] != wantTS {
		t.Errorf("Timestamps[0] = %v, want %v", g.Timestamps[0], wantTS)
	}
}

func TestAlignBitrateNegativePayloadKept(t *testing.T) {
	g, err := AlignBitrate([]float64{0.0}, []float64{20}, 0.1, 34)
	if err != nil {
		t.Fatalf("AlignBitrate: %v", err)
	}
	if got := g.Values[0][0]; got != -14 {
		t.Errorf("payload = %v, want -14 (not clamped)", got)
	}
}

func TestAlignBitrateEmptyBucketsAreMissing(t *testing.T) {
	g, err := AlignBitrate([]float64{0.0, 0.5}, []float64{100, 200}, 0.1, 34)
	if err != nil {
		t.Fatalf("AlignBitrate: %v", err)
	}
	if g.Rows() != 6 {
		t.Fatalf("Rows() = %d, want 6", g.Rows())
	}
	for r := 1; r <= 4; r++ {
		if !math.IsNaN(g.Values[r][0]) {
			t.Errorf("empty bucket %d = %v, want NaN", r, g.Values[r][0])
		}
	}

	FillBitrateGaps(g)
	for r := 1; r <= 4; r++ {
		if got := g.Values[r][0]; got != 0 {
			t.Errorf("filled bucket %d = %v, want 0", r, got)
		}
	}
	if got := g.Values[0][0]; got != 66 {
		t.Errorf("occupied bucket 0 = %v, want 66", got)
	}
}

func TestAlignBitrateErrors(t *testing.T) {
	if _, err := AlignBitrate(nil, nil, 0.1, 34); err == nil {
		t.Error("empty input: expected error, got nil")
	}
	if _, err := AlignBitrate([]float64{0}, []float64{1, 2}, 0.1, 34); err == nil {
		t.Error("length mismatch: expected error, got nil")
	}
	if _, err := AlignBitrate([]float64{0}, []float64{1}, -0.1, 34); err == nil {
		t.Error("negative interval: expected error, got nil")
	}
}
