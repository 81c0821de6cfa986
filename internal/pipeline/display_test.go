package pipeline

import (
	"errors"
	"testing"

	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/monitoring"
)

type recordingDisplay struct {
	keys []string
	rows []int
	err  error
}

func (d *recordingDisplay) Show(key string, joined *feature.Joined) error {
	d.keys = append(d.keys, key)
	d.rows = append(d.rows, joined.Len())
	return d.err
}

func TestNopDisplay(t *testing.T) {
	if err := (NopDisplay{}).Show("any", &feature.Joined{}); err != nil {
		t.Errorf("NopDisplay returned %v", err)
	}
}

func TestMultiDisplayRunsEveryDisplay(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(nil)

	failing := &recordingDisplay{err: errors.New("render failed")}
	second := &recordingDisplay{}
	multi := MultiDisplay{failing, second}

	joined := &feature.Joined{Timestamps: []float64{0.1}, CSIFeature: []float64{1}, BitrateMedian: []float64{2}}
	err := multi.Show("2024_06_01_0900", joined)
	if err == nil || err.Error() != "render failed" {
		t.Errorf("Show returned %v, want first failure", err)
	}
	if len(second.keys) != 1 || second.keys[0] != "2024_06_01_0900" {
		t.Errorf("second display keys = %v, want the capture shown", second.keys)
	}
	if second.rows[0] != 1 {
		t.Errorf("second display rows = %v, want [1]", second.rows)
	}
}

func TestMultiDisplayNoFailures(t *testing.T) {
	a := &recordingDisplay{}
	b := &recordingDisplay{}
	if err := (MultiDisplay{a, b}).Show("k", &feature.Joined{}); err != nil {
		t.Errorf("Show returned %v, want nil", err)
	}
	if len(a.keys) != 1 || len(b.keys) != 1 {
		t.Error("not every display ran")
	}
}

func TestCollectorKeepsArrivalOrder(t *testing.T) {
	c := NewCollector()
	first := &feature.Joined{Timestamps: []float64{0.5}, CSIFeature: []float64{1.25}, BitrateMedian: []float64{90}}
	second := &feature.Joined{Timestamps: []float64{0.6}, CSIFeature: []float64{2.5}, BitrateMedian: []float64{120}}

	if err := c.Show("2024_06_01_0900", first); err != nil {
		t.Fatalf("Show returned %v", err)
	}
	if err := c.Show("2024_05_30_1400", second); err != nil {
		t.Fatalf("Show returned %v", err)
	}

	if len(c.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(c.Keys))
	}
	if c.Keys[0] != "2024_06_01_0900" || c.Keys[1] != "2024_05_30_1400" {
		t.Errorf("keys out of arrival order: %v", c.Keys)
	}
	if c.Tables["2024_05_30_1400"] != second {
		t.Error("collector did not retain the second table")
	}
}

func TestCollectorReplacesRepeatedKey(t *testing.T) {
	c := NewCollector()
	stale := &feature.Joined{Timestamps: []float64{0.5}, CSIFeature: []float64{1}, BitrateMedian: []float64{2}}
	fresh := &feature.Joined{Timestamps: []float64{0.6}, CSIFeature: []float64{3}, BitrateMedian: []float64{4}}

	c.Show("2024_06_01_0900", stale)
	c.Show("2024_06_01_0900", fresh)

	if len(c.Keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(c.Keys))
	}
	if c.Tables["2024_06_01_0900"] != fresh {
		t.Error("repeated key did not replace the stored table")
	}
}
