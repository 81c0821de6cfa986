package pipeline

import (
	"testing"

	"github.com/wavesense-data/motion.report/internal/config"
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/timeline"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.Interval != 0.1 {
		t.Errorf("Interval = %v, want 0.1", p.Interval)
	}
	if p.Subcarriers != 12 {
		t.Errorf("Subcarriers = %d, want 12", p.Subcarriers)
	}
	if p.Aggregation != timeline.AggregationMean {
		t.Errorf("Aggregation = %q, want mean", p.Aggregation)
	}
	if p.HeaderAdjust != 34 {
		t.Errorf("HeaderAdjust = %d, want 34", p.HeaderAdjust)
	}
	if p.CSIWindow != 10 || p.CSIStride != 1 {
		t.Errorf("CSI window/stride = %d/%d, want 10/1", p.CSIWindow, p.CSIStride)
	}
	if p.BitrateWindow != 3 || p.BitrateStride != 1 {
		t.Errorf("bitrate window/stride = %d/%d, want 3/1", p.BitrateWindow, p.BitrateStride)
	}
	if p.JoinMode != feature.JoinInner {
		t.Errorf("JoinMode = %q, want inner", p.JoinMode)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default params failed validation: %v", err)
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg := config.EmptyPipelineConfig()
	interval := 0.2
	agg := "first"
	mode := "outer"
	cfg.IntervalSeconds = &interval
	cfg.Aggregation = &agg
	cfg.JoinMode = &mode

	p := ParamsFromConfig(cfg)
	if p.Interval != 0.2 {
		t.Errorf("Interval = %v, want 0.2", p.Interval)
	}
	if p.Aggregation != timeline.AggregationFirst {
		t.Errorf("Aggregation = %q, want first", p.Aggregation)
	}
	if p.JoinMode != feature.JoinOuter {
		t.Errorf("JoinMode = %q, want outer", p.JoinMode)
	}
	// Unset fields resolve to driver defaults.
	if p.BitrateWindow != 3 {
		t.Errorf("BitrateWindow = %d, want 3", p.BitrateWindow)
	}
}

func TestParamsValidate(t *testing.T) {
	valid := DefaultParams()

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero interval", func(p *Params) { p.Interval = 0 }},
		{"negative subcarriers", func(p *Params) { p.Subcarriers = -1 }},
		{"unknown aggregation", func(p *Params) { p.Aggregation = "median" }},
		{"negative header adjust", func(p *Params) { p.HeaderAdjust = -1 }},
		{"zero csi window", func(p *Params) { p.CSIWindow = 0 }},
		{"zero csi stride", func(p *Params) { p.CSIStride = 0 }},
		{"zero bitrate window", func(p *Params) { p.BitrateWindow = 0 }},
		{"zero bitrate stride", func(p *Params) { p.BitrateStride = 0 }},
		{"unknown join mode", func(p *Params) { p.JoinMode = "cross" }},
		{"empty join mode", func(p *Params) { p.JoinMode = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
