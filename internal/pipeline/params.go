package pipeline

import (
	"fmt"

	"github.com/wavesense-data/motion.report/internal/config"
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/timeline"
)

// Params carries the numeric knobs for one analysis run. Zero values are
// not usable; start from DefaultParams or ParamsFromConfig.
type Params struct {
	Interval      float64
	Subcarriers   int
	Aggregation   timeline.Aggregation
	HeaderAdjust  int
	CSIWindow     int
	CSIStride     int
	BitrateWindow int
	BitrateStride int
	JoinMode      feature.JoinMode
}

// DefaultParams returns the driver-path defaults.
func DefaultParams() Params {
	return ParamsFromConfig(config.EmptyPipelineConfig())
}

// ParamsFromConfig resolves a configuration into run parameters.
func ParamsFromConfig(cfg *config.PipelineConfig) Params {
	return Params{
		Interval:      cfg.GetIntervalSeconds(),
		Subcarriers:   cfg.GetSubcarriers(),
		Aggregation:   cfg.GetAggregation(),
		HeaderAdjust:  cfg.GetHeaderAdjustBytes(),
		CSIWindow:     cfg.GetCSIWindow(),
		CSIStride:     cfg.GetCSIStride(),
		BitrateWindow: cfg.GetBitrateWindow(),
		BitrateStride: cfg.GetBitrateStride(),
		JoinMode:      cfg.GetJoinMode(),
	}
}

// Validate rejects unusable parameter combinations before any capture is
// touched. A bad aggregation or join mode is a configuration mistake,
// not a per-capture condition, so it fails the whole run.
func (p Params) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %f", p.Interval)
	}
	if p.Subcarriers < 0 {
		return fmt.Errorf("subcarrier count must be non-negative, got %d", p.Subcarriers)
	}
	if _, err := timeline.ParseAggregation(string(p.Aggregation)); err != nil {
		return err
	}
	if p.HeaderAdjust < 0 {
		return fmt.Errorf("header adjust must be non-negative, got %d", p.HeaderAdjust)
	}
	if p.CSIWindow < 1 || p.CSIStride < 1 {
		return fmt.Errorf("CSI window/stride must be at least 1, got %d/%d", p.CSIWindow, p.CSIStride)
	}
	if p.BitrateWindow < 1 || p.BitrateStride < 1 {
		return fmt.Errorf("bitrate window/stride must be at least 1, got %d/%d", p.BitrateWindow, p.BitrateStride)
	}
	if _, err := feature.ParseJoinMode(string(p.JoinMode)); err != nil {
		return err
	}
	return nil
}
