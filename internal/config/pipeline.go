package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/timeline"
)

// Analysis defaults. These are the driver-path values: the bitrate median
// window here is deliberately tighter than the feature package's
// standalone default, and the driver joins inner while the standalone
// join defaults to outer.
const (
	DefaultIntervalSeconds   = 0.1
	DefaultSubcarriers       = 12
	DefaultHeaderAdjustBytes = 34
	DefaultCSIWindow         = 10
	DefaultCSIStride         = 1
	DefaultBitrateWindow     = 3
	DefaultBitrateStride     = 1
	DefaultSequenceLength    = 30
	DefaultOutputDir         = "analysis_output"
)

// DefaultAggregation is the CSI bucket aggregation used unless configured.
const DefaultAggregation = timeline.AggregationMean

// DefaultJoinMode is the driver-path join mode.
const DefaultJoinMode = feature.JoinInner

// Renderer selections for the joined-feature display.
const (
	RendererPNG  = "png"
	RendererHTML = "html"
	RendererNone = "none"
)

// DefaultRenderer is used unless configured.
const DefaultRenderer = RendererPNG

// PipelineConfig is the root configuration for a capture analysis run.
// Fields are pointers so a partial JSON file overrides only what it
// names; the Get* methods supply defaults for the rest.
type PipelineConfig struct {
	// Alignment params
	IntervalSeconds   *float64 `json:"interval_seconds,omitempty"`
	Subcarriers       *int     `json:"subcarriers,omitempty"` // 0 keeps every subcarrier
	Aggregation       *string  `json:"aggregation,omitempty"` // "mean" or "first"
	HeaderAdjustBytes *int     `json:"header_adjust_bytes,omitempty"`

	// Feature extraction params
	CSIWindow     *int    `json:"csi_window,omitempty"`
	CSIStride     *int    `json:"csi_stride,omitempty"`
	BitrateWindow *int    `json:"bitrate_window,omitempty"`
	BitrateStride *int    `json:"bitrate_stride,omitempty"`
	JoinMode      *string `json:"join_mode,omitempty"` // "inner" or "outer"

	// Run selection and output params
	FileSet      *int    `json:"file_set,omitempty"` // 0 processes every triple
	Renderer     *string `json:"renderer,omitempty"` // "png", "html", or "none"
	OutputDir    *string `json:"output_dir,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"` // empty disables persistence

	// Dataset export params
	DatasetPath    *string `json:"dataset_path,omitempty"` // empty disables export
	ActivityLabel  *string `json:"activity_label,omitempty"`
	SequenceLength *int    `json:"sequence_length,omitempty"`
	SequenceStride *int    `json:"sequence_stride,omitempty"` // 0 means non-overlapping
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields set to
// nil, so every Get* method answers with its default.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a PipelineConfig with every field set to
// its default value. Useful for writing an example config file.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		IntervalSeconds:   ptrFloat64(DefaultIntervalSeconds),
		Subcarriers:       ptrInt(DefaultSubcarriers),
		Aggregation:       ptrString(string(DefaultAggregation)),
		HeaderAdjustBytes: ptrInt(DefaultHeaderAdjustBytes),
		CSIWindow:         ptrInt(DefaultCSIWindow),
		CSIStride:         ptrInt(DefaultCSIStride),
		BitrateWindow:     ptrInt(DefaultBitrateWindow),
		BitrateStride:     ptrInt(DefaultBitrateStride),
		JoinMode:          ptrString(string(DefaultJoinMode)),
		FileSet:           ptrInt(0),
		Renderer:          ptrString(DefaultRenderer),
		OutputDir:         ptrString(DefaultOutputDir),
		SequenceLength:    ptrInt(DefaultSequenceLength),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.IntervalSeconds != nil && *c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %f", *c.IntervalSeconds)
	}
	if c.Subcarriers != nil && *c.Subcarriers < 0 {
		return fmt.Errorf("subcarriers must be non-negative, got %d", *c.Subcarriers)
	}
	if c.Aggregation != nil && *c.Aggregation != "" {
		if _, err := timeline.ParseAggregation(*c.Aggregation); err != nil {
			return err
		}
	}
	if c.HeaderAdjustBytes != nil && *c.HeaderAdjustBytes < 0 {
		return fmt.Errorf("header_adjust_bytes must be non-negative, got %d", *c.HeaderAdjustBytes)
	}
	for name, v := range map[string]*int{
		"csi_window":      c.CSIWindow,
		"csi_stride":      c.CSIStride,
		"bitrate_window":  c.BitrateWindow,
		"bitrate_stride":  c.BitrateStride,
		"sequence_length": c.SequenceLength,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, *v)
		}
	}
	if c.SequenceStride != nil && *c.SequenceStride < 0 {
		return fmt.Errorf("sequence_stride must be non-negative, got %d", *c.SequenceStride)
	}
	if c.JoinMode != nil && *c.JoinMode != "" {
		if _, err := feature.ParseJoinMode(*c.JoinMode); err != nil {
			return err
		}
	}
	if c.FileSet != nil && *c.FileSet < 0 {
		return fmt.Errorf("file_set must be non-negative, got %d", *c.FileSet)
	}
	if c.Renderer != nil && *c.Renderer != "" {
		switch *c.Renderer {
		case RendererPNG, RendererHTML, RendererNone:
		default:
			return fmt.Errorf("renderer must be %q, %q or %q, got %q",
				RendererPNG, RendererHTML, RendererNone, *c.Renderer)
		}
	}
	return nil
}

// GetIntervalSeconds returns the interval_seconds value or the default.
func (c *PipelineConfig) GetIntervalSeconds() float64 {
	if c.IntervalSeconds == nil {
		return DefaultIntervalSeconds
	}
	return *c.IntervalSeconds
}

// GetSubcarriers returns the subcarriers value or the default. Zero
// means keep every subcarrier.
func (c *PipelineConfig) GetSubcarriers() int {
	if c.Subcarriers == nil {
		return DefaultSubcarriers
	}
	return *c.Subcarriers
}

// GetAggregation parses and returns the aggregation method.
func (c *PipelineConfig) GetAggregation() timeline.Aggregation {
	if c.Aggregation == nil || *c.Aggregation == "" {
		return DefaultAggregation
	}
	agg, err := timeline.ParseAggregation(*c.Aggregation)
	if err != nil {
		return DefaultAggregation // default on parse error
	}
	return agg
}

// GetHeaderAdjustBytes returns the header_adjust_bytes value or the default.
func (c *PipelineConfig) GetHeaderAdjustBytes() int {
	if c.HeaderAdjustBytes == nil {
		return DefaultHeaderAdjustBytes
	}
	return *c.HeaderAdjustBytes
}

// GetCSIWindow returns the csi_window value or the default.
func (c *PipelineConfig) GetCSIWindow() int {
	if c.CSIWindow == nil {
		return DefaultCSIWindow
	}
	return *c.CSIWindow
}

// GetCSIStride returns the csi_stride value or the default.
func (c *PipelineConfig) GetCSIStride() int {
	if c.CSIStride == nil {
		return DefaultCSIStride
	}
	return *c.CSIStride
}

// GetBitrateWindow returns the bitrate_window value or the default.
func (c *PipelineConfig) GetBitrateWindow() int {
	if c.BitrateWindow == nil {
		return DefaultBitrateWindow
	}
	return *c.BitrateWindow
}

// GetBitrateStride returns the bitrate_stride value or the default.
func (c *PipelineConfig) GetBitrateStride() int {
	if c.BitrateStride == nil {
		return DefaultBitrateStride
	}
	return *c.BitrateStride
}

// GetJoinMode parses and returns the join mode.
func (c *PipelineConfig) GetJoinMode() feature.JoinMode {
	if c.JoinMode == nil || *c.JoinMode == "" {
		return DefaultJoinMode
	}
	mode, err := feature.ParseJoinMode(*c.JoinMode)
	if err != nil {
		return DefaultJoinMode // default on parse error
	}
	return mode
}

// GetFileSet returns the file_set selector or 0, meaning every triple.
func (c *PipelineConfig) GetFileSet() int {
	if c.FileSet == nil {
		return 0
	}
	return *c.FileSet
}

// GetRenderer returns the renderer value or the default.
func (c *PipelineConfig) GetRenderer() string {
	if c.Renderer == nil || *c.Renderer == "" {
		return DefaultRenderer
	}
	return *c.Renderer
}

// GetOutputDir returns the output_dir value or the default.
func (c *PipelineConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetDatabasePath returns the database_path value; empty disables
// persistence.
func (c *PipelineConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetDatasetPath returns the dataset_path value; empty disables export.
func (c *PipelineConfig) GetDatasetPath() string {
	if c.DatasetPath == nil {
		return ""
	}
	return *c.DatasetPath
}

// GetActivityLabel returns the activity_label value or an empty string.
func (c *PipelineConfig) GetActivityLabel() string {
	if c.ActivityLabel == nil {
		return ""
	}
	return *c.ActivityLabel
}

// GetSequenceLength returns the sequence_length value or the default.
func (c *PipelineConfig) GetSequenceLength() int {
	if c.SequenceLength == nil {
		return DefaultSequenceLength
	}
	return *c.SequenceLength
}

// GetSequenceStride returns the sequence_stride value. Unset means
// non-overlapping sequences, so the stride equals the sequence length.
func (c *PipelineConfig) GetSequenceStride() int {
	if c.SequenceStride == nil || *c.SequenceStride == 0 {
		return c.GetSequenceLength()
	}
	return *c.SequenceStride
}
