// Command csi-analyse runs the capture analysis pipeline over a directory
// of Wi-Fi CSI and bitrate capture files. Each capture set is aligned onto
// a uniform time grid, reduced to windowed motion features and joined into
// a single table, which is then rendered, persisted and exported according
// to the configuration.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wavesense-data/motion.report/internal/config"
	"github.com/wavesense-data/motion.report/internal/pipeline"
	"github.com/wavesense-data/motion.report/internal/report"
	"github.com/wavesense-data/motion.report/internal/resultsdb"
	"github.com/wavesense-data/motion.report/internal/units"
	"github.com/wavesense-data/motion.report/internal/version"
)

// Config holds command-line configuration.
type Config struct {
	BaseDir    string
	FileSet    int
	ConfigPath string

	Interval     float64
	Subcarriers  int
	Aggregation  string
	HeaderAdjust int

	CSIWindow     int
	CSIStride     int
	BitrateWindow int
	BitrateStride int
	JoinMode      string

	Renderer   string
	OutputDir  string
	DBPath     string
	ExportJSON bool
	ExportCSV  bool

	Verbose     bool
	ShowVersion bool
}

func main() {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("csi-analyse %s\n", version.String())
		return
	}

	// Validate required flags
	if flags.BaseDir == "" {
		fmt.Fprintln(os.Stderr, "Error: -base-dir is required")
		flag.Usage()
		os.Exit(1)
	}

	if _, err := os.Stat(flags.BaseDir); os.IsNotExist(err) {
		log.Fatalf("Capture directory not found: %s", flags.BaseDir)
	}

	cfg, err := resolveConfig(flags)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	params := pipeline.ParamsFromConfig(cfg)
	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid parameters: %v", err)
	}

	outputDir := cfg.GetOutputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Assemble the displays that receive each joined feature table.
	var displays pipeline.MultiDisplay

	var collector *pipeline.Collector
	if flags.ExportJSON || flags.ExportCSV {
		collector = pipeline.NewCollector()
		displays = append(displays, collector)
	}

	var htmlReport *report.HTMLRenderer
	htmlPath := filepath.Join(outputDir, "feature_report.html")
	switch cfg.GetRenderer() {
	case config.RendererPNG:
		displays = append(displays, report.NewPNGRenderer(outputDir))
	case config.RendererHTML:
		htmlReport = report.NewHTMLRenderer(htmlPath)
		displays = append(displays, htmlReport)
	}

	var store *resultsdb.Store
	var runID string
	if dbPath := cfg.GetDatabasePath(); dbPath != "" {
		store, err = resultsdb.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open results database: %v", err)
		}
		defer store.Close()

		runID, err = store.StartRun(flags.BaseDir, params)
		if err != nil {
			log.Fatalf("Failed to record analysis run: %v", err)
		}
		displays = append(displays, store.Recorder(runID))
	}

	runner := &pipeline.Runner{
		Params:  params,
		Display: displays,
		Verbose: flags.Verbose,
	}

	summary, err := runner.Run(flags.BaseDir, cfg.GetFileSet())
	if err != nil {
		if store != nil {
			if ferr := store.FailRun(runID, err); ferr != nil {
				log.Printf("Warning: failed to record run failure: %v", ferr)
			}
		}
		log.Fatalf("Analysis failed: %v", err)
	}

	if store != nil {
		for _, res := range summary.Results {
			if !res.Skipped {
				continue
			}
			if err := store.SkipCapture(runID, res.Key, res.Reason); err != nil {
				log.Printf("Warning: failed to record skipped capture %s: %v", res.Key, err)
			}
		}
		if err := store.CompleteRun(runID); err != nil {
			log.Printf("Warning: failed to complete run record: %v", err)
		}
	}

	if htmlReport != nil {
		if err := htmlReport.Close(); err != nil {
			log.Fatalf("Failed to write HTML report: %v", err)
		}
	}

	printSummary(flags.BaseDir, params.Interval, summary)

	if err := exportResults(flags, outputDir, collector); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if htmlReport != nil && htmlReport.ChartCount() > 0 {
		fmt.Printf("HTML report: %s\n", htmlPath)
	}
	if store != nil {
		fmt.Printf("Results database: %s (run %s)\n", cfg.GetDatabasePath(), runID)
	}
}

func parseFlags() Config {
	var flags Config

	flag.StringVar(&flags.BaseDir, "base-dir", "", "Directory holding the three capture subdirectories (required)")
	flag.IntVar(&flags.FileSet, "set", 0, "Capture set to analyse, 1-indexed (0 analyses every set)")
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to a JSON configuration file")

	flag.Float64Var(&flags.Interval, "interval", config.DefaultIntervalSeconds, "Alignment interval in seconds")
	flag.IntVar(&flags.Subcarriers, "subcarriers", config.DefaultSubcarriers, "Number of CSI subcarrier columns to keep (0 keeps all)")
	flag.StringVar(&flags.Aggregation, "aggregation", string(config.DefaultAggregation), "Bucket aggregation for CSI samples (mean or first)")
	flag.IntVar(&flags.HeaderAdjust, "header-adjust", config.DefaultHeaderAdjustBytes, "Header bytes subtracted from each packet length")

	flag.IntVar(&flags.CSIWindow, "csi-window", config.DefaultCSIWindow, "Sliding window length for the CSI feature")
	flag.IntVar(&flags.CSIStride, "csi-stride", config.DefaultCSIStride, "Sliding window stride for the CSI feature")
	flag.IntVar(&flags.BitrateWindow, "bitrate-window", config.DefaultBitrateWindow, "Sliding window length for the bitrate median")
	flag.IntVar(&flags.BitrateStride, "bitrate-stride", config.DefaultBitrateStride, "Sliding window stride for the bitrate median")
	flag.StringVar(&flags.JoinMode, "join", string(config.DefaultJoinMode), "Join mode for the feature tables (inner or outer)")

	flag.StringVar(&flags.Renderer, "renderer", config.DefaultRenderer, "Joined feature display (png, html or none)")
	flag.StringVar(&flags.OutputDir, "output", config.DefaultOutputDir, "Output directory for rendered reports and exports")
	flag.StringVar(&flags.DBPath, "db", "", "SQLite database path (optional, for persistence)")
	flag.BoolVar(&flags.ExportJSON, "json", false, "Export joined feature tables to JSON")
	flag.BoolVar(&flags.ExportCSV, "csv", false, "Export joined feature tables to CSV")

	flag.BoolVar(&flags.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&flags.ShowVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Capture Analysis Tool for Wi-Fi CSI Motion Features\n\n")
		fmt.Fprintf(os.Stderr, "This tool processes capture sets through the full alignment pipeline:\n")
		fmt.Fprintf(os.Stderr, "  1. Discover capture sets across the three capture directories\n")
		fmt.Fprintf(os.Stderr, "  2. Align irregular CSI and bitrate samples onto a uniform time grid\n")
		fmt.Fprintf(os.Stderr, "  3. Fill grid gaps (forward/backward for CSI, zeros for bitrate)\n")
		fmt.Fprintf(os.Stderr, "  4. Extract windowed features (PCA eigenvalue, bitrate median)\n")
		fmt.Fprintf(os.Stderr, "  5. Join the feature tables on the shared time axis\n")
		fmt.Fprintf(os.Stderr, "  6. Render, persist and export the joined tables\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -base-dir ./captures\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -base-dir ./captures -set 2 -renderer html\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -base-dir ./captures -db results.db -json -csv\n", os.Args[0])
	}

	flag.Parse()
	return flags
}

// resolveConfig loads the optional configuration file and applies any flag
// the user set explicitly on top of it. Explicit flags win over file values.
func resolveConfig(flags Config) (*config.PipelineConfig, error) {
	cfg := config.EmptyPipelineConfig()
	if flags.ConfigPath != "" {
		loaded, err := config.LoadPipelineConfig(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			cfg.IntervalSeconds = &flags.Interval
		case "subcarriers":
			cfg.Subcarriers = &flags.Subcarriers
		case "aggregation":
			cfg.Aggregation = &flags.Aggregation
		case "header-adjust":
			cfg.HeaderAdjustBytes = &flags.HeaderAdjust
		case "csi-window":
			cfg.CSIWindow = &flags.CSIWindow
		case "csi-stride":
			cfg.CSIStride = &flags.CSIStride
		case "bitrate-window":
			cfg.BitrateWindow = &flags.BitrateWindow
		case "bitrate-stride":
			cfg.BitrateStride = &flags.BitrateStride
		case "join":
			cfg.JoinMode = &flags.JoinMode
		case "set":
			cfg.FileSet = &flags.FileSet
		case "renderer":
			cfg.Renderer = &flags.Renderer
		case "output":
			cfg.OutputDir = &flags.OutputDir
		case "db":
			cfg.DatabasePath = &flags.DBPath
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printSummary(baseDir string, interval float64, summary *pipeline.RunSummary) {
	fmt.Println("\n========== Capture Analysis Summary ==========")
	fmt.Printf("Base directory: %s\n", baseDir)
	fmt.Printf("Captures: %d processed, %d skipped\n", summary.Processed, summary.Skipped)
	fmt.Println()
	for _, res := range summary.Results {
		if res.Skipped {
			fmt.Printf("  %s: skipped (%s)\n", res.Key, res.Reason)
			continue
		}
		fmt.Printf("  %s: %d rows, %s span, mean bitrate %s\n",
			res.Key, res.Rows, units.FormatSeconds(res.Span), units.FormatRate(res.MeanBitrate/interval))
	}
	fmt.Println("==============================================")
}

// captureExport is the JSON shape of one joined feature table. Gap cells
// are null rather than NaN so the document stays valid JSON.
type captureExport struct {
	CaptureKey    string     `json:"capture_key"`
	Rows          int        `json:"rows"`
	Timestamps    []float64  `json:"timestamps"`
	CSIFeature    []*float64 `json:"csi_feature"`
	BitrateMedian []*float64 `json:"bitrate_median"`
}

func exportResults(flags Config, outputDir string, collector *pipeline.Collector) error {
	if collector == nil {
		return nil
	}

	if flags.ExportJSON {
		exports := make([]captureExport, 0, len(collector.Keys))
		for _, key := range collector.Keys {
			joined := collector.Tables[key]
			exports = append(exports, captureExport{
				CaptureKey:    key,
				Rows:          joined.Len(),
				Timestamps:    joined.Timestamps,
				CSIFeature:    nullableSlice(joined.CSIFeature),
				BitrateMedian: nullableSlice(joined.BitrateMedian),
			})
		}

		jsonPath := filepath.Join(outputDir, "joined_features.json")
		data, err := json.MarshalIndent(exports, "", "  ")
		if err != nil {
			return fmt.Errorf("JSON marshal: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Printf("JSON results: %s\n", jsonPath)
	}

	if flags.ExportCSV {
		csvPath := filepath.Join(outputDir, "joined_features.csv")
		if err := exportJoinedCSV(csvPath, collector); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
		fmt.Printf("CSV results: %s\n", csvPath)
	}

	return nil
}

func exportJoinedCSV(path string, collector *pipeline.Collector) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"capture_key", "timestamp", "csi_feature", "bitrate_median"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, key := range collector.Keys {
		joined := collector.Tables[key]
		for i, ts := range joined.Timestamps {
			row := []string{
				key,
				strconv.FormatFloat(ts, 'f', 6, 64),
				formatCell(joined.CSIFeature[i]),
				formatCell(joined.BitrateMedian[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}

// nullableSlice maps NaN gap cells to JSON null.
func nullableSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}

// formatCell renders one table cell, leaving gap cells empty.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
