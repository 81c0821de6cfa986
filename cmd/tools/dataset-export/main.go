// Package main provides a training dataset export tool. It cuts the
// bitrate median series of analysed captures into fixed-length labelled
// sequences and writes them as a training CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/wavesense-data/motion.report/internal/config"
	"github.com/wavesense-data/motion.report/internal/dataset"
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/pipeline"
	"github.com/wavesense-data/motion.report/internal/resultsdb"
)

// Config holds command-line configuration.
type Config struct {
	BaseDir      string
	DBPath       string
	RunID        string
	FeaturesPath string
	ConfigPath   string

	Label          string
	OutputPath     string
	SequenceLength int
	SequenceStride int

	Verbose bool
}

const defaultOutputPath = "training_sequences.csv"

func main() {
	flags := parseFlags()

	if countSources(flags) != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -base-dir, -db or -features is required")
		flag.Usage()
		os.Exit(1)
	}
	if flags.DBPath != "" && flags.RunID == "" {
		fmt.Fprintln(os.Stderr, "Error: -run is required with -db")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := resolveConfig(flags)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	labelName := cfg.GetActivityLabel()
	if labelName == "" {
		fmt.Fprintln(os.Stderr, "Error: -label is required")
		flag.Usage()
		os.Exit(1)
	}
	label, ok := dataset.ParseActivity(labelName)
	if !ok {
		log.Printf("Warning: unknown activity %q, labelled as activity (%d)", labelName, label)
	}

	outPath := cfg.GetDatasetPath()
	if outPath == "" {
		outPath = defaultOutputPath
	}

	collector := pipeline.NewCollector()
	switch {
	case flags.BaseDir != "":
		if err := collectFromCaptures(flags, cfg, collector); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
	case flags.DBPath != "":
		if err := collectFromStore(flags, collector); err != nil {
			log.Fatalf("Failed to load recorded run: %v", err)
		}
	default:
		if err := collectFromExport(flags.FeaturesPath, collector); err != nil {
			log.Fatalf("Failed to read joined features export: %v", err)
		}
	}

	seqLen := cfg.GetSequenceLength()
	stride := cfg.GetSequenceStride()

	var seqs []dataset.Sequence
	for _, key := range collector.Keys {
		s, err := dataset.Sequences(collector.Tables[key], seqLen, stride, label)
		if err != nil {
			log.Fatalf("Sequence extraction failed for %s: %v", key, err)
		}
		if flags.Verbose {
			log.Printf("Capture %s: %d sequences", key, len(s))
		}
		seqs = append(seqs, s...)
	}

	if len(seqs) == 0 {
		log.Printf("Warning: no sequences extracted; captures may be shorter than %d samples", seqLen)
	}

	if err := dataset.WriteFile(outPath, seqs); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	fmt.Printf("Captures: %d\n", len(collector.Keys))
	fmt.Printf("Sequences: %d (label %q, length %d, stride %d)\n", len(seqs), labelName, seqLen, stride)
	fmt.Printf("Training dataset: %s\n", outPath)
}

func parseFlags() Config {
	var flags Config

	flag.StringVar(&flags.BaseDir, "base-dir", "", "Capture directory to analyse")
	flag.StringVar(&flags.DBPath, "db", "", "Results database holding an earlier run")
	flag.StringVar(&flags.RunID, "run", "", "Run ID inside the results database (required with -db)")
	flag.StringVar(&flags.FeaturesPath, "features", "", "Joined features CSV exported by csi-analyse")
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to a JSON configuration file")

	flag.StringVar(&flags.Label, "label", "", "Activity label for every sequence (static, mild or aggressive; required)")
	flag.StringVar(&flags.OutputPath, "out", "", "Output CSV path (default: "+defaultOutputPath+")")
	flag.IntVar(&flags.SequenceLength, "seq-len", config.DefaultSequenceLength, "Samples per training sequence")
	flag.IntVar(&flags.SequenceStride, "stride", 0, "Stride between sequence starts (0 means non-overlapping)")

	flag.BoolVar(&flags.Verbose, "v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Training Dataset Export Tool for Wi-Fi Motion Sequences\n\n")
		fmt.Fprintf(os.Stderr, "This tool cuts analysed captures into fixed-length labelled sequences\n")
		fmt.Fprintf(os.Stderr, "for model training. Captures come from a fresh analysis of a capture\n")
		fmt.Fprintf(os.Stderr, "directory, from a run recorded in a results database, or from a\n")
		fmt.Fprintf(os.Stderr, "joined features CSV export.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -base-dir ./captures -label static -out static.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db results.db -run 7f0ce1aa -label aggressive\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -features out/joined_features.csv -label mild\n", os.Args[0])
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
		case "label":
			cfg.ActivityLabel = &flags.Label
		case "out":
			cfg.DatasetPath = &flags.OutputPath
		case "seq-len":
			cfg.SequenceLength = &flags.SequenceLength
		case "stride":
			cfg.SequenceStride = &flags.SequenceStride
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func collectFromCaptures(flags Config, cfg *config.PipelineConfig, collector *pipeline.Collector) error {
	if _, err := os.Stat(flags.BaseDir); os.IsNotExist(err) {
		return fmt.Errorf("capture directory not found: %s", flags.BaseDir)
	}

	runner := &pipeline.Runner{
		Params:  pipeline.ParamsFromConfig(cfg),
		Display: collector,
		Verbose: flags.Verbose,
	}
	summary, err := runner.Run(flags.BaseDir, cfg.GetFileSet())
	if err != nil {
		return err
	}
	if summary.Skipped > 0 {
		log.Printf("Warning: %d capture sets skipped", summary.Skipped)
	}
	return nil
}

// countSources reports how many of the three input sources were given.
func countSources(flags Config) int {
	n := 0
	for _, s := range []string{flags.BaseDir, flags.DBPath, flags.FeaturesPath} {
		if s != "" {
			n++
		}
	}
	return n
}

func collectFromStore(flags Config, collector *pipeline.Collector) error {
	store, err := resultsdb.Open(flags.DBPath)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer store.Close()

	run, err := store.GetRun(flags.RunID)
	if err != nil {
		return err
	}
	if run.Status != resultsdb.StatusCompleted {
		log.Printf("Warning: run %s is %s, results may be partial", run.RunID, run.Status)
	}

	results, err := store.ListCaptureResults(flags.RunID)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Status != resultsdb.CaptureProcessed {
			continue
		}
		joined, err := store.JoinedFeatures(flags.RunID, res.CaptureKey)
		if err != nil {
			return err
		}
		if err := collector.Show(res.CaptureKey, joined); err != nil {
			return err
		}
	}
	return nil
}

// collectFromExport reads a joined features CSV export, regrouping rows
// into one table per capture key in first-appearance order.
func collectFromExport(path string, collector *pipeline.Collector) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range []string{"capture_key", "timestamp", "csi_feature", "bitrate_median"} {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("column %q missing from %s", name, path)
		}
	}

	tables := make(map[string]*feature.Joined)
	var keys []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		key := row[idx["capture_key"]]
		joined, ok := tables[key]
		if !ok {
			joined = &feature.Joined{}
			tables[key] = joined
			keys = append(keys, key)
		}

		ts, err := strconv.ParseFloat(row[idx["timestamp"]], 64)
		if err != nil {
			return fmt.Errorf("bad timestamp %q in %s: %w", row[idx["timestamp"]], path, err)
		}
		csiCell, err := parseGapCell(row[idx["csi_feature"]])
		if err != nil {
			return fmt.Errorf("bad csi_feature %q in %s: %w", row[idx["csi_feature"]], path, err)
		}
		brCell, err := parseGapCell(row[idx["bitrate_median"]])
		if err != nil {
			return fmt.Errorf("bad bitrate_median %q in %s: %w", row[idx["bitrate_median"]], path, err)
		}

		joined.Timestamps = append(joined.Timestamps, ts)
		joined.CSIFeature = append(joined.CSIFeature, csiCell)
		joined.BitrateMedian = append(joined.BitrateMedian, brCell)
	}

	for _, key := range keys {
		if err := collector.Show(key, tables[key]); err != nil {
			return err
		}
	}
	return nil
}

// parseGapCell parses one feature cell, mapping the empty gap cell back
// to NaN.
func parseGapCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
