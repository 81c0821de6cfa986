// Package main provides a PCAP extraction tool for Wi-Fi capture traffic.
// It converts a PCAP file into the frame-export CSV the analysis pipeline
// reads: one row per frame carrying the epoch timestamp and wire length.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/wavesense-data/motion.report/internal/trace"
	"github.com/wavesense-data/motion.report/internal/units"
)

// Config holds command-line configuration.
type Config struct {
	PCAPFile   string
	OutputPath string
	UDPPort    int
	MaxFrames  int
	Verbose    bool
}

func main() {
	flags := parseFlags()

	if flags.PCAPFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -pcap is required")
		flag.Usage()
		os.Exit(1)
	}

	if _, err := os.Stat(flags.PCAPFile); os.IsNotExist(err) {
		log.Fatalf("PCAP file not found: %s", flags.PCAPFile)
	}

	outPath := flags.OutputPath
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(flags.PCAPFile), filepath.Ext(flags.PCAPFile))
		outPath = base + "_br.csv"
	}

	stats, err := extractFrames(flags, outPath)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	fmt.Printf("Frames: %d\n", stats.frames)
	fmt.Printf("Bytes on wire: %s\n", units.FormatBytes(float64(stats.bytes)))
	if stats.frames > 0 {
		fmt.Printf("Capture span: %s\n", units.FormatSeconds(stats.lastTS-stats.firstTS))
	}
	fmt.Printf("Frame export: %s\n", outPath)
}

func parseFlags() Config {
	var flags Config

	flag.StringVar(&flags.PCAPFile, "pcap", "", "Path to PCAP file (required)")
	flag.StringVar(&flags.OutputPath, "out", "", "Output CSV path (default: <pcap>_br.csv)")
	flag.IntVar(&flags.UDPPort, "port", 0, "Keep only UDP traffic on this port (0 keeps every frame)")
	flag.IntVar(&flags.MaxFrames, "max-frames", 0, "Stop after this many frames (0 extracts every frame)")
	flag.BoolVar(&flags.Verbose, "v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "PCAP Extraction Tool for Wi-Fi Capture Traffic\n\n")
		fmt.Fprintf(os.Stderr, "This tool converts a PCAP capture into the frame-export CSV the\n")
		fmt.Fprintf(os.Stderr, "analysis pipeline reads, one row per frame with its epoch timestamp\n")
		fmt.Fprintf(os.Stderr, "and wire length.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -pcap capture.pcap -out br_metadata/LLW2024_06_01_0900_br.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pcap capture.pcap -port 5500\n", os.Args[0])
	}

	flag.Parse()
	return flags
}

type extractStats struct {
	frames  int
	bytes   int64
	firstTS float64
	lastTS  float64
}

func extractFrames(flags Config, outPath string) (*extractStats, error) {
	in, err := os.Open(flags.PCAPFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCAP: %w", err)
	}
	defer in.Close()

	r, err := pcapgo.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCAP header: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{trace.TimeColumn, trace.LengthColumn}); err != nil {
		return nil, err
	}

	if flags.Verbose && flags.UDPPort > 0 {
		log.Printf("Filtering UDP port %d", flags.UDPPort)
	}

	stats := &extractStats{}
	port := layers.UDPPort(flags.UDPPort)
	packetSource := gopacket.NewPacketSource(r, r.LinkType())
	for packet := range packetSource.Packets() {
		if flags.UDPPort > 0 {
			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp := udpLayer.(*layers.UDP)
			if udp.SrcPort != port && udp.DstPort != port {
				continue
			}
		}

		meta := packet.Metadata()
		ts := float64(meta.Timestamp.UnixNano()) / 1e9

		row := []string{formatEpoch(meta.Timestamp), strconv.Itoa(meta.Length)}
		if err := w.Write(row); err != nil {
			return nil, err
		}

		if stats.frames == 0 {
			stats.firstTS = ts
		}
		stats.lastTS = ts
		stats.frames++
		stats.bytes += int64(meta.Length)

		if flags.Verbose && stats.frames%10000 == 0 {
			log.Printf("PCAP progress: %d frames extracted", stats.frames)
		}
		if flags.MaxFrames > 0 && stats.frames >= flags.MaxFrames {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return stats, nil
}

// formatEpoch renders a capture timestamp as epoch seconds with
// nanosecond precision, avoiding float64 rounding at the nanosecond.
func formatEpoch(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}
