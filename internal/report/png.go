// Package report renders joined feature tables for human review.
//
// Two renderers are provided: PNGRenderer writes one image per capture
// with the CSI feature and bitrate median stacked in separate panels,
// and HTMLRenderer accumulates interactive charts across captures into
// a single page. Both satisfy pipeline.Display so the runner can drive
// them without knowing which output format is in use.
package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/fsutil"
	"github.com/wavesense-data/motion.report/internal/pipeline"
	"github.com/wavesense-data/motion.report/internal/security"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	pngWidth  = 10 * vg.Inch
	pngHeight = 8 * vg.Inch

	xAxisLabel    = "Timestamp (s)"
	csiTitle      = "Extracted CSI Feature (PCA-based)"
	csiYLabel     = "CSI Feature Value"
	bitrateTitle  = "Aligned Bitrate Data"
	bitrateYLabel = "Bitrate (bytes)"
)

var (
	csiLineColor     = color.RGBA{B: 255, A: 255}
	bitrateLineColor = color.RGBA{R: 255, A: 255}
)

// PNGRenderer writes one <key>.png per capture under OutDir.
// Each image stacks the CSI feature panel above the bitrate panel on a
// shared time axis. Rows where a series is NaN are omitted from that
// series only, so a gap in one column does not blank the other.
type PNGRenderer struct {
	OutDir string

	// FS defaults to the real filesystem when nil.
	FS fsutil.FileSystem
}

var _ pipeline.Display = (*PNGRenderer)(nil)

// NewPNGRenderer creates a renderer that writes images under outDir.
func NewPNGRenderer(outDir string) *PNGRenderer {
	return &PNGRenderer{OutDir: outDir, FS: fsutil.OSFileSystem{}}
}

// Show renders the joined table for one capture to <OutDir>/<key>.png.
// An empty table produces no file and no error.
func (r *PNGRenderer) Show(key string, joined *feature.Joined) error {
	if joined == nil || joined.Len() == 0 {
		return nil
	}

	fs := r.fileSystem()
	if err := fs.MkdirAll(r.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	xMin, xMax := timeRange(joined.Timestamps)

	csiPlot, err := seriesPlot(csiTitle, csiYLabel, csiLineColor, joined.Timestamps, joined.CSIFeature, xMin, xMax)
	if err != nil {
		return fmt.Errorf("failed to build CSI panel: %w", err)
	}
	bitratePlot, err := seriesPlot(bitrateTitle, bitrateYLabel, bitrateLineColor, joined.Timestamps, joined.BitrateMedian, xMin, xMax)
	if err != nil {
		return fmt.Errorf("failed to build bitrate panel: %w", err)
	}

	img := vgimg.New(pngWidth, pngHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 1,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 4,
	}

	plots := [][]*plot.Plot{{csiPlot}, {bitratePlot}}
	canvases := plot.Align(plots, tiles, dc)
	csiPlot.Draw(canvases[0][0])
	bitratePlot.Draw(canvases[1][0])

	path := filepath.Join(r.OutDir, security.SanitizeFilename(key)+".png")
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return w.Close()
}

func (r *PNGRenderer) fileSystem() fsutil.FileSystem {
	if r.FS != nil {
		return r.FS
	}
	return fsutil.OSFileSystem{}
}

// seriesPlot builds one panel: a line-and-marker trace over time with a
// background grid. NaN values are dropped, and the x range is pinned so
// both panels stay aligned even when their NaN gaps differ.
func seriesPlot(title, yLabel string, lineColor color.Color, timestamps, values []float64, xMin, xMax float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xAxisLabel
	p.Y.Label.Text = yLabel
	p.X.Min = xMin
	p.X.Max = xMax
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: timestamps[i], Y: v})
	}
	if len(pts) == 0 {
		return p, nil
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	points.Color = lineColor
	points.Radius = vg.Points(1.5)
	p.Add(line, points)

	return p, nil
}

// timeRange returns the plotting range for a non-empty timestamp slice,
// widening a single-point range so the axis stays drawable.
func timeRange(timestamps []float64) (float64, float64) {
	min := timestamps[0]
	max := timestamps[len(timestamps)-1]
	if min == max {
		min -= 0.5
		max += 0.5
	}
	return min, max
}
