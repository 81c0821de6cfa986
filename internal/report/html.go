package report

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/pipeline"
)

// HTMLRenderer collects two interactive charts per capture and writes
// them all to a single page when Close is called. Unlike PNGRenderer it
// is stateful: the page is only written once, after the last capture.
type HTMLRenderer struct {
	Path string

	mu     sync.Mutex
	charts []components.Charter
}

var _ pipeline.Display = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates a renderer that writes its page to path.
func NewHTMLRenderer(path string) *HTMLRenderer {
	return &HTMLRenderer{Path: path}
}

// Show adds the CSI feature and bitrate charts for one capture.
// An empty table adds nothing.
func (r *HTMLRenderer) Show(key string, joined *feature.Joined) error {
	if joined == nil || joined.Len() == 0 {
		return nil
	}

	csi := lineChart(key, csiTitle, csiYLabel, feature.CSIFeatureColumn, joined.Timestamps, joined.CSIFeature)
	bitrate := lineChart(key, bitrateTitle, bitrateYLabel, feature.BitrateMedianColumn, joined.Timestamps, joined.BitrateMedian)

	r.mu.Lock()
	r.charts = append(r.charts, csi, bitrate)
	r.mu.Unlock()
	return nil
}

// ChartCount returns the number of charts collected so far.
func (r *HTMLRenderer) ChartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.charts)
}

// Close renders the accumulated charts to Path. If no capture produced
// any rows, no file is written.
func (r *HTMLRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.charts) == 0 {
		return nil
	}

	f, err := os.Create(r.Path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	page := components.NewPage()
	page.AddCharts(r.charts...)
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render report: %w", err)
	}
	return f.Close()
}

// lineChart builds one chart for a series. NaN rows must be dropped
// here: they cannot be serialised into the page's JSON payload.
func lineChart(key, title, yLabel, seriesName string, timestamps, values []float64) *charts.Line {
	data := make([]opts.LineData, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		data = append(data, opts.LineData{Value: []interface{}{timestamps[i], v}})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "capture " + key}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xAxisLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yLabel}),
	)
	line.AddSeries(seriesName, data)
	return line
}
