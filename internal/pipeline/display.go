package pipeline

import (
	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/monitoring"
)

var displayLog = monitoring.Tagged("Display")

// Display receives each capture's joined feature table after processing.
// Renderers, exporters and stores implement it; failures are reported to
// the runner but never abort the run.
type Display interface {
	Show(key string, joined *feature.Joined) error
}

// NopDisplay discards every table.
type NopDisplay struct{}

// Show implements Display.
func (NopDisplay) Show(string, *feature.Joined) error { return nil }

// MultiDisplay fans one table out to several displays. Every display
// runs even when an earlier one fails; the first failure is returned and
// the rest are logged.
type MultiDisplay []Display

// Show implements Display.
func (m MultiDisplay) Show(key string, joined *feature.Joined) error {
	var first error
	for _, d := range m {
		if err := d.Show(key, joined); err != nil {
			if first == nil {
				first = err
			} else {
				displayLog("capture %s: %v", key, err)
			}
		}
	}
	return first
}

// Collector retains every joined table it is shown, in arrival order.
// Exporters run it alongside the renderers and walk the tables once the
// run is finished. A repeated key replaces the stored table.
type Collector struct {
	Keys   []string
	Tables map[string]*feature.Joined
}

var _ Display = (*Collector)(nil)

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{Tables: make(map[string]*feature.Joined)}
}

// Show implements Display.
func (c *Collector) Show(key string, joined *feature.Joined) error {
	if _, seen := c.Tables[key]; !seen {
		c.Keys = append(c.Keys, key)
	}
	c.Tables[key] = joined
	return nil
}
