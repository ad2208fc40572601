package sharedvar

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a map's gauges and operation counters to Prometheus.
// It pulls a StatsSnapshot through the supplied function on every scrape,
// so pass a snapshot function that takes whatever lock the map needs
// (safe.Map.StatsSnapshot does).
type Collector struct {
	snapshot func() StatsSnapshot

	// Gauges
	vars      *prometheus.Desc
	groups    *prometheus.Desc
	links     *prometheus.Desc
	observers *prometheus.Desc

	// Counters
	creates *prometheus.Desc
	binds   *prometheus.Desc
	merges  *prometheus.Desc
	unbinds *prometheus.Desc
	removes *prometheus.Desc
	rehomes *prometheus.Desc
}

func NewCollector(snapshot func() StatsSnapshot) *Collector {
	return &Collector{
		snapshot: snapshot,

		vars: prometheus.NewDesc(
			"sharedvar_variables",
			"Number of variables currently stored",
			nil, nil,
		),
		groups: prometheus.NewDesc(
			"sharedvar_groups",
			"Number of distinct backing allocations (groups)",
			nil, nil,
		),
		links: prometheus.NewDesc(
			"sharedvar_link_entries",
			"Number of directed link entries across all variables",
			nil, nil,
		),
		observers: prometheus.NewDesc(
			"sharedvar_view_observers",
			"Number of subscribed view observer slots",
			nil, nil,
		),

		creates: prometheus.NewDesc(
			"sharedvar_creates_total",
			"Total number of variables created",
			nil, nil,
		),
		binds: prometheus.NewDesc(
			"sharedvar_binds_total",
			"Total number of successful bind operations",
			nil, nil,
		),
		merges: prometheus.NewDesc(
			"sharedvar_merges_total",
			"Total number of binds that merged two existing groups",
			nil, nil,
		),
		unbinds: prometheus.NewDesc(
			"sharedvar_unbinds_total",
			"Total number of unbind operations",
			nil, nil,
		),
		removes: prometheus.NewDesc(
			"sharedvar_removes_total",
			"Total number of variables removed",
			nil, nil,
		),
		rehomes: prometheus.NewDesc(
			"sharedvar_rehomes_total",
			"Total number of records re-homed into a fresh group",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.vars
	ch <- c.groups
	ch <- c.links
	ch <- c.observers
	ch <- c.creates
	ch <- c.binds
	ch <- c.merges
	ch <- c.unbinds
	ch <- c.removes
	ch <- c.rehomes
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()

	ch <- prometheus.MustNewConstMetric(c.vars, prometheus.GaugeValue, float64(s.Vars))
	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(s.Groups))
	ch <- prometheus.MustNewConstMetric(c.links, prometheus.GaugeValue, float64(s.LinkEntries))
	ch <- prometheus.MustNewConstMetric(c.observers, prometheus.GaugeValue, float64(s.Observers))

	ch <- prometheus.MustNewConstMetric(c.creates, prometheus.CounterValue, float64(s.Creates))
	ch <- prometheus.MustNewConstMetric(c.binds, prometheus.CounterValue, float64(s.Binds))
	ch <- prometheus.MustNewConstMetric(c.merges, prometheus.CounterValue, float64(s.Merges))
	ch <- prometheus.MustNewConstMetric(c.unbinds, prometheus.CounterValue, float64(s.Unbinds))
	ch <- prometheus.MustNewConstMetric(c.removes, prometheus.CounterValue, float64(s.Removes))
	ch <- prometheus.MustNewConstMetric(c.rehomes, prometheus.CounterValue, float64(s.Rehomes))
}
