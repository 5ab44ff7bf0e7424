package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcore "github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// Collector bridges engine counters into a Prometheus registry. Values are
// read fresh from the snapshot on every scrape; nothing is cached between
// collections.
//
// Collector instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Collector struct {
	source       metricsSource
	counterDescs map[authcore.MetricID]*prometheus.Desc
	histDescs    map[authcore.MetricID]*prometheus.Desc
	droppedDesc  *prometheus.Desc
}

// NewCollector creates a collector that reads from the given [authcore.Engine].
func NewCollector(engine *authcore.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a collector from a custom metrics source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counterDescs: make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histDescs:    make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		droppedDesc: prometheus.NewDesc(
			"authcore_audit_dropped_total",
			"Dropped audit events due to writer backpressure.",
			nil, nil,
		),
	}

	for _, def := range internaldefs.CounterDefs {
		c.counterDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}

	return c
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.counterDescs {
		ch <- desc
	}
	for _, desc := range c.histDescs {
		ch <- desc
	}
	ch <- c.droppedDesc
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			c.counterDescs[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}

		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, bound := range internaldefs.HistogramBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		// Per-sample sums are not tracked by the core; report zero.
		ch <- prometheus.MustNewConstHistogram(c.histDescs[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Handler registers the collector in a fresh registry and returns a scrape
// handler for it. Callers who want their own registry use [NewCollector]
// with [prometheus.Registry.MustRegister] directly.
func Handler(engine *authcore.Engine) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(engine))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
