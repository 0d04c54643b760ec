// Package metrics provides the Prometheus collector for ingestion, layout and HTTP metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	NotesIngested      prometheus.Counter
	SemanticLinks      prometheus.Counter
	DimensionMismatch  prometheus.Counter
	NearestDistance    prometheus.Histogram
	LayoutTicks        prometheus.Counter
	LayoutTickDuration prometheus.Histogram
	LayoutNodes        prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry under the given namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		NotesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_ingested_total",
			Help:      "Total number of notes inserted into the store",
		}),
		SemanticLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semantic_links_total",
			Help:      "Total number of notes linked to a prior note",
		}),
		DimensionMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dimension_mismatches_total",
			Help:      "Total number of embeddings rejected for their length",
		}),
		NearestDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nearest_distance",
			Help:      "L2 distance from each new note to its nearest prior note",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.5, 2},
		}),
		LayoutTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_ticks_total",
			Help:      "Total number of layout simulation ticks",
		}),
		LayoutTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_tick_seconds",
			Help:      "Duration of one layout simulation tick",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		LayoutNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Number of nodes in the layout",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
	}
	c.registry.MustRegister(
		c.NotesIngested,
		c.SemanticLinks,
		c.DimensionMismatch,
		c.NearestDistance,
		c.LayoutTicks,
		c.LayoutTickDuration,
		c.LayoutNodes,
		c.HTTPRequests,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordIngest records one inserted note; distance is negative when the store was empty.
func (c *Collector) RecordIngest(distance float64, linked bool) {
	if c == nil {
		return
	}
	c.NotesIngested.Inc()
	if distance >= 0 {
		c.NearestDistance.Observe(distance)
	}
	if linked {
		c.SemanticLinks.Inc()
	}
}

// RecordDimensionMismatch records a rejected embedding.
func (c *Collector) RecordDimensionMismatch() {
	if c == nil {
		return
	}
	c.DimensionMismatch.Inc()
}

// RecordTick records one simulation tick over nodes nodes.
func (c *Collector) RecordTick(d time.Duration, nodes int) {
	if c == nil {
		return
	}
	c.LayoutTicks.Inc()
	c.LayoutTickDuration.Observe(d.Seconds())
	c.LayoutNodes.Set(float64(nodes))
}

// RecordHTTPRequest records a completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, route string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
