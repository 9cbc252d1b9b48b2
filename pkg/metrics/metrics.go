package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Job metrics
	Jobs        *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Dataset metrics
	Datasets   prometheus.Gauge
	GraphNodes prometheus.Histogram
	GraphEdges prometheus.Histogram
}

// NewCollector creates and registers all metrics under namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Centrality jobs by final status",
			},
			[]string{"status"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Wall time of centrality jobs",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"mode"},
		),
		Datasets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "datasets",
				Help:      "Datasets currently held in memory",
			},
		),
		GraphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Node count of uploaded graphs",
				Buckets:   prometheus.ExponentialBuckets(10, 10, 7),
			},
		),
		GraphEdges: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Edge count of uploaded graphs",
				Buckets:   prometheus.ExponentialBuckets(10, 10, 8),
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Jobs,
		c.JobDuration,
		c.Datasets,
		c.GraphNodes,
		c.GraphEdges,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveJob records a finished job
func (c *Collector) ObserveJob(status, mode string, elapsed time.Duration) {
	c.Jobs.WithLabelValues(status).Inc()
	if elapsed > 0 {
		c.JobDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// ObserveDataset records an uploaded graph's size
func (c *Collector) ObserveDataset(nodes, edges int) {
	c.GraphNodes.Observe(float64(nodes))
	c.GraphEdges.Observe(float64(edges))
}
