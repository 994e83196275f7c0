// Package promcollector implements the metrics interface of the event store and the handlers
// with Prometheus client_golang, on a registry of its own that is exposed on /metrics.
package promcollector

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore"
)

const defaultNamespace = "lending"

// Collector creates histograms, counters and gauges on first use of a metric name.
// The label names of a metric are fixed by its first use; later calls fill missing labels
// with "" and ignore unknown ones, so one name never maps to two descriptors.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	histograms map[string]*vec[*prometheus.HistogramVec]
	counters   map[string]*vec[*prometheus.CounterVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
}

type vec[V any] struct {
	v          V
	labelNames []string
}

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace replaces the "lending" metric name prefix.
func WithNamespace(namespace string) Option {
	return func(c *Collector) {
		c.namespace = namespace
	}
}

// WithProcessCollectors registers the Go runtime and process collectors as well.
func WithProcessCollectors() Option {
	return func(c *Collector) {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func New(options ...Option) *Collector {
	c := &Collector{
		namespace:  defaultNamespace,
		registry:   prometheus.NewRegistry(),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Registry returns the registry all metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	h := c.histogram(metric, labels)
	h.v.WithLabelValues(valuesFor(h.labelNames, labels)...).Observe(duration.Seconds())
}

func (c *Collector) IncrementCounter(metric string, labels map[string]string) {
	cv := c.counter(metric, labels)
	cv.v.WithLabelValues(valuesFor(cv.labelNames, labels)...).Inc()
}

func (c *Collector) RecordValue(metric string, value float64, labels map[string]string) {
	g := c.gauge(metric, labels)
	g.v.WithLabelValues(valuesFor(g.labelNames, labels)...).Set(value)
}

func (c *Collector) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	c.RecordDuration(metric, duration, labels)
}

func (c *Collector) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	c.IncrementCounter(metric, labels)
}

func (c *Collector) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	c.RecordValue(metric, value, labels)
}

func (c *Collector) histogram(metric string, labels map[string]string) *vec[*prometheus.HistogramVec] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.histograms[metric]; ok {
		return h
	}

	names := labelNames(labels)
	h := &vec[*prometheus.HistogramVec]{
		v: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      sanitize(metric),
			Help:      helpFor(metric),
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, names),
		labelNames: names,
	}
	c.registry.MustRegister(h.v)
	c.histograms[metric] = h

	return h
}

func (c *Collector) counter(metric string, labels map[string]string) *vec[*prometheus.CounterVec] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cv, ok := c.counters[metric]; ok {
		return cv
	}

	names := labelNames(labels)
	cv := &vec[*prometheus.CounterVec]{
		v: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      sanitize(metric),
			Help:      helpFor(metric),
		}, names),
		labelNames: names,
	}
	c.registry.MustRegister(cv.v)
	c.counters[metric] = cv

	return cv
}

func (c *Collector) gauge(metric string, labels map[string]string) *vec[*prometheus.GaugeVec] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.gauges[metric]; ok {
		return g
	}

	names := labelNames(labels)
	g := &vec[*prometheus.GaugeVec]{
		v: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      sanitize(metric),
			Help:      helpFor(metric),
		}, names),
		labelNames: names,
	}
	c.registry.MustRegister(g.v)
	c.gauges[metric] = g

	return g
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, sanitize(k))
	}

	slices.Sort(names)

	return names
}

func valuesFor(names []string, labels map[string]string) []string {
	sanitized := make(map[string]string, len(labels))
	for k, v := range labels {
		sanitized[sanitize(k)] = v
	}

	values := make([]string, len(names))
	for i, name := range names {
		values[i] = sanitized[name]
	}

	return values
}

// sanitize maps anything outside [a-zA-Z0-9_] to '_'.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func helpFor(metric string) string {
	return strings.ReplaceAll(metric, "_", " ")
}

var _ eventstore.ContextualMetricsCollector = (*Collector)(nil)
