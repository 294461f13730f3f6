// Package metrics exposes engine counters to Prometheus. A Collector is both
// a directives.Observer and a prometheus.Collector.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	directives "github.com/goliatone/go-directives"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "directives"

// Collector records parse, resolve, enrichment, rule and render outcomes.
type Collector struct {
	references     *prometheus.CounterVec
	malformed      *prometheus.CounterVec
	unresolved     *prometheus.CounterVec
	enrichments    *prometheus.CounterVec
	rules          *prometheus.CounterVec
	renders        prometheus.Counter
	renderDuration prometheus.Histogram
	components     prometheus.Histogram
}

var _ directives.Observer = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector builds a collector under namespace. An empty namespace uses
// DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		references: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "references_total",
				Help:      "Component references extracted from page content.",
			},
			[]string{"strategy"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "parser",
				Name:      "malformed_total",
				Help:      "Directives skipped because they could not be decoded.",
			},
			[]string{"strategy"},
		),
		unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "unresolved_total",
				Help:      "References dropped during resolution.",
			},
			[]string{"reason"},
		),
		enrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "enricher",
				Name:      "outcomes_total",
				Help:      "Promotion enrichment outcomes.",
			},
			[]string{"outcome"},
		),
		rules: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "evaluations_total",
				Help:      "Display rule evaluations.",
			},
			[]string{"visible", "failed"},
		),
		renders: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "pages_total",
				Help:      "Completed page renders.",
			},
		),
		renderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Duration of page renders.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		components: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "render",
				Name:      "components",
				Help:      "Components returned per render.",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
	}
}

// Register adds the collector to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	return reg.Register(c)
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.references,
		c.malformed,
		c.unresolved,
		c.enrichments,
		c.rules,
		c.renders,
		c.renderDuration,
		c.components,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range c.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range c.collectors() {
		collector.Collect(ch)
	}
}

func (c *Collector) DirectivesParsed(strategy string, references, malformed int) {
	c.references.WithLabelValues(strategy).Add(float64(references))
	c.malformed.WithLabelValues(strategy).Add(float64(malformed))
}

func (c *Collector) ReferenceUnresolved(reason string) {
	c.unresolved.WithLabelValues(reason).Inc()
}

func (c *Collector) EnrichmentOutcome(outcome string) {
	c.enrichments.WithLabelValues(outcome).Inc()
}

func (c *Collector) RuleOutcome(visible bool, err error) {
	c.rules.WithLabelValues(strconv.FormatBool(visible), strconv.FormatBool(err != nil)).Inc()
}

func (c *Collector) RenderCompleted(components int, duration time.Duration) {
	c.renders.Inc()
	c.renderDuration.Observe(duration.Seconds())
	c.components.Observe(float64(components))
}
