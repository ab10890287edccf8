package metrics

import (
	"time"

	"mercator-hq/storage-helper/pkg/artifact/retention"
	"mercator-hq/storage-helper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector gathers the Prometheus metrics of a cleaning run. It implements
// retention.Observer so the cleaner reports to it directly.
//
// A run is a short-lived batch job: nothing scrapes the process, so the
// registry is exported once at the end with WriteTextfile or Push.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Per-package decision and deletion metrics
	decisionMetrics *DecisionMetrics

	// Whole-run gauges
	runMetrics *RunMetrics
}

var _ retention.Observer = (*Collector)(nil)

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "storage_helper",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.JobName == "" {
		cfg.JobName = config.DefaultMetricsJobName
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		decisionMetrics: NewDecisionMetrics(cfg, registry),
		runMetrics:      NewRunMetrics(cfg, registry),
	}
}

// ObserveDecision records the decision made for one package.
func (c *Collector) ObserveDecision(d retention.Decision) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordDecision(d.Action.String(), string(d.Reason), d.Rule)
}

// ObserveDeletion records one deletion attempt.
func (c *Collector) ObserveDeletion(outcome retention.Outcome, elapsed time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.decisionMetrics.RecordDeletion(string(outcome), elapsed)
}

// ObserveRun records the totals of a finished run.
func (c *Collector) ObserveRun(s *retention.Summary) {
	if !c.config.Enabled {
		return
	}

	c.runMetrics.RecordRun(s)
}

// SetUsedPackages records how many packages the import maps reference.
func (c *Collector) SetUsedPackages(n int) {
	if !c.config.Enabled {
		return
	}

	c.runMetrics.usedPackages.Set(float64(n))
}

// RecordFailure marks a run that aborted before producing a summary,
// e.g. because an import map or the storage listing could not be read.
func (c *Collector) RecordFailure(stage string, at time.Time) {
	if !c.config.Enabled {
		return
	}

	c.runMetrics.RecordFailure(stage, at)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
