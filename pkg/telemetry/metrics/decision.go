package metrics

import (
	"time"

	"mercator-hq/storage-helper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks retention decisions and deletions.
//
// Metrics:
//   - storage_helper_decisions_total: Decisions by action and reason
//   - storage_helper_rule_matches_total: Decisions made by each rule
//   - storage_helper_deletions_total: Deletion attempts by outcome
//   - storage_helper_deletion_duration_seconds: Time to delete one package
type DecisionMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	ruleMatchesTotal *prometheus.CounterVec
	deletionsTotal   *prometheus.CounterVec
	deletionDuration prometheus.Histogram
}

// NewDecisionMetrics creates and registers decision metrics with the provided registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "decisions_total",
				Help:      "Total number of package retention decisions",
			},
			[]string{"action", "reason"},
		),

		// Rule names come from configuration, so cardinality is bounded.
		ruleMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rule_matches_total",
				Help:      "Total number of packages decided by each rule",
			},
			[]string{"rule"},
		),

		deletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "deletions_total",
				Help:      "Total number of package deletion attempts",
			},
			[]string{"outcome"},
		),

		deletionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "deletion_duration_seconds",
				Help:      "Duration of deleting all objects of one package in seconds",
				// One list call plus batched deletes (10ms - 60s)
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}

	registry.MustRegister(
		dm.decisionsTotal,
		dm.ruleMatchesTotal,
		dm.deletionsTotal,
		dm.deletionDuration,
	)

	return dm
}

// RecordDecision records one decision. rule is empty unless a rule decided.
func (dm *DecisionMetrics) RecordDecision(action, reason, rule string) {
	dm.decisionsTotal.WithLabelValues(action, reason).Inc()
	if rule != "" {
		dm.ruleMatchesTotal.WithLabelValues(rule).Inc()
	}
}

// RecordDeletion records one deletion attempt and its duration.
func (dm *DecisionMetrics) RecordDeletion(outcome string, elapsed time.Duration) {
	dm.deletionsTotal.WithLabelValues(outcome).Inc()
	dm.deletionDuration.Observe(elapsed.Seconds())
}
