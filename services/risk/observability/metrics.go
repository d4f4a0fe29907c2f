// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the risk
// assessment pipeline.
//
// # Description
//
// Metrics cover the pipeline's well-defined observation points: agent
// invocation counts and latency, per-category current score gauges,
// context-provider query counts, API request counts, and error counters
// per named component. The pipeline calls these helpers at stage start,
// stage success, and stage/collaborator failure; it never depends on a
// return value.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking; gauges and counters are safe append-only increments.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "aleutianrisk"

// RiskMetrics holds all Prometheus metrics for the assessment pipeline.
//
// Initialize once at startup via InitMetrics().
type RiskMetrics struct {
	// AgentRequestsTotal counts agent invocations.
	// Labels: agent_type (credit, market, operational, compliance)
	AgentRequestsTotal *prometheus.CounterVec

	// AgentDurationSeconds measures per-agent analysis latency.
	// Labels: agent_type
	AgentDurationSeconds *prometheus.HistogramVec

	// RiskScoreCurrent tracks the most recent score per category.
	// Labels: risk_type (credit, market, operational, compliance, overall)
	RiskScoreCurrent *prometheus.GaugeVec

	// ContextQueriesTotal counts context-provider retrievals.
	ContextQueriesTotal prometheus.Counter

	// APIRequestsTotal counts boundary requests.
	// Labels: endpoint (/v1/assess, /v1/assessments)
	APIRequestsTotal *prometheus.CounterVec

	// SystemErrorsTotal counts errors by named component
	// (credit_agent_reviewer, context_provider, persistence, api, ...).
	SystemErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *RiskMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metric set.
//
// Safe to call more than once; registration happens exactly once against
// the default Prometheus registry.
func InitMetrics() *RiskMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &RiskMetrics{
			AgentRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Name:      "agent_requests_total",
					Help:      "Total risk agent invocations by agent type",
				},
				[]string{"agent_type"},
			),

			AgentDurationSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Name:      "agent_duration_seconds",
					Help:      "Risk agent analysis latency in seconds",
					Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0},
				},
				[]string{"agent_type"},
			),

			RiskScoreCurrent: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Name:      "risk_score_current",
					Help:      "Most recent risk score by risk type",
				},
				[]string{"risk_type"},
			),

			ContextQueriesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Name:      "context_queries_total",
					Help:      "Total context provider retrievals",
				},
			),

			APIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Name:      "api_requests_total",
					Help:      "Total API requests by endpoint",
				},
				[]string{"endpoint"},
			),

			SystemErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Name:      "system_errors_total",
					Help:      "Total system errors by component",
				},
				[]string{"component"},
			),
		}
	})
	return DefaultMetrics
}

// =============================================================================
// Component Names
// =============================================================================

// Component names used as system_errors_total labels.
const (
	ComponentCreditReviewer  = "credit_agent_reviewer"
	ComponentContextProvider = "context_provider"
	ComponentPersistence     = "persistence"
	ComponentAPI             = "api"
	ComponentPipeline        = "pipeline"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordAgentRequest counts one agent invocation.
func (m *RiskMetrics) RecordAgentRequest(agentType string) {
	m.AgentRequestsTotal.WithLabelValues(agentType).Inc()
}

// ObserveAgentDuration records an agent's analysis latency.
func (m *RiskMetrics) ObserveAgentDuration(agentType string, seconds float64) {
	m.AgentDurationSeconds.WithLabelValues(agentType).Observe(seconds)
}

// SetRiskScore updates the current-score gauge for a risk type.
func (m *RiskMetrics) SetRiskScore(riskType string, score float64) {
	m.RiskScoreCurrent.WithLabelValues(riskType).Set(score)
}

// RecordContextQuery counts one context-provider retrieval.
func (m *RiskMetrics) RecordContextQuery() {
	m.ContextQueriesTotal.Inc()
}

// RecordAPIRequest counts one boundary request.
func (m *RiskMetrics) RecordAPIRequest(endpoint string) {
	m.APIRequestsTotal.WithLabelValues(endpoint).Inc()
}

// RecordError counts one error for a named component.
func (m *RiskMetrics) RecordError(component string) {
	m.SystemErrorsTotal.WithLabelValues(component).Inc()
}
