// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the moderation
// pipeline.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "guardian"

// PipelineMetrics holds the Prometheus metrics for message moderation.
//
// # Fields
//
//   - MessagesTotal: Counter of processed messages by outcome
//     (classified, classification_error, rejected)
//   - FindingsTotal: Counter of findings by violation state
//   - SinkErrorsTotal: Counter of sink delivery failures by sink name
//   - CocCacheTotal: Counter of code of conduct cache lookups by result
//     (hit, miss)
type PipelineMetrics struct {
	MessagesTotal   *prometheus.CounterVec
	FindingsTotal   *prometheus.CounterVec
	SinkErrorsTotal *prometheus.CounterVec
	CocCacheTotal   *prometheus.CounterVec
}

var (
	pipelineMetrics *PipelineMetrics
	initOnce        sync.Once
)

// InitMetrics registers the pipeline metrics with the default registry.
// Safe to call more than once; registration happens only on the first
// call.
func InitMetrics() *PipelineMetrics {
	initOnce.Do(func() {
		pipelineMetrics = &PipelineMetrics{
			MessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "messages_total",
				Help:      "Messages processed by the moderation pipeline, by outcome.",
			}, []string{"outcome"}),
			FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "findings_total",
				Help:      "Findings recorded, by violation state.",
			}, []string{"state"}),
			SinkErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "sink_errors_total",
				Help:      "Notification sink delivery failures, by sink.",
			}, []string{"sink"}),
			CocCacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "coc",
				Name:      "cache_lookups_total",
				Help:      "Code of conduct cache lookups, by result.",
			}, []string{"result"}),
		}
	})
	return pipelineMetrics
}

// Metrics returns the registered pipeline metrics, or nil when
// InitMetrics has not been called.
func Metrics() *PipelineMetrics {
	return pipelineMetrics
}
