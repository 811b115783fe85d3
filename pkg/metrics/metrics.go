// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics counts transformations and operation outcomes with prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/walteh/butterfly/pkg/result"
	"gitlab.com/tozd/go/errors"
)

const namespace = "butterfly"

// 📈 Metrics holds the transformation collectors on a private registry.
// A nil *Metrics is a valid no-op.
type Metrics struct {
	registry        *prometheus.Registry
	transformations *prometheus.CounterVec
	operations      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
}

// 🏭 New creates the collectors and registers them
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transformations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transformations_total",
				Help:      "Total number of transformation invocations",
			},
			[]string{"status"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of operations by outcome",
			},
			[]string{"outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of template executions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"template"},
		),
	}
	m.registry.MustRegister(m.transformations, m.operations, m.stepDuration)
	return m
}

// Status returns the status label used for r
func Status(r *result.Result) string {
	switch {
	case r.Err() != nil:
		return "error"
	case r.Success():
		return "success"
	default:
		return "failed"
	}
}

// 📝 Observe records a finished invocation
func (m *Metrics) Observe(r *result.Result) {
	if m == nil || r == nil {
		return
	}
	m.transformations.WithLabelValues(Status(r)).Inc()
	for _, s := range r.Steps() {
		m.stepDuration.WithLabelValues(s.Template).Observe(s.Duration.Seconds())
		for _, op := range s.Operations {
			m.operations.WithLabelValues(op.Outcome.String()).Inc()
		}
	}
}

// Registry exposes the private registry, nil when m is nil
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// 💾 WriteTextfile writes every collected metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
