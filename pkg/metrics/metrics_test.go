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

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

func sampleResult(outcomes ...template.Outcome) *result.Result {
	step := &result.StepResult{Template: "acme.Upgrade", Duration: 250 * time.Millisecond}
	for _, o := range outcomes {
		step.Operations = append(step.Operations, result.OperationResult{Operation: "op", Outcome: o})
	}
	return result.NewBuilder("/apps/foo").AddStep(step).Build()
}

func TestObserve(t *testing.T) {
	m := New()

	m.Observe(sampleResult(template.OutcomeApplied, template.OutcomeApplied, template.OutcomeManualAction))
	m.Observe(sampleResult(template.OutcomeFailed))
	m.Observe(result.NewBuilder("/apps/bar").Err(errors.New("staging failed")).Build())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.transformations.WithLabelValues("success")), "one success expected")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transformations.WithLabelValues("failed")), "one failure expected")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transformations.WithLabelValues("error")), "one error expected")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("applied")), "applied operations should be counted")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("manual-action")), "manual actions should be counted")
	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration), "one template should have a histogram")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Observe(sampleResult(template.OutcomeApplied)) }, "nil metrics should be a no-op")
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")), "nil metrics should write nothing")
	assert.Nil(t, m.Registry(), "nil metrics should have no registry")
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(sampleResult(template.OutcomeSkipped))

	path := filepath.Join(t.TempDir(), "butterfly.prom")
	require.NoError(t, m.WriteTextfile(path), "writing textfile should succeed")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading textfile")
	assert.Contains(t, string(data), `butterfly_transformations_total{status="success"} 1`, "transformations should be exported")
	assert.Contains(t, string(data), `butterfly_operations_total{outcome="skipped"} 1`, "operations should be exported")
}
