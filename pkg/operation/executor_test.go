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

package operation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockOperation is a mock implementation of the template.Operation interface
type MockOperation struct {
	mock.Mock
	name string
}

func (m *MockOperation) Name() string        { return m.name }
func (m *MockOperation) Description() string { return "mock " + m.name }

func (m *MockOperation) Apply(ctx context.Context, workDir string) (template.Result, error) {
	args := m.Called(ctx, workDir)
	return args.Get(0).(template.Result), args.Error(1)
}

// 🔧 recordingObserver captures observer notifications
type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (o *recordingObserver) OperationFinished(_ context.Context, tmpl string, op result.OperationResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, tmpl+"/"+op.Operation+"="+op.Outcome.String())
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name         string
		ops          []template.Operation
		wantOutcomes []template.Outcome
		wantSuccess  bool
	}{
		{
			name:         "all_applied",
			ops:          []template.Operation{testutils.AppliedOp("a"), testutils.AppliedOp("b")},
			wantOutcomes: []template.Outcome{template.OutcomeApplied, template.OutcomeApplied},
			wantSuccess:  true,
		},
		{
			name:         "skips_are_not_failures",
			ops:          []template.Operation{testutils.SkippedOp("a"), testutils.SkippedOp("b")},
			wantOutcomes: []template.Outcome{template.OutcomeSkipped, template.OutcomeSkipped},
			wantSuccess:  true,
		},
		{
			name:         "failure_does_not_stop_later_operations",
			ops:          []template.Operation{testutils.FailingOp("a"), testutils.AppliedOp("b"), testutils.ManualOp("c", "update the CI pipeline")},
			wantOutcomes: []template.Outcome{template.OutcomeFailed, template.OutcomeApplied, template.OutcomeManualAction},
			wantSuccess:  false,
		},
		{
			name:         "manual_action_is_success",
			ops:          []template.Operation{testutils.ManualOp("a", "rotate credentials")},
			wantOutcomes: []template.Outcome{template.OutcomeManualAction},
			wantSuccess:  true,
		},
		{
			name:         "nil_operation_fails",
			ops:          []template.Operation{nil, testutils.AppliedOp("b")},
			wantOutcomes: []template.Outcome{template.OutcomeFailed, template.OutcomeApplied},
			wantSuccess:  false,
		},
		{
			name:        "no_operations",
			wantSuccess: true,
		},
	}

	for _, tt := range tests {
		for _, parallelism := range []int{1, 4} {
			t.Run(fmt.Sprintf("%s_parallel_%d", tt.name, parallelism), func(t *testing.T) {
				ctx := testutils.Context(t)
				tmpl := &testutils.StaticTemplate{TemplateName: "acme.Upgrade", Ops: tt.ops}

				step := NewExecutor(WithParallelism(parallelism)).Execute(ctx, tmpl, t.TempDir())

				var got []template.Outcome
				for _, op := range step.Operations {
					got = append(got, op.Outcome)
				}
				assert.Equal(t, tt.wantOutcomes, got, "outcomes should follow template order (parallelism %d)", parallelism)
				assert.Equal(t, tt.wantSuccess, step.Success(), "step success should match (parallelism %d)", parallelism)
				assert.NoError(t, step.Err, "step should run to completion")
				assert.Equal(t, "acme.Upgrade", step.Template, "template name should be recorded")
			})
		}
	}
}

func TestExecuteMockOperations(t *testing.T) {
	ctx := testutils.Context(t)
	workDir := t.TempDir()

	first := &MockOperation{name: "bump-parent"}
	first.On("Apply", mock.Anything, workDir).Return(template.Applied("").WithMetadata("from", "2.7"), nil).Once()

	second := &MockOperation{name: "rewrite-imports"}
	second.On("Apply", mock.Anything, workDir).Return(template.Result{}, errors.New("file locked")).Once()

	third := &MockOperation{name: "ci"}
	third.On("Apply", mock.Anything, workDir).Return(template.ManualAction("update the pipeline image"), nil).Once()

	obs := &recordingObserver{}
	tmpl := &testutils.StaticTemplate{TemplateName: "acme.Boot3", Ops: []template.Operation{first, second, third}}
	step := NewExecutor(WithObserver(obs)).Execute(ctx, tmpl, workDir)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
	third.AssertExpectations(t)

	require.Len(t, step.Operations, 3, "every operation should be recorded")

	applied := step.Operations[0]
	assert.Equal(t, "mock bump-parent", applied.Details, "empty applied details should fall back to the description")
	assert.Equal(t, map[string]string{"from": "2.7"}, applied.Metadata, "metadata should be kept")

	failed := step.Operations[1]
	assert.Equal(t, template.OutcomeFailed, failed.Outcome, "error should be recorded as failed")
	assert.Equal(t, "file locked", failed.Details, "cause should be recorded")
	require.Error(t, failed.Err, "error should be kept")
	assert.Contains(t, failed.Err.Error(), "applying rewrite-imports", "error should name the operation")

	manual := step.Operations[2]
	assert.Equal(t, "update the pipeline image", manual.Details, "guidance should be recorded")

	assert.Equal(t, []string{
		"acme.Boot3/bump-parent=applied",
		"acme.Boot3/rewrite-imports=failed",
		"acme.Boot3/ci=manual-action",
	}, obs.seen, "observer should see every operation")
}

func TestExecuteRecoversPanics(t *testing.T) {
	ctx := testutils.Context(t)
	panicky := &testutils.FuncOperation{OpName: "panicky", Fn: func(context.Context, string) (template.Result, error) {
		panic("nil map write")
	}}
	tmpl := &testutils.StaticTemplate{TemplateName: "t", Ops: []template.Operation{panicky, testutils.AppliedOp("after")}}

	step := NewExecutor().Execute(ctx, tmpl, t.TempDir())

	require.Len(t, step.Operations, 2, "operation after the panic should still run")
	assert.Equal(t, template.OutcomeFailed, step.Operations[0].Outcome, "panic should be recorded as failed")
	assert.ErrorIs(t, step.Operations[0].Err, ErrOperationPanicked, "panic should be distinguishable")
	assert.Contains(t, step.Operations[0].Details, "nil map write", "panic value should be recorded")
	assert.Equal(t, template.OutcomeApplied, step.Operations[1].Outcome, "later operation should apply")
}

func TestExecuteCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(testutils.Context(t))
	defer cancel()

	stopper := &testutils.FuncOperation{OpName: "stopper", Fn: func(context.Context, string) (template.Result, error) {
		cancel()
		return template.Applied("cancelled the run"), nil
	}}
	var laterRan atomic.Bool
	later := &testutils.FuncOperation{OpName: "later", Fn: func(context.Context, string) (template.Result, error) {
		laterRan.Store(true)
		return template.Applied(""), nil
	}}
	tmpl := &testutils.StaticTemplate{TemplateName: "t", Ops: []template.Operation{stopper, later, testutils.AppliedOp("last")}}

	step := NewExecutor().Execute(ctx, tmpl, t.TempDir())

	assert.False(t, laterRan.Load(), "operations after cancellation should not start")
	require.Len(t, step.Operations, 1, "only the started operation should be recorded")
	assert.ErrorIs(t, step.Err, ErrStepInterrupted, "step should be interrupted")
	assert.ErrorIs(t, step.Err, context.Canceled, "cause should be kept")
	assert.Contains(t, step.Err.Error(), "2 operations not started", "error should count the remaining operations")
	assert.False(t, step.Success(), "interrupted step should not succeed")
}

func TestExecuteParallelism(t *testing.T) {
	ctx := testutils.Context(t)

	var running, peak atomic.Int32
	slow := func(name string) template.Operation {
		return &testutils.FuncOperation{OpName: name, Fn: func(context.Context, string) (template.Result, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return template.Applied(name), nil
		}}
	}

	ops := []template.Operation{slow("a"), slow("b"), slow("c"), slow("d"), slow("e"), slow("f")}
	tmpl := &testutils.StaticTemplate{TemplateName: "t", Ops: ops}

	step := NewExecutor(WithParallelism(2)).Execute(ctx, tmpl, t.TempDir())

	require.Len(t, step.Operations, 6, "every operation should be recorded")
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		assert.Equal(t, name, step.Operations[i].Operation, "records should keep template order")
	}
	assert.LessOrEqual(t, peak.Load(), int32(2), "no more than two operations should run at once")
}

func TestExecuteDurations(t *testing.T) {
	ctx := testutils.Context(t)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	tmpl := &testutils.StaticTemplate{TemplateName: "t", Ops: []template.Operation{testutils.AppliedOp("a")}}
	step := NewExecutor(WithExecutorClock(now)).Execute(ctx, tmpl, t.TempDir())

	require.Len(t, step.Operations, 1, "one record expected")
	assert.Equal(t, time.Second, step.Operations[0].Duration, "operation duration should come from the clock")
	assert.Equal(t, 3*time.Second, step.Duration, "step duration should cover the operation")
}
