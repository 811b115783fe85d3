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
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrOperationPanicked marks an operation that panicked while applying
	ErrOperationPanicked = errors.Base("operation panicked")

	// ErrNilOperation marks a nil entry in a template's operation list
	ErrNilOperation = errors.Base("nil operation")

	// ErrStepInterrupted marks a step that stopped before running every operation
	ErrStepInterrupted = errors.Base("step interrupted")
)

// 👀 Observer is notified as operations complete. With parallelism
// enabled it may be called from several goroutines.
type Observer interface {
	OperationFinished(ctx context.Context, templateName string, op result.OperationResult)
}

// 🏃 Executor runs a template's operations against a working copy
type Executor struct {
	parallelism int
	observers   []Observer
	now         func() time.Time
}

// 🔧 ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithParallelism lets up to n operations run at once. Recorded order
// always follows the template. Values below 2 run sequentially.
func WithParallelism(n int) ExecutorOption {
	return func(e *Executor) { e.parallelism = n }
}

// WithObserver adds an observer notified after each operation
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithExecutorClock overrides the clock used for timings
func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// 🏗️ NewExecutor creates a new executor
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{parallelism: 1, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// 🏃 Execute runs every operation of tmpl against workDir.
// A failing operation never stops the others. Cancellation stops
// operations that have not started yet.
func (e *Executor) Execute(ctx context.Context, tmpl template.Template, workDir string) *result.StepResult {
	logger := zerolog.Ctx(ctx).With().Str("template", tmpl.Name()).Logger()
	ctx = logger.WithContext(ctx)

	ops := tmpl.Operations()
	step := &result.StepResult{
		Template: tmpl.Name(),
		WorkDir:  workDir,
		Started:  e.now(),
	}

	logger.Info().Int("operations", len(ops)).Str("work_dir", workDir).Msg("executing template")

	var records []result.OperationResult
	var err error
	if e.parallelism > 1 && len(ops) > 1 {
		records, err = e.runAsync(ctx, tmpl.Name(), ops, workDir)
	} else {
		records, err = e.runSync(ctx, tmpl.Name(), ops, workDir)
	}

	step.Operations = records
	step.Err = err
	step.Duration = e.now().Sub(step.Started)

	logger.Info().
		Bool("success", step.Success()).
		Int("applied", step.Count(template.OutcomeApplied)).
		Int("skipped", step.Count(template.OutcomeSkipped)).
		Int("manual", step.Count(template.OutcomeManualAction)).
		Int("failed", step.Count(template.OutcomeFailed)).
		Dur("duration", step.Duration).
		Msg("template executed")

	return step
}

// 🔄 runSync runs operations one after another
func (e *Executor) runSync(ctx context.Context, tmplName string, ops []template.Operation, workDir string) ([]result.OperationResult, error) {
	records := make([]result.OperationResult, 0, len(ops))
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return records, interrupted(len(ops)-i, err)
		}
		records = append(records, e.runOne(ctx, tmplName, op, workDir))
	}
	return records, nil
}

// ⚡ runAsync runs operations on a bounded errgroup, keeping template order in the records
func (e *Executor) runAsync(ctx context.Context, tmplName string, ops []template.Operation, workDir string) ([]result.OperationResult, error) {
	slots := make([]result.OperationResult, len(ops))
	ran := make([]bool, len(ops))

	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i, op := range ops {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = e.runOne(ctx, tmplName, op, workDir)
			ran[i] = true
			return nil
		})
	}
	_ = g.Wait()

	records := make([]result.OperationResult, 0, len(ops))
	skipped := 0
	for i := range ops {
		if ran[i] {
			records = append(records, slots[i])
		} else {
			skipped++
		}
	}
	if skipped > 0 {
		return records, interrupted(skipped, ctx.Err())
	}
	return records, nil
}

// runOne applies a single operation and turns every outcome, panics included, into a record
func (e *Executor) runOne(ctx context.Context, tmplName string, op template.Operation, workDir string) (rec result.OperationResult) {
	logger := zerolog.Ctx(ctx)
	start := e.now()

	if op == nil {
		rec = result.OperationResult{Operation: "<nil>", Outcome: template.OutcomeFailed, Details: ErrNilOperation.Error(), Err: ErrNilOperation}
		e.notify(ctx, tmplName, rec)
		return rec
	}

	rec = result.OperationResult{Operation: op.Name(), Description: op.Description()}

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("%w: %s: %v", ErrOperationPanicked, op.Name(), r)
			rec.Outcome = template.OutcomeFailed
			rec.Details = err.Error()
			rec.Metadata = nil
			rec.Err = err
		}
		rec.Duration = e.now().Sub(start)

		ev := logger.Debug()
		if rec.Failed() {
			ev = logger.Warn().AnErr("cause", rec.Err)
		}
		ev.Str("operation", rec.Operation).Str("outcome", rec.Outcome.String()).Dur("duration", rec.Duration).Msg("operation finished")

		e.notify(ctx, tmplName, rec)
	}()

	res, err := op.Apply(ctx, workDir)
	if err != nil {
		rec.Outcome = template.OutcomeFailed
		rec.Details = err.Error()
		rec.Err = errors.Errorf("applying %s: %w", op.Name(), err)
		return rec
	}

	rec.Outcome = res.Outcome
	rec.Details = res.Details
	rec.Metadata = res.Metadata
	if rec.Details == "" && res.Outcome == template.OutcomeApplied {
		rec.Details = op.Description()
	}
	return rec
}

func (e *Executor) notify(ctx context.Context, tmplName string, rec result.OperationResult) {
	for _, o := range e.observers {
		o.OperationFinished(ctx, tmplName, rec)
	}
}

func interrupted(remaining int, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return errors.Join(errors.Errorf("%w: %s not started", ErrStepInterrupted, plural(remaining, "operation")), cause)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
