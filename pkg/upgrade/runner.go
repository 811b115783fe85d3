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

package upgrade

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/operation"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/stage"
	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInterrupted is returned when a run is cancelled or times out
	ErrInterrupted = errors.Base("transformation interrupted")

	// ErrNilTemplate is recorded when a template type constructs nothing
	ErrNilTemplate = errors.Base("template constructor returned nil")
)

// 📦 Stager prepares and finalizes working copies
type Stager interface {
	Stage(ctx context.Context, appDir string, cfg *config.Configuration) (string, error)
	Finalize(ctx context.Context, workDir string, cfg *config.Configuration) (string, error)
	Discard(ctx context.Context, appDir, workDir string) error
}

// 🏃 StepExecutor runs one template against a working copy
type StepExecutor interface {
	Execute(ctx context.Context, tmpl template.Template, workDir string) *result.StepResult
}

var (
	_ Stager       = (*stage.Manager)(nil)
	_ StepExecutor = (*operation.Executor)(nil)
)

// 🛤️ Runner stages once, runs every step of a path against the same
// working copy and finalizes once
type Runner struct {
	stager   Stager
	executor StepExecutor
	now      func() time.Time
}

// 🔧 RunnerOption configures a Runner
type RunnerOption func(*Runner)

func WithStager(s Stager) RunnerOption {
	return func(r *Runner) { r.stager = s }
}

func WithExecutor(e StepExecutor) RunnerOption {
	return func(r *Runner) { r.executor = e }
}

// WithClock sets the clock used for result timestamps
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// 🏭 NewRunner creates a runner backed by a stage.Manager and an operation.Executor unless overridden
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.stager == nil {
		r.stager = stage.NewManager(stage.WithClock(r.now))
	}
	if r.executor == nil {
		r.executor = operation.NewExecutor()
	}
	return r
}

// 🏃 Run executes path against appDir
func (r *Runner) Run(ctx context.Context, path *Path, appDir string, cfg *config.Configuration) (*result.Result, error) {
	return r.RunInto(ctx, result.NewBuilderWithClock(appDir, r.now), path, appDir, cfg)
}

// 🏃 RunInto executes path against appDir and records into b.
// A failed step does not stop later steps. The returned error is set only
// when staging, finalizing or cancellation stopped the run.
func (r *Runner) RunInto(ctx context.Context, b *result.Builder, path *Path, appDir string, cfg *config.Configuration) (*result.Result, error) {
	logger := zerolog.Ctx(ctx)

	b.Configuration(cfg).Templates(path.Names()...)

	workDir, err := r.stager.Stage(ctx, appDir, cfg)
	if err != nil {
		b.Err(err)
		return b.Build(), err
	}

	workDir, err = r.fold(ctx, b, path, workDir)
	if err != nil {
		err = r.abandon(ctx, appDir, workDir, cfg, err)
		b.Err(err)
		return b.Build(), err
	}

	if !b.StepsSucceeded() && cfg.FailurePolicy() == config.DiscardPartial && !cfg.ModifyOriginalFolder() {
		logger.Info().Str("work_dir", workDir).Msg("upgrade failed, discarding partial working copy")
		if err := r.stager.Discard(ctx, appDir, workDir); err != nil {
			b.Err(err)
			return b.Build(), err
		}
		return b.Build(), nil
	}

	out, err := r.stager.Finalize(ctx, workDir, cfg)
	if err != nil {
		err = r.abandon(ctx, appDir, workDir, cfg, err)
		b.Err(err)
		return b.Build(), err
	}
	b.Output(out)

	res := b.Build()
	logger.Info().
		Str("output", out).
		Bool("success", res.Success()).
		Int("steps", path.Len()).
		Msg("upgrade path finished")
	return res, nil
}

// fold runs each step against the working copy produced by the previous one
func (r *Runner) fold(ctx context.Context, b *result.Builder, path *Path, workDir string) (string, error) {
	logger := zerolog.Ctx(ctx)

	for i, s := range path.steps {
		if err := ctx.Err(); err != nil {
			return workDir, errors.Join(errors.Errorf("%w: before step %d (%s)", ErrInterrupted, i+1, s), err)
		}

		logger.Info().Int("step", i+1).Int("of", path.Len()).Str("template", s.String()).Msg("running upgrade step")

		tmpl := s.Type.New()
		if tmpl == nil {
			b.AddStep(&result.StepResult{Template: s.Type.Name, WorkDir: workDir, Started: r.now(), Err: ErrNilTemplate})
			continue
		}

		step := r.executor.Execute(ctx, tmpl, workDir)
		b.AddStep(step)

		if err := ctx.Err(); err != nil {
			return workDir, errors.Join(errors.Errorf("%w: during step %d (%s)", ErrInterrupted, i+1, s), err)
		}
		if !step.Success() {
			logger.Warn().Int("step", i+1).Str("template", s.Type.Name).Msg("upgrade step failed, continuing with partially transformed copy")
		}
	}
	return workDir, nil
}

// abandon discards the working copy after an unrecoverable failure. The
// application folder itself is never touched.
func (r *Runner) abandon(ctx context.Context, appDir, workDir string, cfg *config.Configuration, cause error) error {
	if cfg.ModifyOriginalFolder() {
		zerolog.Ctx(ctx).Warn().Str("app", appDir).Msg("in place run stopped early, no rollback available")
		return cause
	}
	if err := r.stager.Discard(ctx, appDir, workDir); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
