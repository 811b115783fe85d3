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

package butterfly

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/metrics"
	"github.com/walteh/butterfly/pkg/operation"
	"github.com/walteh/butterfly/pkg/resolver"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/stage"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/upgrade"
)

var (
	ErrNilRegistry      = errors.Base("extension registry is nil")
	ErrTemplateNotFound = extension.ErrTemplateNotFound
)

// 🦋 Engine is the entry point for resolving and running transformations
type Engine struct {
	registry  *extension.Registry
	runner    *upgrade.Runner
	metrics   *metrics.Metrics
	now       func() time.Time
	stager    upgrade.Stager
	executor  upgrade.StepExecutor
	observers []operation.Observer
	parallel  int
}

// 🔧 Option configures an Engine
type Option func(*Engine)

// WithStager replaces the staging manager
func WithStager(s upgrade.Stager) Option {
	return func(e *Engine) { e.stager = s }
}

// WithExecutor replaces the operation executor. Observers and parallelism
// options are ignored when it is set.
func WithExecutor(x upgrade.StepExecutor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithObserver is notified after every operation
func WithObserver(o operation.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithParallelism runs up to n operations of a template at once
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallel = n }
}

// WithMetrics records every finished invocation into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the time source for timestamps and durations
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// 🏭 New creates an engine serving the extension held by registry
func New(registry *extension.Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}

	e := &Engine{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	if e.stager == nil {
		e.stager = stage.NewManager(stage.WithClock(e.now))
	}
	if e.executor == nil {
		xopts := []operation.ExecutorOption{operation.WithExecutorClock(e.now)}
		if e.parallel > 0 {
			xopts = append(xopts, operation.WithParallelism(e.parallel))
		}
		for _, o := range e.observers {
			xopts = append(xopts, operation.WithObserver(o))
		}
		e.executor = operation.NewExecutor(xopts...)
	}

	e.runner = upgrade.NewRunner(
		upgrade.WithStager(e.stager),
		upgrade.WithExecutor(e.executor),
		upgrade.WithClock(e.now),
	)
	return e, nil
}

// RegisteredExtension returns the registered extension, nil if there is none.
// It fails when more than one registration was attempted.
func (e *Engine) RegisteredExtension() (extension.Extension, error) {
	return e.registry.Get()
}

// 🔍 AutomaticResolution picks the one template that applies to appDir
func (e *Engine) AutomaticResolution(ctx context.Context, appDir string) (template.Type, error) {
	return resolver.Resolve(ctx, e.registry, appDir)
}

// NewConfiguration transforms the application folder in place
func (e *Engine) NewConfiguration(opts ...config.Option) *config.Configuration {
	return config.New(opts...)
}

// NewConfigurationWithZip writes a new sibling folder, optionally zipped
func (e *Engine) NewConfigurationWithZip(zip bool, opts ...config.Option) *config.Configuration {
	return config.NewWithZip(zip, opts...)
}

// NewConfigurationWithOutputFolder writes the transformed folder inside outputFolder
func (e *Engine) NewConfigurationWithOutputFolder(outputFolder string, zip bool, opts ...config.Option) (*config.Configuration, error) {
	return config.NewWithOutputFolder(outputFolder, zip, opts...)
}

// 🏃 Transform runs the template named templateName against appDir.
// A nil cfg transforms in place.
func (e *Engine) Transform(ctx context.Context, appDir, templateName string, cfg *config.Configuration) (*result.Result, error) {
	appDir, cfg, err := e.prepare(appDir, cfg)
	if err != nil {
		return nil, err
	}

	typ, err := e.registry.LookupTemplate(templateName)
	if err != nil {
		return nil, err
	}

	path, err := upgrade.NewPath(typ)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, appDir, path, cfg)
}

// 🏃 TransformType runs typ against appDir
func (e *Engine) TransformType(ctx context.Context, appDir string, typ template.Type, cfg *config.Configuration) (*result.Result, error) {
	appDir, cfg, err := e.prepare(appDir, cfg)
	if err != nil {
		return nil, err
	}

	path, err := upgrade.NewPath(typ)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, appDir, path, cfg)
}

// 🏃 TransformPath runs every step of path against appDir, each step
// starting from the output of the previous one
func (e *Engine) TransformPath(ctx context.Context, appDir string, path *upgrade.Path, cfg *config.Configuration) (*result.Result, error) {
	appDir, cfg, err := e.prepare(appDir, cfg)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, upgrade.ErrEmptyPath
	}
	return e.run(ctx, appDir, path, cfg)
}

// prepare returns the absolute application folder and the configuration to run with
func (e *Engine) prepare(appDir string, cfg *config.Configuration) (string, *config.Configuration, error) {
	abs, err := resolver.ApplicationFolder(appDir)
	if err != nil {
		return "", nil, err
	}
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return abs, cfg, nil
}

func (e *Engine) run(ctx context.Context, appDir string, path *upgrade.Path, cfg *config.Configuration) (*result.Result, error) {
	logger := zerolog.Ctx(ctx)

	if d := cfg.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	b := result.NewBuilderWithClock(appDir, e.now)
	ext, err := e.registry.Get()
	if err != nil {
		return nil, err
	}
	if ext != nil {
		b.Extension(ext.Name())
	}

	logger.Info().
		Str("app", appDir).
		Str("path", path.String()).
		Str("configuration", cfg.String()).
		Msg("starting transformation")

	res, err := e.runner.RunInto(ctx, b, path, appDir, cfg)
	e.metrics.Observe(res)
	if err != nil {
		logger.Error().Err(err).Str("app", appDir).Msg("transformation stopped")
		return res, err
	}

	logger.Info().
		Str("id", res.ID().String()).
		Bool("success", res.Success()).
		Str("output", res.Output()).
		Dur("duration", res.Duration()).
		Msg("transformation finished")
	return res, nil
}
