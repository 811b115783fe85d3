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


package opts

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/pkg/butterfly"
	"github.com/walteh/butterfly/pkg/declarative"
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/log"
	"github.com/walteh/butterfly/pkg/metrics"
)

// ErrNoManifest is returned when a command needs an extension and none was given
var ErrNoManifest = errors.Base("no extension manifest given, use --extension")

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ExtensionFile string
	Debug         bool
	JSON          bool
	MetricsFile   string
	Parallelism   int

	Stdout io.Writer
	Stderr io.Writer
}

// 🔌 Session is everything a command needs to run against one extension.
// Its console reporter travels in the context returned by Open.
type Session struct {
	Extension *declarative.Extension
	Registry  *extension.Registry
	Engine    *butterfly.Engine
	Metrics   *metrics.Metrics
}

// Console returns the console reporter. It prints nothing in JSON mode so
// stdout stays machine readable.
func (o *RootOpts) Console(ctx context.Context) *log.Logger {
	out := o.Stdout
	if o.JSON {
		out = io.Discard
	}
	return log.New(out, *zerolog.Ctx(ctx))
}

// 📥 Open loads the extension manifest and builds an engine for it.
// manifest overrides --extension when set. The returned context carries the
// console reporter, see log.FromContext.
func (o *RootOpts) Open(ctx context.Context, manifest string) (context.Context, *Session, error) {
	if manifest == "" {
		manifest = o.ExtensionFile
	}
	if manifest == "" {
		return ctx, nil, ErrNoManifest
	}

	ext, err := declarative.Load(ctx, manifest)
	if err != nil {
		return ctx, nil, errors.Errorf("loading extension: %w", err)
	}

	reg := extension.NewRegistry()
	if err := reg.Register(ext); err != nil {
		return ctx, nil, err
	}

	s := &Session{
		Extension: ext,
		Registry:  reg,
	}
	if o.MetricsFile != "" {
		s.Metrics = metrics.New()
	}

	console := o.Console(ctx)
	s.Engine, err = butterfly.New(reg,
		butterfly.WithObserver(console),
		butterfly.WithParallelism(o.Parallelism),
		butterfly.WithMetrics(s.Metrics),
	)
	if err != nil {
		return ctx, nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("extension", ext.Name()).
		Str("manifest", manifest).
		Int("templates", len(ext.Templates())).
		Msg("extension loaded")
	return log.NewContext(ctx, console), s, nil
}
