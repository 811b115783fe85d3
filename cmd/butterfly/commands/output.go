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


package commands

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/cmd/butterfly/opts"
	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/log"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/upgrade"
)

// ErrOperationsFailed is returned when a run completed but some operations failed
var ErrOperationsFailed = errors.Base("transformation finished with failed operations")

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrOperationsFailed):
		return 2
	default:
		return 1
	}
}

// 📦 outputFlags are the flags that build a Configuration
type outputFlags struct {
	args config.OutputArgs
}

func (f *outputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.args.InPlace, "in-place", false, "transform the application folder itself")
	fl.StringVarP(&f.args.Folder, "output", "o", "", "existing folder to write the transformed copy into")
	fl.BoolVar(&f.args.Zip, "zip", false, "compress the transformed copy")
	fl.BoolVar(&f.args.KeepUncompressed, "keep-uncompressed", false, "keep the folder next to the zip file")
	fl.StringVar(&f.args.OnFailure, "on-failure", "", "what to do with a failed copy: finalize or discard")
	fl.StringSliceVar(&f.args.Exclude, "exclude", nil, "glob patterns to leave out of the copy")
	fl.StringVar(&f.args.Timeout, "timeout", "", "bound the whole run, e.g. 10m")
}

func (f *outputFlags) runFile(app string) *config.RunFile {
	out := f.args
	return &config.RunFile{Application: app, Output: &out}
}

// 🏃 execute runs a validated run file against the session's extension
func execute(ctx context.Context, o *opts.RootOpts, s *opts.Session, rf *config.RunFile) error {
	if err := rf.Validate(); err != nil {
		return err
	}
	cfg, err := rf.Configuration()
	if err != nil {
		return err
	}
	app := rf.ApplicationPath()
	console := log.FromContext(ctx)

	var res *result.Result
	if len(rf.Upgrade) > 0 {
		types := make([]template.Type, 0, len(rf.Upgrade))
		for _, name := range rf.Upgrade {
			typ, err := s.Registry.LookupTemplate(name)
			if err != nil {
				return err
			}
			types = append(types, typ)
		}
		path, err := upgrade.NewPath(types...)
		if err != nil {
			return err
		}
		console.Header("upgrading " + app + " via " + path.String())
		res, err = s.Engine.TransformPath(ctx, app, path, cfg)
		return report(ctx, o, s, res, err)
	}

	console.Header("transforming " + app + " with " + rf.Template)
	res, err = s.Engine.Transform(ctx, app, rf.Template, cfg)
	return report(ctx, o, s, res, err)
}

// 📝 report prints the result, writes metrics and turns failures into errors
func report(ctx context.Context, o *opts.RootOpts, s *opts.Session, res *result.Result, runErr error) error {
	console := log.FromContext(ctx)

	if res != nil {
		zerolog.Ctx(ctx).Debug().Interface("reported", console.Counts()).Msg("operations reported")

		if o.JSON {
			enc := json.NewEncoder(o.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return errors.Errorf("encoding result: %w", err)
			}
		} else {
			console.LogNewline()
			if err := console.Result(res); err != nil {
				return errors.Errorf("printing result: %w", err)
			}
			if n := len(res.ManualActions()); n > 0 {
				console.Warningf("%d %s follow up", n, plural(n, "manual action needs", "manual actions need"))
			}
		}
	}

	if o.MetricsFile != "" {
		if err := s.Metrics.WriteTextfile(o.MetricsFile); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("writing metrics")
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	if !res.Success() {
		return errors.Errorf("%w: %d of %d operations failed", ErrOperationsFailed, len(res.Failures()), operations(res))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func operations(res *result.Result) int {
	n := 0
	for _, step := range res.Steps() {
		n += len(step.Operations)
	}
	return n
}

