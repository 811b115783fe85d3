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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/cmd/butterfly/opts"
	"github.com/walteh/butterfly/pkg/config"
)

func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <runfile>",
		Short: "Run the transformation described by a run file",
		Long: `Run loads a run file (.yaml, .yml, .json, .toml, .hcl or .butterfly) naming
the application, the extension manifest, a template or upgrade path, and
the output settings. Relative paths are resolved against the run file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			rf, err := config.LoadRunFile(ctx, args[0])
			if err != nil {
				return errors.Errorf("loading run file: %w", err)
			}

			ctx, s, err := o.Open(ctx, rf.ExtensionPath())
			if err != nil {
				return err
			}
			return execute(ctx, o, s, rf)
		},
	}
	return cmd
}
