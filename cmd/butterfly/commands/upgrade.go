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

	"github.com/walteh/butterfly/cmd/butterfly/opts"
)

func NewUpgradeCmd(o *opts.RootOpts) *cobra.Command {
	var (
		steps []string
		out   outputFlags
	)

	cmd := &cobra.Command{
		Use:   "upgrade <application> --step <template> [--step <template>...]",
		Short: "Run an upgrade path of templates in order",
		Long: `Upgrade runs several templates one after another. Each step works on the
output of the previous one and a failed step does not stop the next.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "upgrade").Logger().WithContext(cmd.Context())

			ctx, s, err := o.Open(ctx, "")
			if err != nil {
				return err
			}

			rf := out.runFile(args[0])
			rf.Upgrade = steps
			return execute(ctx, o, s, rf)
		},
	}

	cmd.Flags().StringArrayVarP(&steps, "step", "s", nil, "template to run, repeat for each step")
	_ = cmd.MarkFlagRequired("step")
	out.register(cmd)
	return cmd
}
