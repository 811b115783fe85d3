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
	"github.com/walteh/butterfly/pkg/log"
)

func NewTransformCmd(o *opts.RootOpts) *cobra.Command {
	var (
		templateName string
		out          outputFlags
	)

	cmd := &cobra.Command{
		Use:   "transform <application>",
		Short: "Run one template against an application folder",
		Long: `Transform applies a template from the extension to an application.
Without --template the template is picked automatically from the
extension's resolution criteria.

By default the original folder is left alone and the transformed copy is
written next to it as <name>-transformed-<timestamp>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "transform").Logger().WithContext(cmd.Context())

			ctx, s, err := o.Open(ctx, "")
			if err != nil {
				return err
			}

			rf := out.runFile(args[0])
			rf.Template = templateName
			if rf.Template == "" {
				typ, err := s.Engine.AutomaticResolution(ctx, args[0])
				if err != nil {
					return err
				}
				log.FromContext(ctx).Infof("resolved template %s", typ.Name)
				rf.Template = typ.Name
			}

			return execute(ctx, o, s, rf)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "template name, resolved automatically when empty")
	out.register(cmd)
	return cmd
}
