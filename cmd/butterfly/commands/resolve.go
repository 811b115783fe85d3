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
	"encoding/json"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/cmd/butterfly/opts"
	"github.com/walteh/butterfly/pkg/log"
)

func NewResolveCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <application>",
		Short: "Show which template applies to an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ctx, s, err := o.Open(ctx, "")
			if err != nil {
				return err
			}

			typ, err := s.Engine.AutomaticResolution(ctx, args[0])
			if err != nil {
				return err
			}

			if o.JSON {
				err := json.NewEncoder(o.Stdout).Encode(map[string]string{
					"extension":   s.Extension.Name(),
					"template":    typ.Name,
					"description": typ.Description,
				})
				if err != nil {
					return errors.Errorf("encoding resolution: %w", err)
				}
				return nil
			}

			log.FromContext(ctx).Successf("%s applies to %s", typ.Name, args[0])
			return nil
		},
	}
	return cmd
}
