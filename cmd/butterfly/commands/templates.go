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
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/butterfly/cmd/butterfly/opts"
	"github.com/walteh/butterfly/pkg/log"
)

type templateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Automatic   bool   `json:"automatic"`
}

func NewTemplatesCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the templates of the extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := o.Open(cmd.Context(), "")
			if err != nil {
				return err
			}

			automatic := map[string]bool{}
			for _, c := range s.Extension.ResolutionCriteria() {
				automatic[c.Template.Name] = true
			}

			var infos []templateInfo
			for _, t := range s.Extension.Templates() {
				infos = append(infos, templateInfo{Name: t.Name, Description: t.Description, Automatic: automatic[t.Name]})
			}

			if o.JSON {
				if err := json.NewEncoder(o.Stdout).Encode(infos); err != nil {
					return errors.Errorf("encoding templates: %w", err)
				}
				return nil
			}

			data := pterm.TableData{{"Template", "Description", "Automatic"}}
			for _, info := range infos {
				auto := "no"
				if info.Automatic {
					auto = "yes"
				}
				data = append(data, []string{info.Name, info.Description, auto})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering templates: %w", err)
			}
			log.FromContext(ctx).Header(fmt.Sprintf("%s %s", s.Extension.Name(), s.Extension.Version()))
			_, err = fmt.Fprintln(o.Stdout, table)
			return err
		},
	}
	return cmd
}
