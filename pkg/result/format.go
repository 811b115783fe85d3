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

package result

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/walteh/butterfly/pkg/template"
)

const (
	opIndent  = 4
	nameWidth = 35
)

// 🎨 Symbol returns the console symbol and color for an outcome
func Symbol(o template.Outcome) (string, color.Attribute) {
	switch o {
	case template.OutcomeApplied:
		return "✓", color.FgGreen
	case template.OutcomeSkipped:
		return "-", color.FgYellow
	case template.OutcomeManualAction:
		return "✋", color.FgMagenta
	case template.OutcomeFailed:
		return "✗", color.FgRed
	default:
		return "?", color.FgWhite
	}
}

// 📝 Format writes a human readable summary of r to w
func (r *Result) Format(w io.Writer) error {
	var b strings.Builder

	status := color.New(color.FgGreen, color.Bold).Sprint("success")
	if !r.success {
		status = color.New(color.FgRed, color.Bold).Sprint("failed")
	}
	fmt.Fprintf(&b, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(r.application),
		color.New(color.Faint).Sprint("•"),
		status)

	for _, s := range r.steps {
		fmt.Fprintf(&b, "[%s]\n", color.New(color.FgCyan).Sprint(s.Template))
		for _, op := range s.Operations {
			sym, attr := Symbol(op.Outcome)
			line := fmt.Sprintf("%*s%s %-*s %s", opIndent, "", color.New(attr).Sprint(sym), nameWidth, op.Operation, op.Outcome)
			if op.Details != "" {
				line += " " + color.New(color.Faint).Sprint(op.Details)
			}
			b.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		if s.Err != nil {
			fmt.Fprintf(&b, "%*s%s\n", opIndent, "", color.New(color.FgRed).Sprint("stopped: "+s.Err.Error()))
		}
	}

	fmt.Fprintf(&b, "%d applied, %d skipped, %d manual, %d failed\n",
		r.Count(template.OutcomeApplied),
		r.Count(template.OutcomeSkipped),
		r.Count(template.OutcomeManualAction),
		r.Count(template.OutcomeFailed))

	if r.output != "" {
		fmt.Fprintf(&b, "output: %s\n", color.New(color.FgCyan).Sprint(r.output))
	}
	if r.err != nil {
		fmt.Fprintf(&b, "error: %s\n", color.New(color.FgRed).Sprint(r.err.Error()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
