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

// Package upgrade chains templates into an upgrade path and runs them against one working copy
package upgrade

import (
	"fmt"
	"strings"

	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrEmptyPath is returned when a path would have no steps
	ErrEmptyPath = errors.Base("upgrade path has no steps")

	// ErrInvalidStep is returned when a step cannot produce templates
	ErrInvalidStep = errors.Base("invalid upgrade step")
)

// 🪜 Step is one version hop of an upgrade path
type Step struct {
	Type template.Type
	// From and To are optional version labels
	From string
	To   string
}

// String returns the template name, with versions when known
func (s Step) String() string {
	if s.From == "" && s.To == "" {
		return s.Type.Name
	}
	return fmt.Sprintf("%s (%s -> %s)", s.Type.Name, orUnknown(s.From), orUnknown(s.To))
}

func orUnknown(v string) string {
	if v == "" {
		return "?"
	}
	return v
}

// 🛤️ Path is an immutable, non-empty sequence of upgrade steps
type Path struct {
	steps []Step
}

// 🏭 NewPath builds a path from template types in order
func NewPath(types ...template.Type) (*Path, error) {
	steps := make([]Step, len(types))
	for i, t := range types {
		steps[i] = Step{Type: t}
	}
	return NewPathOfSteps(steps...)
}

// 🏭 NewPathOfSteps builds a path from steps in order
func NewPathOfSteps(steps ...Step) (*Path, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPath
	}
	for i, s := range steps {
		if err := s.Type.Validate(); err != nil {
			return nil, errors.Errorf("%w: step %d: %s", ErrInvalidStep, i+1, err.Error())
		}
	}
	return &Path{steps: append([]Step(nil), steps...)}, nil
}

// Steps returns a copy of the steps
func (p *Path) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Len returns the number of steps
func (p *Path) Len() int {
	return len(p.steps)
}

// Names returns the template names in order
func (p *Path) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Type.Name
	}
	return names
}

// ➕ Then returns a new path with step appended; p is unchanged
func (p *Path) Then(step Step) (*Path, error) {
	return NewPathOfSteps(append(p.Steps(), step)...)
}

func (p *Path) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " => ")
}
