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

package template

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// 🧩 Operation is the smallest unit of change tracked by the engine
type Operation interface {
	// Name returns a short identifier for the operation
	Name() string
	// Description returns a human readable summary of what the operation does
	Description() string
	// Apply runs the operation against the working copy rooted at workDir.
	// A non-nil error means the operation failed.
	Apply(ctx context.Context, workDir string) (Result, error)
}

// 📦 Template is a named, reusable bundle of operations
type Template interface {
	// Name returns the fully-qualified template name
	Name() string
	// Description returns a human readable summary of the template
	Description() string
	// Operations returns the operations in the order they must run
	Operations() []Operation
}

// 🏷️ Type is a direct reference to a template kind.
// New must return a fresh Template on every call.
type Type struct {
	Name        string
	Description string
	New         func() Template
}

// 🔍 Validate checks that the type can produce templates
func (t Type) Validate() error {
	if t.Name == "" {
		return errors.New("template type name is required")
	}
	if t.New == nil {
		return errors.Errorf("template type %s has no constructor", t.Name)
	}
	return nil
}

// String returns the template type name
func (t Type) String() string {
	return t.Name
}

// Names returns the names of the given types in order
func Names(types []Type) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return names
}
