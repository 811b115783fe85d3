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

// Package extension defines the template provider contract and the registry that holds it
package extension

import (
	"context"

	"github.com/walteh/butterfly/pkg/template"
)

// 🔌 Extension provides templates and the criteria used to pick one automatically
type Extension interface {
	// Name returns the extension name
	Name() string
	// Description returns a human readable summary
	Description() string
	// Version returns the extension version
	Version() string
	// Templates returns every template type the extension provides
	Templates() []template.Type
	// ResolutionCriteria returns one applicability predicate per candidate template
	ResolutionCriteria() []Criterion
}

// 🔍 Predicate reports whether a template applies to the application at appDir.
// Predicates must only read from appDir.
type Predicate func(ctx context.Context, appDir string) (bool, error)

// 🎯 Criterion pairs a candidate template with its applicability predicate
type Criterion struct {
	Template template.Type
	Applies  Predicate
}
