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

package declarative

import (
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/template"
)

var _ extension.Extension = (*Extension)(nil)

// 🔌 Extension serves the templates declared in a manifest
type Extension struct {
	manifest Manifest
	location string
	types    []template.Type
	criteria []extension.Criterion
}

// 🏭 New validates m and builds an extension from it
func New(m *Manifest) (*Extension, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	ext := &Extension{manifest: *m}
	for _, spec := range m.Templates {
		typ := templateType(spec)
		ext.types = append(ext.types, typ)
		if spec.AppliesWhen.Empty() {
			continue
		}
		ext.criteria = append(ext.criteria, extension.Criterion{
			Template: typ,
			Applies:  predicate(spec.AppliesWhen),
		})
	}
	return ext, nil
}

func (e *Extension) Name() string        { return e.manifest.Name }
func (e *Extension) Description() string { return e.manifest.Description }
func (e *Extension) Version() string     { return e.manifest.Version }

// Location is the manifest file, empty when built in memory
func (e *Extension) Location() string { return e.location }

func (e *Extension) Templates() []template.Type {
	return append([]template.Type(nil), e.types...)
}

func (e *Extension) ResolutionCriteria() []extension.Criterion {
	return append([]extension.Criterion(nil), e.criteria...)
}

// predicate turns conditions into an applicability check. Templates without
// conditions get no criterion and are only picked by name.
func predicate(c *Conditions) extension.Predicate {
	var preds []extension.Predicate
	if len(c.AllExist) > 0 {
		preds = append(preds, extension.AllExist(c.AllExist...))
	}
	if len(c.AnyExist) > 0 {
		preds = append(preds, extension.AnyExist(c.AnyExist...))
	}
	if len(c.NoneExist) > 0 {
		preds = append(preds, extension.NoneExist(c.NoneExist...))
	}
	for _, cs := range c.Contains {
		preds = append(preds, extension.FileContains(cs.Files, cs.Text))
	}
	return extension.And(preds...)
}

// 📦 declaredTemplate runs the operations of one TemplateSpec
type declaredTemplate struct {
	spec TemplateSpec
}

func templateType(spec TemplateSpec) template.Type {
	return template.Type{
		Name:        spec.Name,
		Description: spec.Description,
		New: func() template.Template {
			return &declaredTemplate{spec: spec}
		},
	}
}

func (t *declaredTemplate) Name() string        { return t.spec.Name }
func (t *declaredTemplate) Description() string { return t.spec.Description }

func (t *declaredTemplate) Operations() []template.Operation {
	ops := make([]template.Operation, 0, len(t.spec.Operations))
	for _, spec := range t.spec.Operations {
		ops = append(ops, newOperation(spec))
	}
	return ops
}
