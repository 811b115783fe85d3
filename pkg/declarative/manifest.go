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
	"github.com/walteh/butterfly/pkg/text"
)

// Operation types understood by the manifest
const (
	OpReplaceText = "replace_text"
	OpWriteFile   = "write_file"
	OpDelete      = "delete"
	OpManual      = "manual"
)

// 📜 Manifest is the file form of an extension
type Manifest struct {
	Name        string         `yaml:"name" json:"name" hcl:"name" validate:"required"`
	Version     string         `yaml:"version,omitempty" json:"version,omitempty" hcl:"version,optional"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty" hcl:"description,optional"`
	Templates   []TemplateSpec `yaml:"templates" json:"templates" hcl:"template,block" validate:"required,min=1,dive"`
}

// 📦 TemplateSpec declares one template and when it applies
type TemplateSpec struct {
	Name        string          `yaml:"name" json:"name" hcl:"name,label" validate:"required"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty" hcl:"description,optional"`
	AppliesWhen *Conditions     `yaml:"applies_when,omitempty" json:"applies_when,omitempty" hcl:"applies_when,block"`
	Operations  []OperationSpec `yaml:"operations" json:"operations" hcl:"operation,block" validate:"required,min=1,dive"`
}

// 🎯 Conditions are ANDed together; an empty set never applies
type Conditions struct {
	AllExist  []string       `yaml:"all_exist,omitempty" json:"all_exist,omitempty" hcl:"all_exist,optional"`
	AnyExist  []string       `yaml:"any_exist,omitempty" json:"any_exist,omitempty" hcl:"any_exist,optional"`
	NoneExist []string       `yaml:"none_exist,omitempty" json:"none_exist,omitempty" hcl:"none_exist,optional"`
	Contains  []ContainsSpec `yaml:"contains,omitempty" json:"contains,omitempty" hcl:"contains,block" validate:"dive"`
}

// Empty reports whether no condition is set
func (c *Conditions) Empty() bool {
	return c == nil || (len(c.AllExist) == 0 && len(c.AnyExist) == 0 && len(c.NoneExist) == 0 && len(c.Contains) == 0)
}

// 🔎 ContainsSpec applies when a file matching Files contains Text
type ContainsSpec struct {
	Files string `yaml:"files" json:"files" hcl:"files" validate:"required"`
	Text  string `yaml:"text" json:"text" hcl:"text" validate:"required"`
}

// ⚙️ OperationSpec declares one operation. Which fields apply depends on Type.
type OperationSpec struct {
	Name        string `yaml:"name" json:"name" hcl:"name,label" validate:"required"`
	Type        string `yaml:"type" json:"type" hcl:"type" validate:"required,oneof=replace_text write_file delete manual"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" hcl:"description,optional"`

	// replace_text and delete
	Files        string                 `yaml:"files,omitempty" json:"files,omitempty" hcl:"files,optional" validate:"required_if=Type delete"`
	Replacements []text.ReplacementRule `yaml:"replacements,omitempty" json:"replacements,omitempty" hcl:"replace,block" validate:"required_if=Type replace_text"`

	// write_file
	Path      string `yaml:"path,omitempty" json:"path,omitempty" hcl:"path,optional" validate:"required_if=Type write_file"`
	Content   string `yaml:"content,omitempty" json:"content,omitempty" hcl:"content,optional"`
	Overwrite bool   `yaml:"overwrite,omitempty" json:"overwrite,omitempty" hcl:"overwrite,optional"`

	// manual
	Guidance string `yaml:"guidance,omitempty" json:"guidance,omitempty" hcl:"guidance,optional" validate:"required_if=Type manual"`
}
