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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/text"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned when a manifest cannot be used
var ErrInvalidManifest = errors.Base("invalid extension manifest")

var validate = validator.New(validator.WithRequiredStructEnabled())

// 📥 Load reads an extension manifest from a .yaml, .yml, .json or .hcl file
func Load(ctx context.Context, file string) (*Extension, error) {
	zerolog.Ctx(ctx).Debug().Str("path", file).Msg("loading extension manifest")

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Errorf("reading extension manifest: %w", err)
	}

	m, err := Parse(data, file)
	if err != nil {
		return nil, err
	}

	ext, err := New(m)
	if err != nil {
		return nil, err
	}
	ext.location = file
	return ext, nil
}

// 📝 Parse decodes a manifest, picking the format from the filename extension
func Parse(data []byte, filename string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, errors.Errorf("%w: parsing YAML: %s", ErrInvalidManifest, err.Error())
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, errors.Errorf("%w: parsing JSON: %s", ErrInvalidManifest, err.Error())
		}
	case ".hcl":
		f, diags := hclparse.NewParser().ParseHCL(data, filename)
		if diags.HasErrors() {
			return nil, errors.Errorf("%w: parsing HCL: %s", ErrInvalidManifest, diags.Error())
		}
		if diags := gohcl.DecodeBody(f.Body, config.EvalContext(filename), &m); diags.HasErrors() {
			return nil, errors.Errorf("%w: decoding HCL: %s", ErrInvalidManifest, diags.Error())
		}
	default:
		return nil, errors.Errorf("%w: unsupported file extension %q", ErrInvalidManifest, filepath.Ext(filename))
	}
	return &m, nil
}

// 🔍 Validate checks struct constraints, glob patterns and template name uniqueness
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Errorf("%w: %s", ErrInvalidManifest, err.Error())
	}

	replacer := text.NewSimpleTextReplacer()
	seen := map[string]bool{}
	for _, t := range m.Templates {
		if seen[t.Name] {
			return errors.Errorf("%w: duplicate template %s", ErrInvalidManifest, t.Name)
		}
		seen[t.Name] = true

		if t.AppliesWhen != nil {
			patterns := append(append(append([]string{}, t.AppliesWhen.AllExist...), t.AppliesWhen.AnyExist...), t.AppliesWhen.NoneExist...)
			for _, c := range t.AppliesWhen.Contains {
				patterns = append(patterns, c.Files)
			}
			if err := checkPatterns(patterns...); err != nil {
				return errors.Errorf("%w: template %s: %s", ErrInvalidManifest, t.Name, err.Error())
			}
		}

		for _, op := range t.Operations {
			if err := checkPatterns(op.Files); err != nil {
				return errors.Errorf("%w: template %s operation %s: %s", ErrInvalidManifest, t.Name, op.Name, err.Error())
			}
			switch op.Type {
			case OpReplaceText:
				if len(op.Replacements) == 0 {
					return errors.Errorf("%w: template %s operation %s: at least one replacement is required", ErrInvalidManifest, t.Name, op.Name)
				}
				if err := replacer.ValidateRules(op.Replacements); err != nil {
					return errors.Errorf("%w: template %s operation %s: %s", ErrInvalidManifest, t.Name, op.Name, err.Error())
				}
			case OpWriteFile:
				if !local(op.Path) {
					return errors.Errorf("%w: template %s operation %s: path %q must stay inside the application", ErrInvalidManifest, t.Name, op.Name, op.Path)
				}
			}
		}
	}
	return nil
}

func checkPatterns(patterns ...string) error {
	for _, p := range patterns {
		if p != "" && !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid pattern %q", p)
		}
	}
	return nil
}

// local reports whether p is a relative slash path that cannot escape its root
func local(p string) bool {
	if p == "" || path.IsAbs(p) || filepath.IsAbs(p) {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(p))
}
