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

// Package text applies literal text replacements to file contents
package text

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/bmatcuk/doublestar/v4"
)

// 🔁 ReplacementRule replaces every occurrence of From with To in files matching Files
type ReplacementRule struct {
	From string `yaml:"from" json:"from" hcl:"from"`
	To   string `yaml:"to" json:"to" hcl:"to"`
	// Files is a doublestar glob relative to the working copy; empty matches every file
	Files string `yaml:"files,omitempty" json:"files,omitempty" hcl:"files,optional"`
}

// AppliesTo reports whether the rule targets the slash separated relative path
func (r ReplacementRule) AppliesTo(rel string) bool {
	if r.Files == "" {
		return true
	}
	ok, _ := doublestar.Match(r.Files, filepath.ToSlash(rel))
	return ok
}

// 📊 ReplacementResult contains the results of a replacement pass
type ReplacementResult struct {
	WasModified      bool
	ReplacementCount int
	OriginalContent  []byte
	ModifiedContent  []byte
}

// 📝 Diff returns a unified diff of the change labelled with path, empty when nothing changed
func (r *ReplacementResult) Diff(path string) string {
	if r == nil || !r.WasModified {
		return ""
	}
	path = filepath.ToSlash(path)
	return strings.TrimSpace(udiff.Unified("a/"+path, "b/"+path, string(r.OriginalContent), string(r.ModifiedContent)))
}

// 🔌 TextReplacer applies replacement rules to content
type TextReplacer interface {
	// ReplaceText applies rules in order, each seeing the output of the previous one
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are usable
	ValidateRules(rules []ReplacementRule) error
}
