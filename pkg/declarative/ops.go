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
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// declaredOperation applies one OperationSpec
type declaredOperation struct {
	spec  OperationSpec
	apply func(ctx context.Context, w *workspace, spec OperationSpec) (template.Result, error)
}

func newOperation(spec OperationSpec) template.Operation {
	op := &declaredOperation{spec: spec}
	switch spec.Type {
	case OpReplaceText:
		op.apply = replaceText
	case OpWriteFile:
		op.apply = writeFile
	case OpDelete:
		op.apply = deleteFiles
	case OpManual:
		op.apply = manual
	default:
		op.apply = func(context.Context, *workspace, OperationSpec) (template.Result, error) {
			return template.Result{}, errors.Errorf("unknown operation type %q", spec.Type)
		}
	}
	return op
}

func (o *declaredOperation) Name() string { return o.spec.Name }

func (o *declaredOperation) Description() string {
	if o.spec.Description != "" {
		return o.spec.Description
	}
	return strings.ReplaceAll(o.spec.Type, "_", " ") + " " + o.target()
}

func (o *declaredOperation) target() string {
	switch o.spec.Type {
	case OpWriteFile:
		return o.spec.Path
	case OpManual:
		return "step"
	}
	if o.spec.Files == "" {
		return "**"
	}
	return o.spec.Files
}

func (o *declaredOperation) Apply(ctx context.Context, workDir string) (template.Result, error) {
	return o.apply(ctx, newWorkspace(workDir), o.spec)
}

// 🔁 replaceText rewrites every matching file the rules change
func replaceText(ctx context.Context, w *workspace, spec OperationSpec) (template.Result, error) {
	logger := zerolog.Ctx(ctx)

	pattern := spec.Files
	if pattern == "" {
		pattern = "**"
	}
	files, err := w.glob(pattern, false)
	if err != nil {
		return template.Result{}, err
	}
	sort.Strings(files)

	replacer := text.NewSimpleTextReplacer()
	var changed, diffs []string
	total := 0
	for _, rel := range files {
		var rules []text.ReplacementRule
		for _, r := range spec.Replacements {
			if r.AppliesTo(rel) {
				rules = append(rules, r)
			}
		}
		if len(rules) == 0 {
			continue
		}

		content, perm, err := w.read(rel)
		if err != nil {
			return template.Result{}, err
		}
		res, err := replacer.ReplaceText(ctx, bytes.NewReader(content), rules)
		if err != nil {
			return template.Result{}, errors.Errorf("replacing text in %s: %w", rel, err)
		}
		if !res.WasModified {
			continue
		}
		if err := w.writeAtomic(rel, res.ModifiedContent, perm); err != nil {
			return template.Result{}, errors.Errorf("writing %s: %w", rel, err)
		}

		logger.Debug().Str("file", rel).Int("replacements", res.ReplacementCount).Msg("replaced text")
		changed = append(changed, rel)
		diffs = append(diffs, res.Diff(rel))
		total += res.ReplacementCount
	}

	if len(changed) == 0 {
		return template.Skipped(fmt.Sprintf("no file matching %s needed changes", pattern)), nil
	}
	return template.Applied(fmt.Sprintf("%d replacements in %d files", total, len(changed))).
		WithMetadata("files", strings.Join(changed, ",")).
		WithMetadata("replacements", strconv.Itoa(total)).
		WithMetadata("diff", strings.Join(diffs, "\n")), nil
}

// 📝 writeFile creates or replaces a file with fixed content
func writeFile(ctx context.Context, w *workspace, spec OperationSpec) (template.Result, error) {
	if !local(spec.Path) {
		return template.Result{}, errors.Errorf("path %q escapes the working copy", spec.Path)
	}

	content := []byte(spec.Content)
	perm := os.FileMode(0o644)

	existing, existingPerm, err := w.read(spec.Path)
	exists := err == nil
	switch {
	case exists:
		if bytes.Equal(existing, content) {
			return template.Skipped(spec.Path + " already up to date"), nil
		}
		if !spec.Overwrite {
			return template.Skipped(spec.Path + " exists and overwrite is disabled"), nil
		}
		perm = existingPerm
	case os.IsNotExist(err):
	default:
		return template.Result{}, errors.Errorf("inspecting %s: %w", spec.Path, err)
	}

	if err := w.writeAtomic(spec.Path, content, perm); err != nil {
		return template.Result{}, errors.Errorf("writing %s: %w", spec.Path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("file", spec.Path).Int("bytes", len(content)).Msg("wrote file")

	verb := "created"
	if exists {
		verb = "updated"
	}
	return template.Applied(verb+" "+spec.Path).WithMetadata("checksum", checksum(content)), nil
}

// 🗑️ deleteFiles removes everything matching the pattern
func deleteFiles(ctx context.Context, w *workspace, spec OperationSpec) (template.Result, error) {
	matches, err := w.glob(spec.Files, true)
	if err != nil {
		return template.Result{}, err
	}
	if len(matches) == 0 {
		return template.Skipped("nothing matches " + spec.Files), nil
	}

	if slices.Contains(matches, ".") {
		return template.Result{}, errors.Errorf("pattern %s would delete the working copy", spec.Files)
	}

	// deepest first so nested matches are gone before their parents
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, rel := range matches {
		if err := w.remove(rel); err != nil {
			return template.Result{}, err
		}
	}
	zerolog.Ctx(ctx).Debug().Str("pattern", spec.Files).Int("removed", len(matches)).Msg("deleted files")

	sort.Strings(matches)
	return template.Applied(fmt.Sprintf("removed %d paths", len(matches))).
		WithMetadata("removed", strings.Join(matches, ",")), nil
}

// ✋ manual hands guidance back to the caller
func manual(_ context.Context, _ *workspace, spec OperationSpec) (template.Result, error) {
	return template.ManualAction(spec.Guidance), nil
}
