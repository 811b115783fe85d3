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

// Package testutils provides fakes and fixtures shared by package tests
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Context returns a context carrying a logger that writes to the test log
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// 🌳 WriteTree creates files under dir from a path -> content map
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent of %s", rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", rel)
	}
}

// 🌳 ReadTree returns every regular file under dir as a slash path -> content map
func ReadTree(t testing.TB, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "walking %s", dir)
	return out
}

// 🧩 FuncOperation is an operation backed by a function
type FuncOperation struct {
	OpName string
	Fn     func(ctx context.Context, workDir string) (template.Result, error)
}

func (o *FuncOperation) Name() string        { return o.OpName }
func (o *FuncOperation) Description() string { return "test operation " + o.OpName }

func (o *FuncOperation) Apply(ctx context.Context, workDir string) (template.Result, error) {
	return o.Fn(ctx, workDir)
}

// ✅ AppliedOp always reports applied
func AppliedOp(name string) template.Operation {
	return &FuncOperation{OpName: name, Fn: func(context.Context, string) (template.Result, error) {
		return template.Applied(name + " done"), nil
	}}
}

// ⏭️ SkippedOp always reports skipped
func SkippedOp(name string) template.Operation {
	return &FuncOperation{OpName: name, Fn: func(context.Context, string) (template.Result, error) {
		return template.Skipped(name + " not needed"), nil
	}}
}

// ❌ FailingOp always returns an error
func FailingOp(name string) template.Operation {
	return &FuncOperation{OpName: name, Fn: func(context.Context, string) (template.Result, error) {
		return template.Result{}, errors.Errorf("%s exploded", name)
	}}
}

// ✋ ManualOp always asks for manual action
func ManualOp(name, guidance string) template.Operation {
	return &FuncOperation{OpName: name, Fn: func(context.Context, string) (template.Result, error) {
		return template.ManualAction(guidance), nil
	}}
}

// 📝 AppendOp appends line to file inside the working copy
func AppendOp(name, file, line string) template.Operation {
	return &FuncOperation{OpName: name, Fn: func(_ context.Context, workDir string) (template.Result, error) {
		path := filepath.Join(workDir, file)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return template.Result{}, errors.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()
		if _, err := f.WriteString(line + "\n"); err != nil {
			return template.Result{}, errors.Errorf("writing %s: %w", file, err)
		}
		return template.Applied("appended to " + file), nil
	}}
}

// 📦 StaticTemplate is a template with a fixed operation list
type StaticTemplate struct {
	TemplateName string
	Ops          []template.Operation
}

func (t *StaticTemplate) Name() string                      { return t.TemplateName }
func (t *StaticTemplate) Description() string               { return "test template " + t.TemplateName }
func (t *StaticTemplate) Operations() []template.Operation { return t.Ops }

// 🏷️ NewType returns a template type whose templates run ops
func NewType(name string, ops ...template.Operation) template.Type {
	return template.Type{
		Name:        name,
		Description: "test template " + name,
		New: func() template.Template {
			return &StaticTemplate{TemplateName: name, Ops: ops}
		},
	}
}

// 🔌 FakeExtension is an in-memory extension
type FakeExtension struct {
	ExtName  string
	Types    []template.Type
	Criteria []extension.Criterion
}

var _ extension.Extension = (*FakeExtension)(nil)

func (e *FakeExtension) Name() string        { return e.ExtName }
func (e *FakeExtension) Description() string { return "fake extension " + e.ExtName }
func (e *FakeExtension) Version() string     { return "0.0.0-test" }

func (e *FakeExtension) Templates() []template.Type {
	return e.Types
}

func (e *FakeExtension) ResolutionCriteria() []extension.Criterion {
	return e.Criteria
}

// 🎯 Always returns a predicate with a fixed answer
func Always(ok bool) extension.Predicate {
	return func(context.Context, string) (bool, error) { return ok, nil }
}

// 🗂️ RegistryWith returns a registry holding ext
func RegistryWith(t testing.TB, ext extension.Extension) *extension.Registry {
	t.Helper()
	reg := extension.NewRegistry()
	require.NoError(t, reg.Register(ext), "registering extension")
	return reg
}

// SortedKeys returns the keys of m in order
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
