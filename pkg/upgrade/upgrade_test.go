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

package upgrade

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/stage"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

var fixed = time.Date(2024, 1, 1, 12, 0, 0, 123*int(time.Millisecond), time.UTC)

func fixedClock() time.Time { return fixed }

// 🔧 MockStager is a mock implementation of the Stager interface
type MockStager struct {
	mock.Mock
}

func (m *MockStager) Stage(ctx context.Context, appDir string, cfg *config.Configuration) (string, error) {
	args := m.Called(ctx, appDir, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockStager) Finalize(ctx context.Context, workDir string, cfg *config.Configuration) (string, error) {
	args := m.Called(ctx, workDir, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockStager) Discard(ctx context.Context, appDir, workDir string) error {
	args := m.Called(ctx, appDir, workDir)
	return args.Error(0)
}

func readLines(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	return string(data)
}

func TestNewPath(t *testing.T) {
	a := testutils.NewType("acme.Upgrade1To2")
	b := testutils.NewType("acme.Upgrade2To3")

	p, err := NewPath(a, b)
	require.NoError(t, err, "path should build")
	assert.Equal(t, 2, p.Len(), "length should match")
	assert.Equal(t, []string{"acme.Upgrade1To2", "acme.Upgrade2To3"}, p.Names(), "names should keep order")

	_, err = NewPath()
	assert.ErrorIs(t, err, ErrEmptyPath, "empty path should be rejected")

	_, err = NewPath(a, template.Type{Name: "broken"})
	assert.ErrorIs(t, err, ErrInvalidStep, "step without constructor should be rejected")
	assert.Contains(t, err.Error(), "step 2", "error should name the step")
}

func TestPathIsImmutable(t *testing.T) {
	p, err := NewPathOfSteps(Step{Type: testutils.NewType("a"), From: "1", To: "2"})
	require.NoError(t, err, "path should build")

	steps := p.Steps()
	steps[0].Type.Name = "changed"
	assert.Equal(t, []string{"a"}, p.Names(), "steps copy should not leak")

	longer, err := p.Then(Step{Type: testutils.NewType("b"), From: "2"})
	require.NoError(t, err, "then should build")
	assert.Equal(t, 1, p.Len(), "original path should be unchanged")
	assert.Equal(t, "a (1 -> 2) => b (2 -> ?)", longer.String(), "new path should be extended")

	_, err = p.Then(Step{})
	assert.ErrorIs(t, err, ErrInvalidStep, "invalid step should be rejected")
}

func TestRunChainsSteps(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	app := filepath.Join(root, "foo")
	testutils.WriteTree(t, app, map[string]string{"log.txt": "start\n"})

	var thirdSaw string
	observe := &testutils.FuncOperation{OpName: "observe", Fn: func(_ context.Context, workDir string) (template.Result, error) {
		data, err := os.ReadFile(filepath.Join(workDir, "log.txt"))
		if err != nil {
			return template.Result{}, err
		}
		thirdSaw = string(data)
		return template.Applied("observed"), nil
	}}

	path, err := NewPath(
		testutils.NewType("acme.Step1", testutils.AppendOp("one", "log.txt", "step one")),
		testutils.NewType("acme.Step2", testutils.FailingOp("two")),
		testutils.NewType("acme.Step3", observe, testutils.AppendOp("three", "log.txt", "step three")),
	)
	require.NoError(t, err, "path should build")

	res, err := NewRunner(WithClock(fixedClock)).Run(ctx, path, app, config.NewWithZip(false))
	require.NoError(t, err, "a failed step is not an invocation error")

	assert.False(t, res.Success(), "overall success should be the AND of steps")
	require.Len(t, res.Steps(), 3, "every step should be recorded")
	assert.True(t, res.Steps()[0].Success(), "first step should succeed")
	assert.False(t, res.Steps()[1].Success(), "second step should fail")
	assert.True(t, res.Steps()[2].Success(), "third step should still run")
	assert.Equal(t, "start\nstep one\n", thirdSaw, "third step should see the output of earlier steps")

	want := filepath.Join(root, "foo-transformed-20240101120000123")
	assert.Equal(t, want, res.Output(), "output should be the finalized working copy")
	assert.Equal(t, "start\nstep one\nstep three\n", readLines(t, filepath.Join(want, "log.txt")), "working copy should carry every step")
	assert.Equal(t, "start\n", readLines(t, filepath.Join(app, "log.txt")), "original should be untouched")
	assert.Equal(t, []string{"acme.Step1", "acme.Step2", "acme.Step3"}, res.Templates(), "template chain should be recorded")
}

func TestRunAllSkipped(t *testing.T) {
	ctx := testutils.Context(t)
	app := filepath.Join(t.TempDir(), "foo")
	testutils.WriteTree(t, app, map[string]string{"pom.xml": "<project/>"})

	path, err := NewPath(
		testutils.NewType("acme.Step1", testutils.SkippedOp("a")),
		testutils.NewType("acme.Step2", testutils.SkippedOp("b")),
	)
	require.NoError(t, err, "path should build")

	res, err := NewRunner().Run(ctx, path, app, config.New())
	require.NoError(t, err, "run should succeed")
	assert.True(t, res.Success(), "skipped operations are not failures")
	assert.Equal(t, app, res.Output(), "in place output should be the application")
}

func TestRunDiscardPartial(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	app := filepath.Join(root, "foo")
	testutils.WriteTree(t, app, map[string]string{"pom.xml": "<project/>"})

	path, err := NewPath(testutils.NewType("acme.Step1", testutils.FailingOp("a")))
	require.NoError(t, err, "path should build")

	cfg := config.NewWithZip(true, config.WithFailurePolicy(config.DiscardPartial))
	res, err := NewRunner(WithClock(fixedClock)).Run(ctx, path, app, cfg)
	require.NoError(t, err, "discarding is not an invocation error")
	assert.False(t, res.Success(), "run should fail")
	assert.Empty(t, res.Output(), "nothing should be produced")

	entries, err := os.ReadDir(root)
	require.NoError(t, err, "reading root")
	assert.Len(t, entries, 1, "only the application should remain")
}

func TestRunFinalizePartialByDefault(t *testing.T) {
	ctx := testutils.Context(t)
	root := t.TempDir()
	app := filepath.Join(root, "foo")
	testutils.WriteTree(t, app, map[string]string{"pom.xml": "<project/>"})

	path, err := NewPath(testutils.NewType("acme.Step1", testutils.FailingOp("a")))
	require.NoError(t, err, "path should build")

	res, err := NewRunner(WithClock(fixedClock)).Run(ctx, path, app, config.NewWithZip(true))
	require.NoError(t, err, "run should complete")
	assert.False(t, res.Success(), "run should fail")
	assert.Equal(t, filepath.Join(root, "foo-transformed-20240101120000123.zip"), res.Output(), "partial result should still be zipped")
	assert.FileExists(t, res.Output(), "archive should exist")
}

func TestRunCancelledDiscardsWorkingCopy(t *testing.T) {
	ctx, cancel := context.WithCancel(testutils.Context(t))
	defer cancel()

	root := t.TempDir()
	app := filepath.Join(root, "foo")
	testutils.WriteTree(t, app, map[string]string{"pom.xml": "<project/>"})

	stopper := &testutils.FuncOperation{OpName: "stopper", Fn: func(context.Context, string) (template.Result, error) {
		cancel()
		return template.Applied("stopped"), nil
	}}
	path, err := NewPath(
		testutils.NewType("acme.Step1", stopper, testutils.AppliedOp("never")),
		testutils.NewType("acme.Step2", testutils.AppliedOp("never")),
	)
	require.NoError(t, err, "path should build")

	res, err := NewRunner(WithClock(fixedClock)).Run(ctx, path, app, config.NewWithZip(false))
	require.Error(t, err, "cancellation should be an invocation error")
	assert.ErrorIs(t, err, ErrInterrupted, "error should be an interruption")
	assert.ErrorIs(t, err, context.Canceled, "cause should be kept")
	require.NotNil(t, res, "a result should still be returned")
	assert.False(t, res.Success(), "interrupted run should fail")
	assert.Len(t, res.Steps(), 1, "later steps should not run")
	assert.NoDirExists(t, filepath.Join(root, "foo-transformed-20240101120000123"), "working copy should be discarded")
}

func TestRunStagerErrors(t *testing.T) {
	cfg := config.NewWithZip(true)
	path, err := NewPath(testutils.NewType("acme.Step1", testutils.AppliedOp("a")))
	require.NoError(t, err, "path should build")

	t.Run("stage_failure", func(t *testing.T) {
		ctx := testutils.Context(t)
		st := &MockStager{}
		st.On("Stage", mock.Anything, "/apps/foo", cfg).Return("", stage.ErrStaging).Once()

		res, err := NewRunner(WithStager(st)).Run(ctx, path, "/apps/foo", cfg)
		assert.ErrorIs(t, err, stage.ErrStaging, "staging error should be returned")
		assert.False(t, res.Success(), "result should fail")
		assert.Empty(t, res.Steps(), "no step should run")
		st.AssertExpectations(t)
	})

	t.Run("finalize_failure_discards", func(t *testing.T) {
		ctx := testutils.Context(t)
		workDir := t.TempDir()
		st := &MockStager{}
		st.On("Stage", mock.Anything, "/apps/foo", cfg).Return(workDir, nil).Once()
		st.On("Finalize", mock.Anything, workDir, cfg).Return("", errors.New("disk full")).Once()
		st.On("Discard", mock.Anything, "/apps/foo", workDir).Return(nil).Once()

		res, err := NewRunner(WithStager(st)).Run(ctx, path, "/apps/foo", cfg)
		require.Error(t, err, "finalize error should be returned")
		assert.Contains(t, err.Error(), "disk full", "cause should be kept")
		assert.False(t, res.Success(), "result should fail")
		assert.Equal(t, err, res.Err(), "result should carry the error")
		assert.Len(t, res.Steps(), 1, "the step should still be recorded")
		st.AssertExpectations(t)
	})
}
