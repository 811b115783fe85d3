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

// Package stage prepares the working copy a transformation mutates and finalizes it afterwards
package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// ErrStaging wraps every failure to prepare or finalize a working copy
var ErrStaging = errors.Base("staging failed")

// maxNameAttempts bounds the timestamp bumps used to find a free folder name
const maxNameAttempts = 1000

// 🏗️ Manager creates and finalizes working copies
type Manager struct {
	now       func() time.Time
	removeAll func(string) error
}

// 🔧 ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithClock overrides the clock used for folder names
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// 🏭 NewManager creates a staging manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{now: time.Now, removeAll: os.RemoveAll}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// 📝 TimestampName returns "<name>-transformed-yyyyMMddHHmmssSSS"
func TimestampName(name string, t time.Time) string {
	return fmt.Sprintf("%s-transformed-%s%03d", name, t.Format("20060102150405"), t.Nanosecond()/int(time.Millisecond))
}

// 📦 Stage returns the folder operations should mutate.
// In place that is appDir itself, otherwise a fresh deep copy.
func (m *Manager) Stage(ctx context.Context, appDir string, cfg *config.Configuration) (string, error) {
	logger := zerolog.Ctx(ctx)

	abs, err := filepath.Abs(appDir)
	if err != nil {
		return "", errors.Join(errors.Errorf("%w: resolving %s", ErrStaging, appDir), err)
	}
	appDir = abs

	if cfg.ModifyOriginalFolder() {
		logger.Debug().Str("app", appDir).Msg("modifying original folder in place")
		return appDir, nil
	}

	parent := cfg.OutputFolder()
	if parent == "" {
		parent = filepath.Dir(appDir)
	} else if err := checkDir(parent); err != nil {
		return "", err
	}

	workDir, err := m.reserve(parent, filepath.Base(appDir), cfg.ZipOutput())
	if err != nil {
		return "", err
	}

	files, err := copyTree(ctx, appDir, workDir, cfg.Exclude())
	if err != nil {
		if rmErr := m.removeAll(workDir); rmErr != nil {
			logger.Error().Err(rmErr).Str("dir", workDir).Msg("removing partial working copy")
			err = errors.Join(err, rmErr)
		}
		return "", errors.Join(errors.Errorf("%w: copying %s", ErrStaging, appDir), err)
	}

	logger.Info().Str("app", appDir).Str("work_dir", workDir).Int("files", files).Msg("staged working copy")
	return workDir, nil
}

// reserve creates an empty uniquely named folder under parent.
// With zip set the matching archive name must be free too.
func (m *Manager) reserve(parent, name string, zip bool) (string, error) {
	ts := m.now()
	for i := 0; i < maxNameAttempts; i++ {
		dir := filepath.Join(parent, TimestampName(name, ts))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			if _, statErr := os.Lstat(dir + ".zip"); !zip || os.IsNotExist(statErr) {
				return dir, nil
			}
			if err := os.Remove(dir); err != nil {
				return "", errors.Join(errors.Errorf("%w: releasing %s", ErrStaging, dir), err)
			}
		} else if !os.IsExist(err) {
			return "", errors.Join(errors.Errorf("%w: creating %s", ErrStaging, dir), err)
		}
		ts = ts.Add(time.Millisecond)
	}
	return "", errors.Errorf("%w: no free folder name for %s in %s", ErrStaging, name, parent)
}

// 🏁 Finalize turns the working copy into the final output and returns its location
func (m *Manager) Finalize(ctx context.Context, workDir string, cfg *config.Configuration) (string, error) {
	logger := zerolog.Ctx(ctx)

	if !cfg.ZipOutput() {
		return workDir, nil
	}

	archive := workDir + ".zip"
	files, err := zipTree(ctx, workDir, archive)
	if err != nil {
		return "", errors.Join(errors.Errorf("%w: zipping %s", ErrStaging, workDir), err)
	}

	// a failed result leaves no archive behind
	if !cfg.KeepUncompressed() {
		if err := m.removeAll(workDir); err != nil {
			err = errors.Join(errors.Errorf("%w: removing uncompressed copy %s", ErrStaging, workDir), err)
			if rmErr := os.Remove(archive); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Error().Err(rmErr).Str("archive", archive).Msg("removing archive")
				err = errors.Join(err, rmErr)
			}
			return "", err
		}
	}

	logger.Info().Str("archive", archive).Int("files", files).Msg("compressed working copy")
	return archive, nil
}

// 🗑️ Discard removes a working copy. It never removes appDir.
func (m *Manager) Discard(ctx context.Context, appDir, workDir string) error {
	if workDir == "" || samePath(workDir, appDir) {
		return nil
	}
	zerolog.Ctx(ctx).Info().Str("work_dir", workDir).Msg("discarding working copy")
	if err := m.removeAll(workDir); err != nil {
		return errors.Join(errors.Errorf("%w: discarding %s", ErrStaging, workDir), err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Join(errors.Errorf("%w: %s", config.ErrInvalidArgument, dir), err)
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s is not a directory", config.ErrInvalidArgument, dir)
	}
	return nil
}
