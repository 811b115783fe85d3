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
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🗂️ workspace reads and writes files relative to a working copy
type workspace struct {
	baseDir string
	fsys    fs.FS
}

func newWorkspace(baseDir string) *workspace {
	return &workspace{baseDir: baseDir, fsys: os.DirFS(baseDir)}
}

// 🔒 absPath returns the absolute path for a slash separated relative path
func (w *workspace) absPath(rel string) string {
	return filepath.Join(w.baseDir, filepath.FromSlash(rel))
}

// 🔍 glob returns the files (or, with dirs, also directories) matching pattern
func (w *workspace) glob(pattern string, dirs bool) ([]string, error) {
	opts := []doublestar.GlobOption{}
	if !dirs {
		opts = append(opts, doublestar.WithFilesOnly())
	}
	matches, err := doublestar.Glob(w.fsys, pattern, opts...)
	if err != nil {
		return nil, errors.Errorf("globbing %s: %w", pattern, err)
	}
	return matches, nil
}

func (w *workspace) read(rel string) ([]byte, fs.FileMode, error) {
	abs := w.absPath(rel)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, 0, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, 0, errors.Errorf("reading %s: %w", rel, err)
	}
	return content, info.Mode().Perm(), nil
}

// writeAtomic writes content next to the target and renames it into place
func (w *workspace) writeAtomic(rel string, content []byte, perm fs.FileMode) error {
	abs := w.absPath(rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("setting mode on temp file: %w", err)
	}
	if err := os.Rename(tmpPath, abs); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (w *workspace) remove(rel string) error {
	if err := os.RemoveAll(w.absPath(rel)); err != nil {
		return errors.Errorf("removing %s: %w", rel, err)
	}
	return nil
}

// 🔍 checksum generates a SHA-256 hash of the content
func checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
