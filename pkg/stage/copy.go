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

package stage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// copyTree deep copies src into the existing folder dst and returns the number of files copied.
// Paths matching an exclude pattern (relative, slash separated) are skipped.
func copyTree(ctx context.Context, src, dst string, exclude []string) (int, error) {
	logger := zerolog.Ctx(ctx)

	absDst, err := filepath.Abs(dst)
	if err != nil {
		return 0, errors.Errorf("resolving %s: %w", dst, err)
	}

	files := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relativizing %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		if abs, err := filepath.Abs(path); err == nil && abs == absDst {
			// the working copy may live inside the application when an output folder points there
			return fs.SkipDir
		}

		slashRel := filepath.ToSlash(rel)
		if excluded(slashRel, exclude) {
			logger.Debug().Str("path", slashRel).Msg("excluded from working copy")
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return errors.Errorf("stat %s: %w", path, err)
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return errors.Errorf("reading link %s: %w", path, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return errors.Errorf("creating link %s: %w", target, err)
			}
			files++
		case d.IsDir():
			if err := os.Mkdir(target, info.Mode().Perm()|0o700); err != nil {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
		case info.Mode().IsRegular():
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
			files++
		default:
			logger.Debug().Str("path", slashRel).Str("mode", info.Mode().String()).Msg("skipping irregular file")
		}
		return nil
	})
	if err != nil {
		return files, err
	}
	return files, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
