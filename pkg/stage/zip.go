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
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// zipTree writes every file under dir into archive with paths relative to dir.
// The archive only appears once it is complete.
func zipTree(ctx context.Context, dir, archive string) (files int, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(archive), ".butterfly-*.zip.tmp")
	if err != nil {
		return 0, errors.Errorf("creating temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Errorf("relativizing %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.Errorf("stat %s: %w", path, err)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return errors.Errorf("building header for %s: %w", path, err)
		}
		header.Name = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return errors.Errorf("reading link %s: %w", path, err)
			}
			w, err := zw.CreateHeader(header)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, filepath.ToSlash(link)); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			header.Method = zip.Deflate
			w, err := zw.CreateHeader(header)
			if err != nil {
				return err
			}
			if err := writeInto(w, path); err != nil {
				return err
			}
		default:
			return nil
		}
		files++
		return nil
	})
	if err != nil {
		return files, err
	}

	if err := zw.Close(); err != nil {
		return files, errors.Errorf("closing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return files, errors.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmpName, archive); err != nil {
		return files, errors.Errorf("moving archive into place: %w", err)
	}
	return files, nil
}

func writeInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return errors.Errorf("compressing %s: %w", path, err)
	}
	return nil
}
