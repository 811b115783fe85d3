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

package extension

import (
	"bytes"
	"context"
	"io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📂 AllExist applies when every pattern matches at least one file
func AllExist(patterns ...string) Predicate {
	return func(ctx context.Context, appDir string) (bool, error) {
		for _, p := range patterns {
			ok, err := matchesAny(ctx, appDir, p)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// 📂 AnyExist applies when at least one pattern matches a file
func AnyExist(patterns ...string) Predicate {
	return func(ctx context.Context, appDir string) (bool, error) {
		for _, p := range patterns {
			ok, err := matchesAny(ctx, appDir, p)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// 🚫 NoneExist applies when no pattern matches any file
func NoneExist(patterns ...string) Predicate {
	anyExist := AnyExist(patterns...)
	return func(ctx context.Context, appDir string) (bool, error) {
		ok, err := anyExist(ctx, appDir)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// 🔎 FileContains applies when a file matching pattern contains substr
func FileContains(pattern, substr string) Predicate {
	return func(ctx context.Context, appDir string) (bool, error) {
		fsys := os.DirFS(appDir)
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return false, errors.Errorf("globbing %s: %w", pattern, err)
		}
		for _, m := range matches {
			content, err := fs.ReadFile(fsys, m)
			if err != nil {
				return false, errors.Errorf("reading %s: %w", m, err)
			}
			if bytes.Contains(content, []byte(substr)) {
				zerolog.Ctx(ctx).Debug().Str("file", m).Str("substr", substr).Msg("criterion matched content")
				return true, nil
			}
		}
		return false, nil
	}
}

// 🔗 And applies when every predicate applies
func And(preds ...Predicate) Predicate {
	return func(ctx context.Context, appDir string) (bool, error) {
		for _, p := range preds {
			ok, err := p(ctx, appDir)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

func matchesAny(ctx context.Context, appDir, pattern string) (bool, error) {
	if !doublestar.ValidatePattern(pattern) {
		return false, errors.Errorf("invalid pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(appDir), pattern)
	if err != nil {
		return false, errors.Errorf("globbing %s: %w", pattern, err)
	}
	zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Int("matches", len(matches)).Msg("evaluated criterion pattern")
	return len(matches) > 0, nil
}
