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

// Package resolver picks the single template that applies to an application folder
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrInvalidApplication  = errors.Base("invalid application folder")
	ErrNoTemplateResolved  = errors.Base("no template resolved")
	ErrAmbiguousResolution = errors.Base("ambiguous resolution")
)

// ❗ ResolutionError explains why no single template could be chosen
type ResolutionError struct {
	Reason     error    // One of the package or extension sentinels
	Extension  string   // Extension that was asked, if any
	Inspected  []string // Every template whose criteria were evaluated
	Candidates []string // Templates that reported applicable
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Extension != "" {
		fmt.Fprintf(&b, " (extension %s)", e.Extension)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, ": candidates %s", strings.Join(e.Candidates, ", "))
	} else if e.Inspected != nil {
		if len(e.Inspected) == 0 {
			b.WriteString(": extension provides no resolution criteria")
		} else {
			fmt.Fprintf(&b, ": inspected %s", strings.Join(e.Inspected, ", "))
		}
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Reason
}

// 🔍 Resolve returns the one template whose criteria apply to appDir.
// Every criterion is evaluated, none are short-circuited.
func Resolve(ctx context.Context, reg *extension.Registry, appDir string) (template.Type, error) {
	logger := zerolog.Ctx(ctx)

	appDir, err := ApplicationFolder(appDir)
	if err != nil {
		return template.Type{}, err
	}

	ext, err := reg.Require()
	if err != nil {
		return template.Type{}, &ResolutionError{Reason: err}
	}

	criteria := ext.ResolutionCriteria()
	inspected := make([]string, 0, len(criteria))
	var matched []template.Type

	for _, c := range criteria {
		inspected = append(inspected, c.Template.Name)
		if c.Applies == nil {
			return template.Type{}, errors.Errorf("criterion for %s has no predicate", c.Template.Name)
		}

		ok, err := c.Applies(ctx, appDir)
		if err != nil {
			return template.Type{}, errors.WithDetails(
				errors.Errorf("evaluating criteria for %s: %w", c.Template.Name, err),
				"template", c.Template.Name,
			)
		}

		logger.Debug().Str("template", c.Template.Name).Bool("applies", ok).Msg("evaluated resolution criterion")
		if ok {
			matched = append(matched, c.Template)
		}
	}

	sort.Strings(inspected)

	switch len(matched) {
	case 0:
		return template.Type{}, &ResolutionError{
			Reason:    ErrNoTemplateResolved,
			Extension: ext.Name(),
			Inspected: inspected,
		}
	case 1:
		if err := matched[0].Validate(); err != nil {
			return template.Type{}, errors.Errorf("resolved template: %w", err)
		}
		logger.Info().Str("template", matched[0].Name).Str("extension", ext.Name()).Msg("template resolved")
		return matched[0], nil
	default:
		candidates := template.Names(matched)
		sort.Strings(candidates)
		return template.Type{}, &ResolutionError{
			Reason:     ErrAmbiguousResolution,
			Extension:  ext.Name(),
			Inspected:  inspected,
			Candidates: candidates,
		}
	}
}

// 📂 ApplicationFolder checks dir and returns it absolute and cleaned
func ApplicationFolder(dir string) (string, error) {
	if err := CheckApplicationFolder(dir); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Join(errors.Errorf("%w: %s", ErrInvalidApplication, dir), err)
	}
	return abs, nil
}

// CheckApplicationFolder fails unless dir is an existing directory
func CheckApplicationFolder(dir string) error {
	if dir == "" {
		return errors.Errorf("%w: path is empty", ErrInvalidApplication)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Join(errors.Errorf("%w: %s", ErrInvalidApplication, dir), err)
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s is not a directory", ErrInvalidApplication, dir)
	}
	return nil
}
