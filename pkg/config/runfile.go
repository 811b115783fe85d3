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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📚 RunFile describes one transformation run
type RunFile struct {
	Application string      `json:"application" yaml:"application" toml:"application" hcl:"application" validate:"required"`
	Extension   string      `json:"extension,omitempty" yaml:"extension,omitempty" toml:"extension,omitempty" hcl:"extension,optional"`
	Template    string      `json:"template,omitempty" yaml:"template,omitempty" toml:"template,omitempty" hcl:"template,optional" validate:"required_without=Upgrade,excluded_with=Upgrade"`
	Upgrade     []string    `json:"upgrade,omitempty" yaml:"upgrade,omitempty" toml:"upgrade,omitempty" hcl:"upgrade,optional" validate:"required_without=Template,dive,required"`
	Output      *OutputArgs `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty" hcl:"output,block"`

	location string
}

// 📦 OutputArgs describes where the transformed application goes
type OutputArgs struct {
	InPlace          bool     `json:"in_place,omitempty" yaml:"in_place,omitempty" toml:"in_place,omitempty" hcl:"in_place,optional"`
	Folder           string   `json:"folder,omitempty" yaml:"folder,omitempty" toml:"folder,omitempty" hcl:"folder,optional" validate:"excluded_with=InPlace"`
	Zip              bool     `json:"zip,omitempty" yaml:"zip,omitempty" toml:"zip,omitempty" hcl:"zip,optional" validate:"excluded_with=InPlace"`
	KeepUncompressed bool     `json:"keep_uncompressed,omitempty" yaml:"keep_uncompressed,omitempty" toml:"keep_uncompressed,omitempty" hcl:"keep_uncompressed,optional"`
	OnFailure        string   `json:"on_failure,omitempty" yaml:"on_failure,omitempty" toml:"on_failure,omitempty" hcl:"on_failure,optional" validate:"omitempty,oneof=finalize discard"`
	Exclude          []string `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty" hcl:"exclude,optional"`
	Timeout          string   `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty" hcl:"timeout,optional"`
}

var validate = validator.New()

// 🎯 LoadRunFile loads a run file from path.
// The format is determined by the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .toml for TOML
// - .hcl for HCL
// - .butterfly will try both YAML and HCL formats
func LoadRunFile(ctx context.Context, path string) (*RunFile, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading run file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading run file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving run file path: %w", err)
	}

	var rf *RunFile
	if strings.EqualFold(filepath.Ext(path), ".butterfly") {
		rf, err = parseAny(ctx, data, abs, ".yaml", ".hcl")
	} else {
		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(path))
		}
		rf, err = p.Parse(ctx, data, abs)
	}
	if err != nil {
		return nil, err
	}

	rf.location = abs
	if err := rf.Validate(); err != nil {
		return nil, errors.Errorf("validating run file: %w", err)
	}
	return rf, nil
}

func parseAny(ctx context.Context, data []byte, filename string, exts ...string) (*RunFile, error) {
	var errs []error
	for _, ext := range exts {
		p := GetParser("x" + ext)
		if p == nil {
			continue
		}
		rf, err := p.Parse(ctx, data, filename)
		if err == nil {
			return rf, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Errorf("failed to parse %s as %s: %w", filepath.Base(filename), strings.Join(exts, " or "), errors.Join(errs...))
}

// 🔍 Validate checks struct constraints and that timeouts and policies parse
func (rf *RunFile) Validate() error {
	if err := validate.Struct(rf); err != nil {
		return errors.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if rf.Output != nil {
		if _, err := ParseFailurePolicy(rf.Output.OnFailure); err != nil {
			return err
		}
		if rf.Output.Timeout != "" {
			if _, err := time.ParseDuration(rf.Output.Timeout); err != nil {
				return errors.Errorf("%w: timeout: %s", ErrInvalidArgument, err.Error())
			}
		}
	}
	return nil
}

// Location returns the absolute path the run file was loaded from
func (rf *RunFile) Location() string {
	return rf.location
}

// 📂 ApplicationPath returns the application folder, resolved against the run file directory
func (rf *RunFile) ApplicationPath() string {
	return rf.resolve(rf.Application)
}

// 📂 ExtensionPath returns the extension manifest path, empty if unset
func (rf *RunFile) ExtensionPath() string {
	if rf.Extension == "" {
		return ""
	}
	return rf.resolve(rf.Extension)
}

func (rf *RunFile) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || rf.location == "" {
		return p
	}
	return filepath.Join(filepath.Dir(rf.location), p)
}

// ⚙️ Configuration converts the output section into a Configuration.
// A missing output section means a new sibling folder.
func (rf *RunFile) Configuration() (*Configuration, error) {
	out := rf.Output
	if out == nil {
		return NewWithZip(false), nil
	}

	policy, err := ParseFailurePolicy(out.OnFailure)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithFailurePolicy(policy), WithKeepUncompressed(out.KeepUncompressed)}
	if len(out.Exclude) > 0 {
		opts = append(opts, WithExclude(out.Exclude...))
	}
	if out.Timeout != "" {
		d, err := time.ParseDuration(out.Timeout)
		if err != nil {
			return nil, errors.Errorf("%w: timeout: %s", ErrInvalidArgument, err.Error())
		}
		opts = append(opts, WithTimeout(d))
	}

	var cfg *Configuration
	switch {
	case out.InPlace:
		cfg = New(opts...)
	case out.Folder != "":
		cfg, err = NewWithOutputFolder(rf.resolve(out.Folder), out.Zip, opts...)
		if err != nil {
			return nil, err
		}
	default:
		cfg = NewWithZip(out.Zip, opts...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
