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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidArgument is returned for bad output folders and conflicting flags
var ErrInvalidArgument = errors.Base("invalid configuration")

// 🧯 FailurePolicy decides what happens to the working copy when a run has failed operations
type FailurePolicy int

const (
	FinalizePartial FailurePolicy = iota // Keep and finalize the partially transformed copy
	DiscardPartial                       // Remove the working copy instead of finalizing it
)

// String returns a string representation of FailurePolicy
func (p FailurePolicy) String() string {
	switch p {
	case FinalizePartial:
		return "finalize"
	case DiscardPartial:
		return "discard"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseFailurePolicy parses "finalize" or "discard", empty means finalize
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(s) {
	case "", "finalize":
		return FinalizePartial, nil
	case "discard":
		return DiscardPartial, nil
	}
	return 0, errors.Errorf("%w: unknown failure policy %q", ErrInvalidArgument, s)
}

// ⚙️ Configuration decides where a transformation writes its output.
// It is immutable once built.
type Configuration struct {
	modifyOriginal   bool
	outputFolder     string
	zipOutput        bool
	failurePolicy    FailurePolicy
	keepUncompressed bool
	timeout          time.Duration
	exclude          []string
}

// 🔧 Option sets an optional policy on a Configuration
type Option func(*Configuration)

// WithFailurePolicy sets what happens to the working copy of a failed run
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Configuration) { c.failurePolicy = p }
}

// WithKeepUncompressed keeps the transformed folder next to the zip file
func WithKeepUncompressed(keep bool) Option {
	return func(c *Configuration) { c.keepUncompressed = keep }
}

// WithTimeout bounds the whole invocation
func WithTimeout(d time.Duration) Option {
	return func(c *Configuration) { c.timeout = d }
}

// WithExclude skips files matching the doublestar patterns when copying
func WithExclude(patterns ...string) Option {
	return func(c *Configuration) { c.exclude = append([]string(nil), patterns...) }
}

// 🏭 New returns a configuration that transforms the original folder in place
func New(opts ...Option) *Configuration {
	return build(Configuration{modifyOriginal: true}, opts)
}

// 🏭 NewWithZip returns a configuration that writes a new folder next to the
// original, named "<name>-transformed-yyyyMMddHHmmssSSS", optionally zipped
func NewWithZip(zip bool, opts ...Option) *Configuration {
	return build(Configuration{zipOutput: zip}, opts)
}

// 🏭 NewWithOutputFolder returns a configuration that writes the transformed
// folder inside outputFolder, which must exist and be a directory
func NewWithOutputFolder(outputFolder string, zip bool, opts ...Option) (*Configuration, error) {
	if outputFolder == "" {
		return nil, errors.Errorf("%w: output folder is required", ErrInvalidArgument)
	}
	abs, err := filepath.Abs(outputFolder)
	if err != nil {
		return nil, errors.Errorf("%w: resolving output folder: %s", ErrInvalidArgument, err.Error())
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Errorf("%w: output folder %s: %s", ErrInvalidArgument, abs, err.Error())
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%w: output folder %s is not a directory", ErrInvalidArgument, abs)
	}
	return build(Configuration{outputFolder: abs, zipOutput: zip}, opts), nil
}

func build(c Configuration, opts []Option) *Configuration {
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// ModifyOriginalFolder reports whether the application folder is changed in place
func (c *Configuration) ModifyOriginalFolder() bool { return c.modifyOriginal }

// OutputFolder returns the caller-given output folder, empty for the sibling default
func (c *Configuration) OutputFolder() string { return c.outputFolder }

// ZipOutput reports whether the transformed folder is compressed
func (c *Configuration) ZipOutput() bool { return c.zipOutput }

// FailurePolicy returns the policy for failed runs
func (c *Configuration) FailurePolicy() FailurePolicy { return c.failurePolicy }

// KeepUncompressed reports whether the folder is kept after zipping
func (c *Configuration) KeepUncompressed() bool { return c.keepUncompressed }

// Timeout returns the invocation timeout, zero means none
func (c *Configuration) Timeout() time.Duration { return c.timeout }

// Exclude returns the copy exclusion patterns
func (c *Configuration) Exclude() []string { return append([]string(nil), c.exclude...) }

// 🔍 Validate checks that the flags do not conflict
func (c *Configuration) Validate() error {
	if c.modifyOriginal {
		if c.outputFolder != "" {
			return errors.Errorf("%w: modifying the original folder cannot use an output folder", ErrInvalidArgument)
		}
		if c.zipOutput {
			return errors.Errorf("%w: modifying the original folder cannot be zipped", ErrInvalidArgument)
		}
		if len(c.exclude) > 0 {
			return errors.Errorf("%w: exclude patterns require a copy of the application", ErrInvalidArgument)
		}
		if c.failurePolicy == DiscardPartial {
			return errors.Errorf("%w: the original folder cannot be discarded", ErrInvalidArgument)
		}
	}
	if c.keepUncompressed && !c.zipOutput {
		return errors.Errorf("%w: keep uncompressed requires zip output", ErrInvalidArgument)
	}
	if c.timeout < 0 {
		return errors.Errorf("%w: timeout must not be negative", ErrInvalidArgument)
	}
	for _, p := range c.exclude {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("%w: invalid exclude pattern %q", ErrInvalidArgument, p)
		}
	}
	if c.failurePolicy != FinalizePartial && c.failurePolicy != DiscardPartial {
		return errors.Errorf("%w: unknown failure policy %d", ErrInvalidArgument, int(c.failurePolicy))
	}
	return nil
}

// 📝 String returns a string representation of the configuration
func (c *Configuration) String() string {
	switch {
	case c.modifyOriginal:
		return "in place"
	case c.outputFolder != "":
		return fmt.Sprintf("output folder %s (zip=%t)", c.outputFolder, c.zipOutput)
	default:
		return fmt.Sprintf("new sibling folder (zip=%t)", c.zipOutput)
	}
}
