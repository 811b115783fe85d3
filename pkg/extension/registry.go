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
	"sort"
	"strings"
	"sync"

	"github.com/walteh/butterfly/pkg/template"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNilExtension       = errors.Base("extension is nil")
	ErrAlreadyRegistered  = errors.Base("an extension is already registered")
	ErrNoExtension        = errors.Base("no extension has been registered")
	ErrMultipleExtensions = errors.Base("multiple extensions have been registered")
	ErrTemplateNotFound   = errors.Base("template not found")
)

// 🗂️ Registry is a set-once holder for the process extension.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	ext       Extension
	conflicts []string
}

// 🏭 NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// 📝 Register stores ext if no extension is registered yet.
// A second registration is rejected and leaves the registry ambiguous.
func (r *Registry) Register(ext Extension) error {
	if ext == nil {
		return ErrNilExtension
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ext != nil {
		r.conflicts = append(r.conflicts, ext.Name())
		return errors.WithDetails(
			errors.Errorf("%w: %s, rejected %s", ErrAlreadyRegistered, r.ext.Name(), ext.Name()),
			"registered", r.ext.Name(),
			"rejected", ext.Name(),
		)
	}

	r.ext = ext
	return nil
}

// 🎯 Get returns the registered extension, or nil if none is registered.
// It fails if more than one registration was attempted.
func (r *Registry) Get() (Extension, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.conflicts) > 0 {
		names := append([]string{r.ext.Name()}, r.conflicts...)
		return nil, errors.Errorf("%w: %s", ErrMultipleExtensions, strings.Join(names, ", "))
	}
	return r.ext, nil
}

// 🔒 Require returns the registered extension and fails unless exactly one is registered
func (r *Registry) Require() (Extension, error) {
	ext, err := r.Get()
	if err != nil {
		return nil, err
	}
	if ext == nil {
		return nil, ErrNoExtension
	}
	return ext, nil
}

// 🔍 LookupTemplate finds a template type by its fully-qualified name
func (r *Registry) LookupTemplate(name string) (template.Type, error) {
	ext, err := r.Require()
	if err != nil {
		return template.Type{}, errors.Join(errors.Errorf("%w: %s", ErrTemplateNotFound, name), err)
	}

	known := make([]string, 0)
	for _, t := range ext.Templates() {
		if t.Name == name {
			if err := t.Validate(); err != nil {
				return template.Type{}, errors.Join(errors.Errorf("%w: %s", ErrTemplateNotFound, name), err)
			}
			return t, nil
		}
		known = append(known, t.Name)
	}

	sort.Strings(known)
	return template.Type{}, errors.WithDetails(
		errors.Errorf("%w: %s (known: %s)", ErrTemplateNotFound, name, strings.Join(known, ", ")),
		"known", known,
	)
}
