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

package extension_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/extension"
	"github.com/walteh/butterfly/pkg/template"
	"github.com/walteh/butterfly/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func TestRegistry(t *testing.T) {
	first := &testutils.FakeExtension{ExtName: "first"}
	second := &testutils.FakeExtension{ExtName: "second"}

	tests := []struct {
		name      string
		setup     func(t *testing.T, reg *extension.Registry)
		wantExt   extension.Extension
		wantErr   error
		wantCause error
	}{
		{
			name:    "empty_registry_returns_none",
			setup:   func(t *testing.T, reg *extension.Registry) {},
			wantExt: nil,
		},
		{
			name: "single_registration",
			setup: func(t *testing.T, reg *extension.Registry) {
				require.NoError(t, reg.Register(first), "first registration should succeed")
			},
			wantExt: first,
		},
		{
			name: "second_registration_is_rejected_and_poisons",
			setup: func(t *testing.T, reg *extension.Registry) {
				require.NoError(t, reg.Register(first), "first registration should succeed")
				err := reg.Register(second)
				require.Error(t, err, "second registration should fail")
				assert.True(t, errors.Is(err, extension.ErrAlreadyRegistered), "error should be ErrAlreadyRegistered")
			},
			wantErr: extension.ErrMultipleExtensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := extension.NewRegistry()
			tt.setup(t, reg)

			ext, err := reg.Get()
			if tt.wantErr != nil {
				require.Error(t, err, "get should fail")
				assert.True(t, errors.Is(err, tt.wantErr), "error should match %v", tt.wantErr)
				if tt.wantCause != nil {
					assert.True(t, errors.Is(err, tt.wantCause), "error should also match %v", tt.wantCause)
				}
				assert.Contains(t, err.Error(), "first", "error should name the registered extension")
				assert.Contains(t, err.Error(), "second", "error should name the rejected extension")
				return
			}
			require.NoError(t, err, "get should succeed")
			assert.Equal(t, tt.wantExt, ext, "registered extension should match")
		})
	}
}

func TestRegistryRequire(t *testing.T) {
	reg := extension.NewRegistry()
	_, err := reg.Require()
	require.Error(t, err, "require on empty registry should fail")
	assert.True(t, errors.Is(err, extension.ErrNoExtension), "error should be ErrNoExtension")

	require.ErrorIs(t, reg.Register(nil), extension.ErrNilExtension, "nil extension should be rejected")
}

func TestRegistryConcurrentRegister(t *testing.T) {
	reg := extension.NewRegistry()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = reg.Register(&testutils.FakeExtension{ExtName: "ext"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, extension.ErrAlreadyRegistered), "losers should be rejected")
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one registration should win")

	_, err := reg.Get()
	assert.True(t, errors.Is(err, extension.ErrMultipleExtensions), "registry should report the conflict")
}

func TestLookupTemplate(t *testing.T) {
	upgrade := testutils.NewType("acme.SpringBootUpgradeTemplate")
	ext := &testutils.FakeExtension{
		ExtName: "acme",
		Types:   []template.Type{upgrade, testutils.NewType("acme.JavaEEToSpringBoot")},
	}

	tests := []struct {
		name        string
		registry    *extension.Registry
		lookup      string
		wantErr     error
		wantCause   error
		errContains string
	}{
		{
			name:     "known_template",
			registry: testutils.RegistryWith(t, ext),
			lookup:   "acme.SpringBootUpgradeTemplate",
		},
		{
			name:        "unknown_template_lists_known",
			registry:    testutils.RegistryWith(t, ext),
			lookup:      "acme.Missing",
			wantErr:     extension.ErrTemplateNotFound,
			errContains: "acme.JavaEEToSpringBoot, acme.SpringBootUpgradeTemplate",
		},
		{
			name:        "no_extension",
			registry:    extension.NewRegistry(),
			lookup:      "acme.SpringBootUpgradeTemplate",
			wantErr:     extension.ErrTemplateNotFound,
			wantCause:   extension.ErrNoExtension,
			errContains: "no extension",
		},
		{
			name: "multiple_extensions",
			registry: func() *extension.Registry {
				reg := testutils.RegistryWith(t, ext)
				_ = reg.Register(&testutils.FakeExtension{ExtName: "other"})
				return reg
			}(),
			lookup:      "acme.SpringBootUpgradeTemplate",
			wantErr:     extension.ErrTemplateNotFound,
			wantCause:   extension.ErrMultipleExtensions,
			errContains: "acme, other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := tt.registry.LookupTemplate(tt.lookup)
			if tt.wantErr != nil {
				require.Error(t, err, "lookup should fail")
				assert.True(t, errors.Is(err, tt.wantErr), "error should match %v", tt.wantErr)
				if tt.wantCause != nil {
					assert.True(t, errors.Is(err, tt.wantCause), "error should also match %v", tt.wantCause)
				}
				assert.Contains(t, err.Error(), tt.errContains, "error should explain the failure")
				return
			}
			require.NoError(t, err, "lookup should succeed")
			assert.Equal(t, tt.lookup, typ.Name, "type name should match")
		})
	}
}
