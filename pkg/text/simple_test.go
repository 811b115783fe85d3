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

package text

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantModified bool
	}{
		{
			name:         "simple_replacement",
			content:      "spring-boot 2.7.18",
			rules:        []ReplacementRule{{From: "2.7.18", To: "3.2.0"}},
			want:         "spring-boot 3.2.0",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:         "multiple_occurrences",
			content:      "javax.servlet javax.servlet",
			rules:        []ReplacementRule{{From: "javax.", To: "jakarta."}},
			want:         "jakarta.servlet jakarta.servlet",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "rules_chain",
			content: "a",
			rules: []ReplacementRule{
				{From: "a", To: "b"},
				{From: "b", To: "c"},
			},
			want:         "c",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:         "no_match",
			content:      "Hello World",
			rules:        []ReplacementRule{{From: "Goodbye", To: "Hi"}},
			want:         "Hello World",
			wantModified: false,
		},
		{
			name:         "identity_rule_is_ignored",
			content:      "Hello World",
			rules:        []ReplacementRule{{From: "World", To: "World"}},
			want:         "Hello World",
			wantModified: false,
		},
		{
			name:    "round_trip_is_not_a_modification",
			content: "x",
			rules: []ReplacementRule{
				{From: "x", To: "y"},
				{From: "y", To: "x"},
			},
			want:         "x",
			wantCount:    2,
			wantModified: false,
		},
		{
			name:         "empty_content",
			content:      "",
			rules:        []ReplacementRule{{From: "World", To: "Universe"}},
			want:         "",
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			want:         "Hello World",
			wantModified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewSimpleTextReplacer().ReplaceText(context.Background(), strings.NewReader(tt.content), tt.rules)
			require.NoError(t, err, "replacement should succeed")
			require.NotNil(t, result, "result should be returned")

			assert.Equal(t, tt.content, string(result.OriginalContent), "original should be kept")
			assert.Equal(t, tt.want, string(result.ModifiedContent), "modified content should match")
			assert.Equal(t, tt.wantCount, result.ReplacementCount, "replacement count should match")
			assert.Equal(t, tt.wantModified, result.WasModified, "modified flag should match")
		})
	}
}

func TestSimpleTextReplacer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimpleTextReplacer().ReplaceText(ctx, strings.NewReader("a"), []ReplacementRule{{From: "a", To: "b"}})
	assert.ErrorIs(t, err, context.Canceled, "cancelled context should stop replacement")
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
	}{
		{name: "valid_rules", rules: []ReplacementRule{{From: "foo", To: "bar", Files: "**/*.java"}}},
		{name: "any_file", rules: []ReplacementRule{{From: "foo", To: "bar"}}},
		{name: "missing_from", rules: []ReplacementRule{{To: "bar"}}, wantError: "rule 0: from is required"},
		{name: "bad_glob", rules: []ReplacementRule{{From: "a"}, {From: "foo", Files: "[oops"}}, wantError: "rule 1: invalid files pattern"},
		{name: "empty_rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSimpleTextReplacer().ValidateRules(tt.rules)
			if tt.wantError != "" {
				require.Error(t, err, "validation should fail")
				assert.Contains(t, err.Error(), tt.wantError, "error should name the rule")
				return
			}
			require.NoError(t, err, "validation should pass")
		})
	}
}

func TestReplacementRule_AppliesTo(t *testing.T) {
	tests := []struct {
		name  string
		files string
		path  string
		want  bool
	}{
		{name: "empty_matches_all", files: "", path: "pom.xml", want: true},
		{name: "nested_match", files: "**/*.java", path: "src/main/java/App.java", want: true},
		{name: "extension_mismatch", files: "**/*.java", path: "pom.xml", want: false},
		{name: "root_only", files: "*.xml", path: "module/pom.xml", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := ReplacementRule{From: "x", Files: tt.files}
			assert.Equal(t, tt.want, rule.AppliesTo(tt.path), "glob match should be correct")
		})
	}
}

func TestReplacementResult_Diff(t *testing.T) {
	result, err := NewSimpleTextReplacer().ReplaceText(context.Background(), strings.NewReader("Hello World\nbye\n"), []ReplacementRule{{From: "World", To: "Universe"}})
	require.NoError(t, err, "replacement should succeed")

	diff := result.Diff("greeting.txt")
	assert.Contains(t, diff, "--- a/greeting.txt", "diff should label the old file")
	assert.Contains(t, diff, "+++ b/greeting.txt", "diff should label the new file")
	assert.Contains(t, diff, "-Hello World", "diff should show the removed line")
	assert.Contains(t, diff, "+Hello Universe", "diff should show the added line")

	unchanged, err := NewSimpleTextReplacer().ReplaceText(context.Background(), strings.NewReader("same"), nil)
	require.NoError(t, err, "replacement should succeed")
	assert.Empty(t, unchanged.Diff("same.txt"), "unchanged content should have no diff")
}
