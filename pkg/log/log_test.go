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

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/butterfly/pkg/result"
	"github.com/walteh/butterfly/pkg/template"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_operations",
			op: func(t *testing.T, logger *Logger) {
				ctx := context.Background()
				logger.OperationFinished(ctx, "acme.Boot3", result.OperationResult{Operation: "bump-parent", Outcome: template.OutcomeApplied, Details: "2.7 -> 3.2"})
				logger.OperationFinished(ctx, "acme.Boot3", result.OperationResult{Operation: "ci", Outcome: template.OutcomeManualAction})
				logger.OperationFinished(ctx, "acme.Java21", result.OperationResult{Operation: "toolchain", Outcome: template.OutcomeSkipped})
			},
			wantLogs: []string{
				"[running acme.Boot3]",
				"✓ bump-parent                         applied        2.7 -> 3.2",
				"✋ ci                                  manual-action",
				"[running acme.Java21]",
				"- toolchain                           skipped",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("transforming /apps/foo")
			},
			wantLogs: []string{
				"butterfly • transforming /apps/foo",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.New(zerolog.TestWriter{T: t}))

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerCounts(t *testing.T) {
	logger := New(&bytes.Buffer{}, zerolog.Nop())
	ctx := context.Background()

	logger.OperationFinished(ctx, "t", result.OperationResult{Operation: "a", Outcome: template.OutcomeApplied})
	logger.OperationFinished(ctx, "t", result.OperationResult{Operation: "b", Outcome: template.OutcomeApplied})
	logger.OperationFinished(ctx, "t", result.OperationResult{Operation: "c", Outcome: template.OutcomeFailed})

	assert.Equal(t, map[string]int{"applied": 2, "failed": 1}, logger.Counts(), "counts should tally outcomes")
}

func TestLoggerResult(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := New(buf, zerolog.New(zerolog.TestWriter{T: t}))

	step := &result.StepResult{Template: "acme.Boot3", Operations: []result.OperationResult{{Operation: "a", Outcome: template.OutcomeApplied}}}
	r := result.NewBuilder("/apps/foo").AddStep(step).Build()

	require.NoError(t, logger.Result(r), "printing result should succeed")
	assert.Contains(t, buf.String(), "◆ /apps/foo • success", "summary header should be printed")
}

func TestLoggerContext(t *testing.T) {
	logger := New(&bytes.Buffer{}, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback, "missing logger should fall back")
	assert.NotPanics(t, func() { fallback.Info("dropped") }, "fallback logger should be usable")
}
