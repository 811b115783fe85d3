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

// Package log prints transformation progress to the console and mirrors it to zerolog
package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/butterfly/pkg/operation"
	"github.com/walteh/butterfly/pkg/result"
)

// 🎨 Display configuration
const (
	opIndent     = 4  // spaces to indent operation entries
	nameWidth    = 35 // Base width for operation name
	outcomeWidth = 15 // Width for outcome text
)

var _ operation.Observer = (*Logger)(nil)

// 🎯 Logger handles console output with a structured log mirror
type Logger struct {
	zlog        zerolog.Logger
	console     io.Writer
	mu          sync.Mutex
	currentTmpl string
	counts      map[string]int
}

// 🏭 New creates a new logger printing to console and mirroring to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		counts:  map[string]int{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or one that discards everything
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, zerolog.Nop())
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatOperation formats an operation record for display
func formatOperation(op result.OperationResult) string {
	symbol, symbolColor := result.Symbol(op.Outcome)

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", opIndent, ""),
		color.New(symbolColor).Sprint(symbol),
		fmt.Sprintf("%-*s", nameWidth, op.Operation),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", outcomeWidth, op.Outcome)))
	if op.Details != "" {
		line += color.New(color.Faint).Sprint(op.Details)
	}
	return line
}

// 📝 OperationFinished prints one operation record, with a template header when the template changes
func (l *Logger) OperationFinished(ctx context.Context, templateName string, op result.OperationResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if templateName != l.currentTmpl {
		l.currentTmpl = templateName
		fmt.Fprintf(l.console, "[running %s]\n", color.New(color.FgCyan).Sprint(templateName))
	}
	l.counts[op.Outcome.String()]++

	fmt.Fprintln(l.console, formatOperation(op))

	ev := l.zlog.Info()
	if op.Failed() {
		ev = l.zlog.Warn().AnErr("cause", op.Err)
	}
	ev.Str("template", templateName).
		Str("operation", op.Operation).
		Str("outcome", op.Outcome.String()).
		Dur("duration", op.Duration).
		Msg("operation finished")
}

// 📊 Counts returns how many operations were reported per outcome name
func (l *Logger) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// 📝 Result prints the summary of a finished invocation
func (l *Logger) Result(r *result.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentTmpl = ""
	l.zlog.Info().
		Str("id", r.ID().String()).
		Str("application", r.Application()).
		Bool("success", r.Success()).
		Str("output", r.Output()).
		Msg("transformation finished")
	return r.Format(l.console)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("butterfly")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}
