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

// Package result holds the immutable record of a transformation invocation
package result

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/walteh/butterfly/pkg/config"
	"github.com/walteh/butterfly/pkg/template"
)

// 📊 Result is the outcome of one transformation invocation.
// It cannot be changed once built; every accessor returns a copy.
type Result struct {
	id          uuid.UUID
	application string
	extension   string
	templates   []string
	cfg         *config.Configuration
	steps       []*StepResult
	success     bool
	output      string
	started     time.Time
	finished    time.Time
	err         error
}

func (r *Result) ID() uuid.UUID                        { return r.id }
func (r *Result) Application() string                  { return r.application }
func (r *Result) Extension() string                    { return r.extension }
func (r *Result) Configuration() *config.Configuration { return r.cfg }
func (r *Result) Success() bool                        { return r.success }
func (r *Result) Started() time.Time                   { return r.started }
func (r *Result) Finished() time.Time                  { return r.finished }
func (r *Result) Duration() time.Duration              { return r.finished.Sub(r.started) }

// 📁 Output is the transformed folder or archive, empty when nothing was produced
func (r *Result) Output() string { return r.output }

// Err is the invocation level error, if any
func (r *Result) Err() error { return r.err }

// Templates returns the template chain in execution order
func (r *Result) Templates() []string {
	return append([]string(nil), r.templates...)
}

// Steps returns one StepResult per executed template
func (r *Result) Steps() []*StepResult {
	out := make([]*StepResult, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.clone()
	}
	return out
}

// 🔢 Count returns how many operations across all steps ended with outcome
func (r *Result) Count(outcome template.Outcome) int {
	n := 0
	for _, s := range r.steps {
		n += s.Count(outcome)
	}
	return n
}

// Outcomes tallies every outcome seen across all steps
func (r *Result) Outcomes() map[template.Outcome]int {
	out := map[template.Outcome]int{}
	for _, s := range r.steps {
		for _, op := range s.Operations {
			out[op.Outcome]++
		}
	}
	return out
}

// ✋ ManualActions returns every operation that needs manual follow up
func (r *Result) ManualActions() []OperationResult {
	var out []OperationResult
	for _, s := range r.steps {
		out = append(out, s.ManualActions()...)
	}
	return out
}

// ❌ Failures returns every failed operation
func (r *Result) Failures() []OperationResult {
	var out []OperationResult
	for _, s := range r.steps {
		out = append(out, s.Failures()...)
	}
	return out
}

type resultJSON struct {
	ID            string         `json:"id"`
	Application   string         `json:"application"`
	Extension     string         `json:"extension,omitempty"`
	Templates     []string       `json:"templates"`
	Configuration string         `json:"configuration,omitempty"`
	Success       bool           `json:"success"`
	Output        string         `json:"output,omitempty"`
	Started       time.Time      `json:"started"`
	Finished      time.Time      `json:"finished"`
	Outcomes      map[string]int `json:"outcomes"`
	Steps         []*StepResult  `json:"steps"`
	Error         string         `json:"error,omitempty"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	outcomes := map[string]int{}
	for o, n := range r.Outcomes() {
		outcomes[o.String()] = n
	}
	cfg := ""
	if r.cfg != nil {
		cfg = r.cfg.String()
	}
	steps := r.steps
	if steps == nil {
		steps = []*StepResult{}
	}
	templates := r.templates
	if templates == nil {
		templates = []string{}
	}
	return json.Marshal(resultJSON{
		ID:            r.id.String(),
		Application:   r.application,
		Extension:     r.extension,
		Templates:     templates,
		Configuration: cfg,
		Success:       r.success,
		Output:        r.output,
		Started:       r.started,
		Finished:      r.finished,
		Outcomes:      outcomes,
		Steps:         steps,
		Error:         errString(r.err),
	})
}

// 🏗️ Builder accumulates a Result while an invocation runs.
// It is not safe for concurrent use.
type Builder struct {
	r   Result
	now func() time.Time
}

// 🏭 NewBuilder starts a result for application at the current time
func NewBuilder(application string) *Builder {
	return NewBuilderWithClock(application, time.Now)
}

// NewBuilderWithClock is NewBuilder with an explicit clock
func NewBuilderWithClock(application string, now func() time.Time) *Builder {
	return &Builder{
		r: Result{
			id:          uuid.New(),
			application: application,
			started:     now(),
		},
		now: now,
	}
}

func (b *Builder) Extension(name string) *Builder {
	b.r.extension = name
	return b
}

func (b *Builder) Configuration(cfg *config.Configuration) *Builder {
	b.r.cfg = cfg
	return b
}

func (b *Builder) Templates(names ...string) *Builder {
	b.r.templates = append([]string(nil), names...)
	return b
}

// AddStep appends a step result; nil steps are ignored
func (b *Builder) AddStep(step *StepResult) *Builder {
	if step != nil {
		b.r.steps = append(b.r.steps, step.clone())
	}
	return b
}

func (b *Builder) Output(location string) *Builder {
	b.r.output = location
	return b
}

func (b *Builder) Err(err error) *Builder {
	b.r.err = err
	return b
}

// StepsSucceeded reports whether at least one step ran and every step succeeded
func (b *Builder) StepsSucceeded() bool {
	if len(b.r.steps) == 0 {
		return false
	}
	for _, s := range b.r.steps {
		if !s.Success() {
			return false
		}
	}
	return true
}

// 🧊 Build freezes the result. Success is true only when every step
// succeeded and no invocation error was recorded.
func (b *Builder) Build() *Result {
	r := b.r
	r.finished = b.now()
	r.success = r.err == nil && b.StepsSucceeded()
	r.templates = append([]string(nil), b.r.templates...)
	r.steps = make([]*StepResult, len(b.r.steps))
	for i, s := range b.r.steps {
		r.steps[i] = s.clone()
	}
	return &r
}
