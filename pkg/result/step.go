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

package result

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/walteh/butterfly/pkg/template"
)

// 📋 OperationResult records what a single operation did
type OperationResult struct {
	Operation   string
	Description string
	Outcome     template.Outcome
	Details     string
	Metadata    map[string]string
	Duration    time.Duration
	// Err is set when the operation returned an error or panicked
	Err error
}

// 🎯 Failed reports whether the operation failed
func (o OperationResult) Failed() bool {
	return o.Outcome == template.OutcomeFailed
}

func (o OperationResult) clone() OperationResult {
	o.Metadata = maps.Clone(o.Metadata)
	return o
}

type operationJSON struct {
	Operation   string            `json:"operation"`
	Description string            `json:"description,omitempty"`
	Outcome     template.Outcome  `json:"outcome"`
	Details     string            `json:"details,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	DurationMS  int64             `json:"duration_ms"`
	Error       string            `json:"error,omitempty"`
}

func (o OperationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(operationJSON{
		Operation:   o.Operation,
		Description: o.Description,
		Outcome:     o.Outcome,
		Details:     o.Details,
		Metadata:    o.Metadata,
		DurationMS:  o.Duration.Milliseconds(),
		Error:       errString(o.Err),
	})
}

// 📦 StepResult records one template execution against a working copy
type StepResult struct {
	Template   string
	WorkDir    string
	Operations []OperationResult
	Started    time.Time
	Duration   time.Duration
	// Err is set when the step stopped early, for example on cancellation
	Err error
}

// ✅ Success reports whether no operation failed and the step ran to completion
func (s *StepResult) Success() bool {
	if s == nil || s.Err != nil {
		return false
	}
	for _, op := range s.Operations {
		if op.Failed() {
			return false
		}
	}
	return true
}

// 🔢 Count returns how many operations ended with outcome
func (s *StepResult) Count(outcome template.Outcome) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, op := range s.Operations {
		if op.Outcome == outcome {
			n++
		}
	}
	return n
}

// ✋ ManualActions returns the operations that need manual follow up
func (s *StepResult) ManualActions() []OperationResult {
	return s.filter(template.OutcomeManualAction)
}

// ❌ Failures returns the failed operations
func (s *StepResult) Failures() []OperationResult {
	return s.filter(template.OutcomeFailed)
}

func (s *StepResult) filter(outcome template.Outcome) []OperationResult {
	if s == nil {
		return nil
	}
	var out []OperationResult
	for _, op := range s.Operations {
		if op.Outcome == outcome {
			out = append(out, op.clone())
		}
	}
	return out
}

func (s *StepResult) clone() *StepResult {
	if s == nil {
		return nil
	}
	c := *s
	c.Operations = make([]OperationResult, len(s.Operations))
	for i, op := range s.Operations {
		c.Operations[i] = op.clone()
	}
	return &c
}

type stepJSON struct {
	Template   string            `json:"template"`
	WorkDir    string            `json:"work_dir,omitempty"`
	Success    bool              `json:"success"`
	Operations []OperationResult `json:"operations"`
	Started    time.Time         `json:"started"`
	DurationMS int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
}

func (s *StepResult) MarshalJSON() ([]byte, error) {
	ops := s.Operations
	if ops == nil {
		ops = []OperationResult{}
	}
	return json.Marshal(stepJSON{
		Template:   s.Template,
		WorkDir:    s.WorkDir,
		Success:    s.Success(),
		Operations: ops,
		Started:    s.Started,
		DurationMS: s.Duration.Milliseconds(),
		Error:      errString(s.Err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
