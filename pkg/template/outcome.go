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

package template

import (
	"encoding/json"
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 📊 Outcome classifies what happened when an operation was applied
type Outcome int

const (
	OutcomeApplied      Outcome = iota // Change was made
	OutcomeSkipped                     // Nothing to do, e.g. precondition already satisfied
	OutcomeFailed                      // Operation returned an error
	OutcomeManualAction                // Change cannot be automated
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeManualAction:
		return "manual-action"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ParseOutcome parses the string form of an Outcome
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "applied":
		return OutcomeApplied, nil
	case "skipped":
		return OutcomeSkipped, nil
	case "failed":
		return OutcomeFailed, nil
	case "manual-action":
		return OutcomeManualAction, nil
	}
	return 0, errors.Errorf("unknown outcome %q", s)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Errorf("decoding outcome: %w", err)
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// 📝 Result is what an operation reports after being applied
type Result struct {
	Outcome  Outcome
	Details  string            // Explanation, or guidance for manual actions
	Metadata map[string]string // Optional extra data, e.g. a diff
}

// Applied reports a change that was made
func Applied(details string) Result {
	return Result{Outcome: OutcomeApplied, Details: details}
}

// Skipped reports an operation that had nothing to do
func Skipped(details string) Result {
	return Result{Outcome: OutcomeSkipped, Details: details}
}

// ManualAction reports a change that needs a human to carry it out
func ManualAction(guidance string) Result {
	return Result{Outcome: OutcomeManualAction, Details: guidance}
}

// Failed reports a failure without an error value
func Failed(details string) Result {
	return Result{Outcome: OutcomeFailed, Details: details}
}

// WithMetadata returns a copy of r with key set to value
func (r Result) WithMetadata(key, value string) Result {
	md := make(map[string]string, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		md[k] = v
	}
	md[key] = value
	r.Metadata = md
	return r
}
