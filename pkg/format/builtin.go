// Copyright 2025 Kadir Pekel
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

// Package format builds agent response formats and checks them against
// their JSON Schemas.
package format

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

// TriageResult is the output of an agent that splits an email into the
// questions it asks and the issues it reports.
type TriageResult struct {
	Questions []string `json:"questions" jsonschema:"description=Questions asked in the email"`
	Issues    []string `json:"issues" jsonschema:"description=Problems reported in the email"`
}

// AnsweredQuestions pairs questions with answers and lists what could not be
// answered.
type AnsweredQuestions struct {
	AnsweredQuestions   []QuestionAnswer `json:"answered_questions"`
	UnansweredQuestions []Question       `json:"unanswered_questions"`
}

type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Question struct {
	Question string `json:"question"`
}

// AnswerResults is AnsweredQuestions keyed by question ID instead of text.
type AnswerResults struct {
	AnsweredQuestions   []AnswerByID `json:"answered_questions"`
	UnansweredQuestions []string     `json:"unanswered_questions" jsonschema:"description=IDs of questions without an answer"`
}

type AnswerByID struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

var builtins = map[string]any{
	"triage":             &TriageResult{},
	"answered_questions": &AnsweredQuestions{},
	"answer_results":     &AnswerResults{},
}

// Builtins lists the names accepted by response_format.builtin.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinSchema returns the JSON Schema of a built-in format.
func BuiltinSchema(name string) (json.RawMessage, error) {
	v, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin format %q (known: %v)", name, Builtins())
	}
	return Reflect(v)
}

// Reflect derives a self-contained JSON Schema from a Go value. Definitions
// are inlined and additional properties are disallowed, as strict structured
// output requires.
func Reflect(v any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(v)
	s.Version = ""
	s.ID = ""

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
