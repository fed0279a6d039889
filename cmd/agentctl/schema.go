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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/format"
)

// SchemaCmd prints the JSON Schema of the manifest, for editor completion
// and validation.
type SchemaCmd struct {
	Compact bool   `help:"Compact JSON output (no indentation)."`
	Builtin string `help:"Print the schema of a built-in response format instead." placeholder:"NAME"`
}

func (c *SchemaCmd) Run(a *app) error {
	if c.Builtin != "" {
		schema, err := format.BuiltinSchema(c.Builtin)
		if err != nil {
			return err
		}
		return c.write(a, schema)
	}

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/supportbuddy/agentctl/schemas/agents.json"
	schema.Title = "agentctl manifest"
	schema.Description = "Agents to provision on an Azure AI Foundry project"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []any{
		map[string]any{
			"project": map[string]any{"endpoint": "${PROJECT_ENDPOINT}"},
			"agents": map[string]any{
				"triage": map[string]any{
					"name":            "Triage Agent",
					"model":           "gpt-4.1",
					"instructions":    "Break the email into questions and issues.",
					"response_format": map[string]any{"builtin": "triage"},
				},
			},
		},
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return c.write(a, data)
}

func (c *SchemaCmd) write(a *app, data []byte) error {
	if c.Compact {
		_, err := fmt.Fprintln(a.stdout, string(data))
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return printJSON(a.stdout, v)
}
