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

package format

import (
	"encoding/json"
	"fmt"
	"os"

	kjsonschema "github.com/kaptinlin/jsonschema"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

// PathResolver maps a manifest-relative path to a usable one.
type PathResolver func(string) string

// Build turns a manifest response format into its wire form. A nil cfg yields
// "auto" so that updating an agent clears a schema removed from the manifest.
func Build(cfg *config.ResponseFormatConfig, resolve PathResolver) (*foundry.ResponseFormat, error) {
	if cfg == nil {
		return foundry.AutoResponseFormat(), nil
	}

	switch cfg.Type {
	case config.FormatText:
		return &foundry.ResponseFormat{Type: foundry.ResponseFormatText}, nil
	case config.FormatJSONObject:
		return &foundry.ResponseFormat{Type: foundry.ResponseFormatJSONObject}, nil
	case config.FormatJSONSchema:
	default:
		return nil, fmt.Errorf("unknown response format type %q", cfg.Type)
	}

	schema, err := Schema(cfg, resolve)
	if err != nil {
		return nil, err
	}
	if err := ValidateExamples(schema, cfg.Examples); err != nil {
		return nil, err
	}

	return &foundry.ResponseFormat{
		Type: foundry.ResponseFormatJSONSchema,
		JSONSchema: &foundry.JSONSchemaFormat{
			Name:        cfg.Name,
			Description: cfg.Description,
			Schema:      schema,
			Strict:      cfg.Strict,
		},
	}, nil
}

// Schema loads the schema of a json_schema response format and checks that
// it compiles.
func Schema(cfg *config.ResponseFormatConfig, resolve PathResolver) (json.RawMessage, error) {
	var (
		raw json.RawMessage
		err error
	)
	switch {
	case cfg.Builtin != "":
		raw, err = BuiltinSchema(cfg.Builtin)
	case len(cfg.Schema) > 0:
		raw, err = json.Marshal(cfg.Schema)
	case cfg.SchemaFile != "":
		raw, err = readSchemaFile(resolvePath(resolve, cfg.SchemaFile))
	default:
		return nil, fmt.Errorf("response format %q has no schema", cfg.Name)
	}
	if err != nil {
		return nil, err
	}

	if _, err := compile(raw); err != nil {
		return nil, fmt.Errorf("response format %q: %w", cfg.Name, err)
	}
	return raw, nil
}

// ValidateExamples checks every example against schema.
func ValidateExamples(schema json.RawMessage, examples []any) error {
	if len(examples) == 0 {
		return nil
	}
	compiled, err := compile(schema)
	if err != nil {
		return err
	}
	for i, example := range examples {
		instance, err := normalize(example)
		if err != nil {
			return fmt.Errorf("examples[%d]: %w", i, err)
		}
		result := compiled.Validate(instance)
		if !result.IsValid() {
			return fmt.Errorf("examples[%d] does not match schema: %s", i, result.Error())
		}
	}
	return nil
}

func compile(schema json.RawMessage) (*kjsonschema.Schema, error) {
	compiled, err := kjsonschema.NewCompiler().Compile([]byte(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return compiled, nil
}

// normalize converts YAML-decoded values into plain JSON types.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readSchemaFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_file: %w", err)
	}
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("schema_file %s is not JSON: %w", path, err)
	}
	compact, err := json.Marshal(probe)
	if err != nil {
		return nil, err
	}
	return compact, nil
}

func resolvePath(resolve PathResolver, p string) string {
	if resolve == nil {
		return p
	}
	return resolve(p)
}
