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

package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Response format types.
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

var schemaNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ResponseFormatConfig declares the structured output of an agent.
//
// For json_schema exactly one of Builtin, Schema or SchemaFile supplies the
// schema.
type ResponseFormatConfig struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"title=Type,enum=text,enum=json_object,enum=json_schema"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Schema Name,pattern=^[a-zA-Z0-9_-]+$,maxLength=64"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`
	Strict      *bool  `yaml:"strict,omitempty" json:"strict,omitempty" jsonschema:"title=Strict"`

	Builtin    string         `yaml:"builtin,omitempty" json:"builtin,omitempty" jsonschema:"title=Builtin Schema,description=Name of a schema shipped with agentctl"`
	Schema     map[string]any `yaml:"schema,omitempty" json:"schema,omitempty" jsonschema:"title=Schema,description=Inline JSON Schema"`
	SchemaFile string         `yaml:"schema_file,omitempty" json:"schema_file,omitempty" jsonschema:"title=Schema File,description=JSON Schema file relative to the manifest"`

	// Examples are sample outputs checked against the schema during validation.
	Examples []any `yaml:"examples,omitempty" json:"examples,omitempty" jsonschema:"title=Examples"`
}

// HasSchema reports whether a schema source is set.
func (r *ResponseFormatConfig) HasSchema() bool {
	return r.Builtin != "" || len(r.Schema) > 0 || r.SchemaFile != ""
}

// SetDefaults fills unset fields. key is the manifest key of the owning agent.
func (r *ResponseFormatConfig) SetDefaults(key string) {
	if r.Type == "" {
		if r.HasSchema() {
			r.Type = FormatJSONSchema
		} else {
			r.Type = FormatText
		}
	}
	if r.Type == FormatJSONSchema && r.Name == "" {
		if r.Builtin != "" {
			r.Name = r.Builtin
		} else {
			r.Name = key
		}
	}
}

// Validate checks the response format.
func (r *ResponseFormatConfig) Validate() error {
	sources := 0
	for _, set := range []bool{r.Builtin != "", len(r.Schema) > 0, r.SchemaFile != ""} {
		if set {
			sources++
		}
	}

	switch r.Type {
	case FormatText, FormatJSONObject:
		if sources > 0 {
			return fmt.Errorf("type %s does not take a schema", r.Type)
		}
		if len(r.Examples) > 0 {
			return fmt.Errorf("type %s does not take examples", r.Type)
		}
	case FormatJSONSchema:
		if sources != 1 {
			return errors.New("json_schema requires exactly one of builtin, schema or schema_file")
		}
		if !schemaNamePattern.MatchString(r.Name) {
			return fmt.Errorf("name %q must match %s", r.Name, schemaNamePattern)
		}
	default:
		return fmt.Errorf("unknown type %q", r.Type)
	}
	return nil
}
