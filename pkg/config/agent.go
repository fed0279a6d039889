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
	"strings"
)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AgentConfig configures one hosted agent.
type AgentConfig struct {
	// Name is the display name of the agent on the service.
	Name        string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Agent Name,description=Display name (defaults to the manifest key),maxLength=256"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`

	// Model is the model deployment name in the project.
	Model string `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"title=Model,description=Model deployment name,default=gpt-4o"`

	// EnvKey is the env file key the agent ID is cached under.
	EnvKey string `yaml:"env_key,omitempty" json:"env_key,omitempty" jsonschema:"title=Env Key,description=Key the agent ID is cached under (defaults to <KEY>_AGENT_ID),pattern=^[A-Za-z_][A-Za-z0-9_]*$"`

	Instructions     string `yaml:"instructions,omitempty" json:"instructions,omitempty" jsonschema:"title=Instructions"`
	InstructionsFile string `yaml:"instructions_file,omitempty" json:"instructions_file,omitempty" jsonschema:"title=Instructions File,description=File to read instructions from (relative to the manifest)"`

	Temperature *float64          `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"title=Temperature,minimum=0,maximum=2"`
	TopP        *float64          `yaml:"top_p,omitempty" json:"top_p,omitempty" jsonschema:"title=Top P,minimum=0,maximum=1"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty" jsonschema:"title=Metadata"`

	Tools          []*ToolConfig         `yaml:"tools,omitempty" json:"tools,omitempty" jsonschema:"title=Tools"`
	ResponseFormat *ResponseFormatConfig `yaml:"response_format,omitempty" json:"response_format,omitempty" jsonschema:"title=Response Format"`
}

// SetDefaults fills unset fields. key is the manifest key of the agent.
func (a *AgentConfig) SetDefaults(key string) {
	if a.Name == "" {
		a.Name = key
	}
	if a.Model == "" {
		a.Model = DefaultModel
	}
	if a.EnvKey == "" {
		a.EnvKey = DefaultEnvKey(key)
	}
	for _, t := range a.Tools {
		if t != nil {
			t.SetDefaults()
		}
	}
	if a.ResponseFormat != nil {
		a.ResponseFormat.SetDefaults(key)
	}
}

// Validate checks the agent definition.
func (a *AgentConfig) Validate() error {
	var errs []error
	if !envKeyPattern.MatchString(a.EnvKey) {
		errs = append(errs, fmt.Errorf("env_key %q is not a valid variable name", a.EnvKey))
	}
	if a.Instructions != "" && a.InstructionsFile != "" {
		errs = append(errs, errors.New("instructions and instructions_file are mutually exclusive"))
	}
	if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %v", *a.Temperature))
	}
	if a.TopP != nil && (*a.TopP < 0 || *a.TopP > 1) {
		errs = append(errs, fmt.Errorf("top_p must be between 0 and 1, got %v", *a.TopP))
	}
	for i, t := range a.Tools {
		if t == nil {
			errs = append(errs, fmt.Errorf("tools[%d]: empty tool", i))
			continue
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tools[%d]: %w", i, err))
		}
	}
	if a.ResponseFormat != nil {
		if err := a.ResponseFormat.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("response_format: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Dependencies returns the manifest keys of agents this agent delegates to.
func (a *AgentConfig) Dependencies() []string {
	var deps []string
	for _, t := range a.Tools {
		if t != nil && t.Type == ToolConnectedAgent && t.Agent != "" {
			deps = append(deps, t.Agent)
		}
	}
	return deps
}

// DefaultEnvKey derives the env file key for a manifest key,
// e.g. "faq-to-json" becomes FAQ_TO_JSON_AGENT_ID.
func DefaultEnvKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "AGENT_ID"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name + "_AGENT_ID"
}
