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
)

// Tool types understood by the agent service.
const (
	ToolBingGrounding    = "bing_grounding"
	ToolBingCustomSearch = "bing_custom_search"
	ToolOpenAPI          = "openapi"
	ToolConnectedAgent   = "connected_agent"
	ToolCodeInterpreter  = "code_interpreter"
	ToolFileSearch       = "file_search"
)

// OpenAPI auth types.
const (
	OpenAPIAuthAnonymous       = "anonymous"
	OpenAPIAuthConnection      = "connection"
	OpenAPIAuthManagedIdentity = "managed_identity"
)

// ToolConfig declares one tool binding. Which fields apply depends on Type.
type ToolConfig struct {
	Type string `yaml:"type" json:"type" jsonschema:"required,title=Tool Type,enum=bing_grounding,enum=bing_custom_search,enum=openapi,enum=connected_agent,enum=code_interpreter,enum=file_search"`

	// bing_grounding, bing_custom_search
	ConnectionID string `yaml:"connection_id,omitempty" json:"connection_id,omitempty" jsonschema:"title=Connection ID,description=Project connection resource ID"`
	InstanceName string `yaml:"instance_name,omitempty" json:"instance_name,omitempty" jsonschema:"title=Instance Name,description=Custom search configuration name"`
	Count        int    `yaml:"count,omitempty" json:"count,omitempty" jsonschema:"title=Result Count,minimum=0,maximum=50"`
	Market       string `yaml:"market,omitempty" json:"market,omitempty" jsonschema:"title=Market"`
	Freshness    string `yaml:"freshness,omitempty" json:"freshness,omitempty" jsonschema:"title=Freshness"`

	// openapi, connected_agent
	Name        string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Tool Name,pattern=^[a-zA-Z0-9_-]+$"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`

	// openapi
	SpecFile      string             `yaml:"spec_file,omitempty" json:"spec_file,omitempty" jsonschema:"title=Spec File,description=OpenAPI 3.0 document (JSON or YAML) relative to the manifest"`
	Auth          *OpenAPIAuthConfig `yaml:"auth,omitempty" json:"auth,omitempty" jsonschema:"title=Auth"`
	DefaultParams []string           `yaml:"default_params,omitempty" json:"default_params,omitempty" jsonschema:"title=Default Params,description=Parameters whose spec defaults are always sent"`

	// connected_agent
	Agent   string `yaml:"agent,omitempty" json:"agent,omitempty" jsonschema:"title=Agent,description=Manifest key of the agent to delegate to"`
	AgentID string `yaml:"agent_id,omitempty" json:"agent_id,omitempty" jsonschema:"title=Agent ID,description=Literal ID of an agent not managed by this manifest"`

	// code_interpreter
	FileIDs []string `yaml:"file_ids,omitempty" json:"file_ids,omitempty" jsonschema:"title=File IDs"`

	// file_search
	VectorStoreIDs []string `yaml:"vector_store_ids,omitempty" json:"vector_store_ids,omitempty" jsonschema:"title=Vector Store IDs"`
}

// OpenAPIAuthConfig configures how the service authenticates OpenAPI calls.
type OpenAPIAuthConfig struct {
	Type         string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"title=Auth Type,enum=anonymous,enum=connection,enum=managed_identity,default=anonymous"`
	ConnectionID string `yaml:"connection_id,omitempty" json:"connection_id,omitempty" jsonschema:"title=Connection ID"`
	Audience     string `yaml:"audience,omitempty" json:"audience,omitempty" jsonschema:"title=Audience"`
}

// SetDefaults fills unset fields.
func (t *ToolConfig) SetDefaults() {
	if t.Type == ToolOpenAPI {
		if t.Auth == nil {
			t.Auth = &OpenAPIAuthConfig{}
		}
		if t.Auth.Type == "" {
			if t.Auth.ConnectionID != "" {
				t.Auth.Type = OpenAPIAuthConnection
			} else {
				t.Auth.Type = OpenAPIAuthAnonymous
			}
		}
	}
}

// Validate checks the fields required by the tool type.
func (t *ToolConfig) Validate() error {
	switch t.Type {
	case ToolBingGrounding:
		if t.ConnectionID == "" {
			return errors.New("bing_grounding requires connection_id")
		}
	case ToolBingCustomSearch:
		if t.ConnectionID == "" || t.InstanceName == "" {
			return errors.New("bing_custom_search requires connection_id and instance_name")
		}
	case ToolOpenAPI:
		if t.Name == "" {
			return errors.New("openapi requires name")
		}
		if t.SpecFile == "" {
			return errors.New("openapi requires spec_file")
		}
		if t.Auth != nil {
			if err := t.Auth.Validate(); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	case ToolConnectedAgent:
		if (t.Agent == "") == (t.AgentID == "") {
			return errors.New("connected_agent requires exactly one of agent or agent_id")
		}
		if t.Name == "" || t.Description == "" {
			return errors.New("connected_agent requires name and description")
		}
	case ToolCodeInterpreter, ToolFileSearch:
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown tool type %q", t.Type)
	}
	return nil
}

// Validate checks the auth settings.
func (a *OpenAPIAuthConfig) Validate() error {
	switch a.Type {
	case OpenAPIAuthAnonymous, "":
	case OpenAPIAuthConnection:
		if a.ConnectionID == "" {
			return errors.New("connection auth requires connection_id")
		}
	case OpenAPIAuthManagedIdentity:
		if a.Audience == "" {
			return errors.New("managed_identity auth requires audience")
		}
	default:
		return fmt.Errorf("unknown auth type %q", a.Type)
	}
	return nil
}
