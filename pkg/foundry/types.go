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

package foundry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Agent is an agent record as returned by the service.
type Agent struct {
	ID             string            `json:"id"`
	Object         string            `json:"object,omitempty"`
	CreatedAt      int64             `json:"created_at,omitempty"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Model          string            `json:"model"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// AgentRequest is the body of create and update calls. Update replaces every
// field it carries, so Tools is always sent, even when empty.
type AgentRequest struct {
	Model          string            `json:"model"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON keeps a nil tool list on the wire as [].
func (r AgentRequest) MarshalJSON() ([]byte, error) {
	type plain AgentRequest
	if r.Tools == nil {
		r.Tools = []ToolDefinition{}
	}
	return json.Marshal(plain(r))
}

// ToolDefinition is one entry of an agent's tool list. Exactly one of the
// pointer fields matching Type is set.
type ToolDefinition struct {
	Type             string           `json:"type"`
	BingGrounding    *BingSearch      `json:"bing_grounding,omitempty"`
	BingCustomSearch *BingSearch      `json:"bing_custom_search,omitempty"`
	OpenAPI          *OpenAPIFunction `json:"openapi,omitempty"`
	ConnectedAgent   *ConnectedAgent  `json:"connected_agent,omitempty"`
}

// BingSearch configures bing_grounding and bing_custom_search tools.
type BingSearch struct {
	SearchConfigurations []SearchConfiguration `json:"search_configurations"`
}

type SearchConfiguration struct {
	ConnectionID string `json:"connection_id"`
	InstanceName string `json:"instance_name,omitempty"`
	Count        int    `json:"count,omitempty"`
	Market       string `json:"market,omitempty"`
	Freshness    string `json:"freshness,omitempty"`
}

// OpenAPIFunction exposes the operations of an OpenAPI 3.0 document.
type OpenAPIFunction struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Spec          json.RawMessage `json:"spec"`
	Auth          OpenAPIAuth     `json:"auth"`
	DefaultParams []string        `json:"default_params,omitempty"`
}

type OpenAPIAuth struct {
	Type           string          `json:"type"`
	SecurityScheme *SecurityScheme `json:"security_scheme,omitempty"`
}

type SecurityScheme struct {
	ConnectionID string `json:"connection_id,omitempty"`
	Audience     string `json:"audience,omitempty"`
}

// ConnectedAgent delegates to another agent in the same project.
type ConnectedAgent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolResources carries the files and stores used by built-in tools.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResource `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResource      `json:"file_search,omitempty"`
}

type CodeInterpreterResource struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

type FileSearchResource struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// Response format types.
const (
	ResponseFormatAuto       = "auto"
	ResponseFormatText       = "text"
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// ResponseFormat is either the bare string "auto" or an object with a type.
type ResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

type JSONSchemaFormat struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      *bool           `json:"strict,omitempty"`
}

// AutoResponseFormat lets the service choose; sending it on update clears a
// previously configured schema.
func AutoResponseFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatAuto}
}

func (f ResponseFormat) MarshalJSON() ([]byte, error) {
	if f.Type == ResponseFormatAuto {
		return []byte(`"auto"`), nil
	}
	type plain ResponseFormat
	return json.Marshal(plain(f))
}

func (f *ResponseFormat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = ResponseFormat{Type: s}
		return nil
	}
	type plain ResponseFormat
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode response_format: %w", err)
	}
	*f = ResponseFormat(p)
	return nil
}

// AgentList is one page of ListAgents.
type AgentList struct {
	Object  string  `json:"object"`
	Data    []Agent `json:"data"`
	FirstID string  `json:"first_id,omitempty"`
	LastID  string  `json:"last_id,omitempty"`
	HasMore bool    `json:"has_more"`
}

// DeletionStatus is returned by DeleteAgent.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Deleted bool   `json:"deleted"`
}
