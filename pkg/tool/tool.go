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

// Package tool turns manifest tool declarations into the tool descriptors
// the agent service expects.
//
// Each tool type has a Factory registered under its type name:
//
//	bing_grounding      web grounding through a Bing connection
//	bing_custom_search  grounding restricted to a custom search instance
//	openapi             an OpenAPI 3.0 document the agent may call
//	connected_agent     delegation to another agent of the project
//	code_interpreter    sandboxed code execution
//	file_search         retrieval over vector stores
package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

// AgentResolver maps a manifest agent key to the ID of its remote record.
type AgentResolver interface {
	AgentID(key string) (string, error)
}

// AgentResolverFunc adapts a function to AgentResolver.
type AgentResolverFunc func(key string) (string, error)

func (f AgentResolverFunc) AgentID(key string) (string, error) { return f(key) }

// Factory builds the descriptor for one tool declaration. Tools that need
// attached resources add them to res.
type Factory func(b *Builder, cfg *config.ToolConfig, res *foundry.ToolResources) (*foundry.ToolDefinition, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		config.ToolBingGrounding:    bingGrounding,
		config.ToolBingCustomSearch: bingCustomSearch,
		config.ToolOpenAPI:          openAPI,
		config.ToolConnectedAgent:   connectedAgent,
		config.ToolCodeInterpreter:  codeInterpreter,
		config.ToolFileSearch:       fileSearch,
	}
)

// Register adds or replaces the factory for a tool type.
func Register(toolType string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[toolType] = f
}

// Types lists the registered tool types.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookup(toolType string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[toolType]
	return f, ok
}

// Builder builds tool lists for the agents of one manifest. OpenAPI documents
// are parsed once per file.
type Builder struct {
	resolvePath func(string) string
	agents      AgentResolver

	mu    sync.Mutex
	specs map[string][]byte
}

// NewBuilder returns a Builder. resolvePath maps manifest-relative paths;
// agents resolves connected_agent references and may be nil when no tool
// uses them.
func NewBuilder(resolvePath func(string) string, agents AgentResolver) *Builder {
	if resolvePath == nil {
		resolvePath = func(p string) string { return p }
	}
	return &Builder{
		resolvePath: resolvePath,
		agents:      agents,
		specs:       make(map[string][]byte),
	}
}

// Build returns the descriptors for tools in declaration order, plus the tool
// resources they need (nil when none).
func (b *Builder) Build(tools []*config.ToolConfig) ([]foundry.ToolDefinition, *foundry.ToolResources, error) {
	defs := make([]foundry.ToolDefinition, 0, len(tools))
	res := &foundry.ToolResources{}

	for i, cfg := range tools {
		if cfg == nil {
			return nil, nil, fmt.Errorf("tools[%d]: empty tool", i)
		}
		factory, ok := lookup(cfg.Type)
		if !ok {
			return nil, nil, fmt.Errorf("tools[%d]: unknown tool type %q", i, cfg.Type)
		}
		def, err := factory(b, cfg, res)
		if err != nil {
			return nil, nil, fmt.Errorf("tools[%d] (%s): %w", i, cfg.Type, err)
		}
		defs = append(defs, *def)
	}

	if res.CodeInterpreter == nil && res.FileSearch == nil {
		res = nil
	}
	return defs, res, nil
}
