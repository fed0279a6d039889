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

package tool

import (
	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

func codeInterpreter(_ *Builder, cfg *config.ToolConfig, res *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	if len(cfg.FileIDs) > 0 {
		if res.CodeInterpreter == nil {
			res.CodeInterpreter = &foundry.CodeInterpreterResource{}
		}
		res.CodeInterpreter.FileIDs = appendUnique(res.CodeInterpreter.FileIDs, cfg.FileIDs...)
	}
	return &foundry.ToolDefinition{Type: config.ToolCodeInterpreter}, nil
}

func fileSearch(_ *Builder, cfg *config.ToolConfig, res *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	if len(cfg.VectorStoreIDs) > 0 {
		if res.FileSearch == nil {
			res.FileSearch = &foundry.FileSearchResource{}
		}
		res.FileSearch.VectorStoreIDs = appendUnique(res.FileSearch.VectorStoreIDs, cfg.VectorStoreIDs...)
	}
	return &foundry.ToolDefinition{Type: config.ToolFileSearch}, nil
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}
