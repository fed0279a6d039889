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
	"fmt"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

func connectedAgent(b *Builder, cfg *config.ToolConfig, _ *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	id := cfg.AgentID
	if id == "" {
		if b.agents == nil {
			return nil, fmt.Errorf("cannot resolve connected agent %q: no resolver", cfg.Agent)
		}
		var err error
		id, err = b.agents.AgentID(cfg.Agent)
		if err != nil {
			return nil, fmt.Errorf("resolve connected agent %q: %w", cfg.Agent, err)
		}
	}

	return &foundry.ToolDefinition{
		Type: config.ToolConnectedAgent,
		ConnectedAgent: &foundry.ConnectedAgent{
			ID:          id,
			Name:        cfg.Name,
			Description: cfg.Description,
		},
	}, nil
}
