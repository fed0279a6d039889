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

func searchConfiguration(cfg *config.ToolConfig) foundry.SearchConfiguration {
	return foundry.SearchConfiguration{
		ConnectionID: cfg.ConnectionID,
		InstanceName: cfg.InstanceName,
		Count:        cfg.Count,
		Market:       cfg.Market,
		Freshness:    cfg.Freshness,
	}
}

func bingGrounding(_ *Builder, cfg *config.ToolConfig, _ *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	return &foundry.ToolDefinition{
		Type: config.ToolBingGrounding,
		BingGrounding: &foundry.BingSearch{
			SearchConfigurations: []foundry.SearchConfiguration{searchConfiguration(cfg)},
		},
	}, nil
}

func bingCustomSearch(_ *Builder, cfg *config.ToolConfig, _ *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	return &foundry.ToolDefinition{
		Type: config.ToolBingCustomSearch,
		BingCustomSearch: &foundry.BingSearch{
			SearchConfigurations: []foundry.SearchConfiguration{searchConfiguration(cfg)},
		},
	}, nil
}
