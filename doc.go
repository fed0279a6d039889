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

// Package agentctl provisions hosted agents on an Azure AI Foundry project
// from a declarative manifest.
//
// # Quick Start
//
// Describe the agents in agents.yaml:
//
//	project:
//	  endpoint: ${PROJECT_ENDPOINT}
//	agents:
//	  triage:
//	    name: Triage Agent
//	    model: gpt-4.1
//	    instructions_file: prompts/triage.md
//	    response_format:
//	      builtin: triage
//	  support:
//	    name: Customer Support Agent
//	    model: gpt-4.1
//	    tools:
//	      - type: connected_agent
//	        agent: triage
//	        name: TriageAgent
//	        description: Breaks an email into questions and issues
//
// Create or update them:
//
//	agentctl apply -c agents.yaml
//
// The first apply creates each agent and appends its ID to the env file
// (TRIAGE_AGENT_ID=asst_...). Later applies update the same agents in place.
//
// # Using as Go Library
//
//	cfg, loader, err := config.LoadConfigFile(ctx, "agents.yaml")
//	...
//	client, err := foundry.NewClient(cfg.Project.Endpoint, foundry.WithAuthorizer(auth))
//	...
//	results, err := provision.New(cfg, client, envfile.New(".env")).Apply(ctx)
//
// Packages:
//   - pkg/config: manifest types, loading and validation
//   - pkg/envfile: append-only cache of agent IDs
//   - pkg/foundry: Agent Service REST client
//   - pkg/tool: tool descriptors, including OpenAPI documents
//   - pkg/format: response formats and their JSON Schemas
//   - pkg/provision: create-or-update of manifest agents
package agentctl
