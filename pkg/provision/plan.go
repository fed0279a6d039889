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

package provision

import (
	"errors"
	"fmt"

	"github.com/supportbuddy/agentctl/pkg/foundry"
	"github.com/supportbuddy/agentctl/pkg/tool"
)

// PendingID stands in for the identifier of an agent that a dry run would
// create.
func PendingID(key string) string {
	return fmt.Sprintf("<pending:%s>", key)
}

// Plan is what Apply would do for one agent.
type Plan struct {
	Key     string                `json:"key"`
	EnvKey  string                `json:"env_key"`
	ID      string                `json:"id,omitempty"`
	Action  Action                `json:"action"`
	Request *foundry.AgentRequest `json:"request"`
}

// DryRun builds the requests Apply would send, in the same order, without
// calling the service or touching the env file. Connected agents that would
// be created in the same run are referenced by PendingID.
func (p *Provisioner) DryRun(keys ...string) ([]*Plan, error) {
	order, err := p.cfg.ApplyOrderFor(keys...)
	if err != nil {
		return nil, err
	}

	planned := make(map[string]bool, len(order))
	resolve := func(key string) (string, error) {
		id, err := p.AgentID(key)
		if errors.Is(err, ErrNotProvisioned) && planned[key] {
			return PendingID(key), nil
		}
		return id, err
	}
	builder := tool.NewBuilder(p.cfg.ResolvePath, tool.AgentResolverFunc(resolve))

	plans := make([]*Plan, 0, len(order))
	for _, key := range order {
		agent, err := p.cfg.Agent(key)
		if err != nil {
			return nil, err
		}
		req, err := p.buildRequest(key, builder)
		if err != nil {
			return nil, err
		}

		id, cached, err := p.store.Lookup(agent.EnvKey)
		if err != nil {
			return nil, err
		}
		plan := &Plan{Key: key, EnvKey: agent.EnvKey, Action: ActionCreate, Request: req}
		if cached {
			plan.ID, plan.Action = id, ActionUpdate
		}
		plans = append(plans, plan)
		planned[key] = true
	}
	return plans, nil
}
