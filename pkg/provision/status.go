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
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/supportbuddy/agentctl/pkg/foundry"
)

// statusConcurrency bounds parallel GETs.
const statusConcurrency = 4

// State is the remote state of a manifest agent.
type State string

const (
	StateNotProvisioned State = "not provisioned"
	StateOK             State = "ok"
	StateMissing        State = "missing"
	StateError          State = "error"
)

// AgentStatus describes one manifest agent.
type AgentStatus struct {
	Key    string
	EnvKey string
	ID     string
	State  State
	Agent  *foundry.Agent
	Err    error
}

// Status fetches the remote record of every manifest agent with a cached
// identifier. Per-agent failures are reported in the result; the returned
// error is set only when the lookup itself cannot proceed.
func (p *Provisioner) Status(ctx context.Context) ([]*AgentStatus, error) {
	keys := p.cfg.AgentKeys()
	statuses := make([]*AgentStatus, len(keys))

	needsRemote := false
	for i, key := range keys {
		agent, err := p.cfg.Agent(key)
		if err != nil {
			return nil, err
		}
		st := &AgentStatus{Key: key, EnvKey: agent.EnvKey, State: StateNotProvisioned}
		id, err := p.AgentID(key)
		switch {
		case err == nil:
			st.ID = id
			needsRemote = true
		case !errors.Is(err, ErrNotProvisioned):
			return nil, err
		}
		statuses[i] = st
	}

	if !needsRemote {
		return statuses, nil
	}
	if err := p.remote(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for _, st := range statuses {
		if st.ID == "" {
			continue
		}
		st := st
		g.Go(func() error {
			agent, err := p.api.GetAgent(gctx, st.ID)
			switch {
			case err == nil:
				st.State, st.Agent = StateOK, agent
			case foundry.IsNotFound(err):
				st.State, st.Err = StateMissing, err
			default:
				st.State, st.Err = StateError, err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return statuses, err
	}
	return statuses, ctx.Err()
}
