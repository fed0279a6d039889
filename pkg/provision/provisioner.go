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

// Package provision creates and updates the agents declared in a manifest.
//
// An agent is created when no identifier is cached for its env key and the
// new identifier is appended to the env file. When an identifier is cached
// the existing record is updated in place and nothing is appended.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/envfile"
	"github.com/supportbuddy/agentctl/pkg/format"
	"github.com/supportbuddy/agentctl/pkg/foundry"
	"github.com/supportbuddy/agentctl/pkg/tool"
)

// ErrNotProvisioned is returned when no identifier is cached for an agent.
var ErrNotProvisioned = errors.New("agent has not been provisioned")

// API is the subset of the agent service used for provisioning.
// *foundry.Client implements it.
type API interface {
	CreateAgent(ctx context.Context, req *foundry.AgentRequest) (*foundry.Agent, error)
	UpdateAgent(ctx context.Context, id string, req *foundry.AgentRequest) (*foundry.Agent, error)
	GetAgent(ctx context.Context, id string) (*foundry.Agent, error)
	DeleteAgent(ctx context.Context, id string) (*foundry.DeletionStatus, error)
}

// Action is what an upsert did to the remote record.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Result reports the outcome of one operation on an agent.
type Result struct {
	Key    string
	EnvKey string
	ID     string
	Action Action
	Agent  *foundry.Agent
}

// Provisioner applies the agents of one manifest.
type Provisioner struct {
	cfg   *config.Config
	api   API
	store *envfile.Store
	tools *tool.Builder

	mu sync.Mutex
	// ids holds identifiers resolved during this run, so connected agents
	// created earlier in an Apply resolve without re-reading the env file.
	ids map[string]string
}

// New returns a Provisioner for cfg. api may be nil for offline use
// (DryRun and BuildRequest).
func New(cfg *config.Config, api API, store *envfile.Store) *Provisioner {
	p := &Provisioner{
		cfg:   cfg,
		api:   api,
		store: store,
		ids:   make(map[string]string),
	}
	p.tools = tool.NewBuilder(cfg.ResolvePath, tool.AgentResolverFunc(p.AgentID))
	return p
}

// Config returns the manifest the provisioner works on.
func (p *Provisioner) Config() *config.Config {
	return p.cfg
}

// AgentID returns the identifier of a manifest agent: the one resolved
// earlier in this run, else the cached one.
func (p *Provisioner) AgentID(key string) (string, error) {
	p.mu.Lock()
	id, ok := p.ids[key]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	agent, err := p.cfg.Agent(key)
	if err != nil {
		return "", err
	}
	id, ok, err = p.store.Lookup(agent.EnvKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s (%s not found in environment or %s)", ErrNotProvisioned, key, agent.EnvKey, p.store.Path())
	}
	return id, nil
}

// remote checks that remote calls can be made. The endpoint is checked
// first so a missing PROJECT_ENDPOINT is always reported as such.
func (p *Provisioner) remote() error {
	if err := p.cfg.RequireEndpoint(); err != nil {
		return err
	}
	if p.api == nil {
		return errors.New("provisioner has no service client")
	}
	return nil
}

func (p *Provisioner) remember(key, id string) {
	p.mu.Lock()
	p.ids[key] = id
	p.mu.Unlock()
}

// BuildRequest builds the create/update body for a manifest agent. The tool
// list is always sent so that tools removed from the manifest are removed
// remotely too.
func (p *Provisioner) BuildRequest(key string) (*foundry.AgentRequest, error) {
	return p.buildRequest(key, p.tools)
}

func (p *Provisioner) buildRequest(key string, tools *tool.Builder) (*foundry.AgentRequest, error) {
	agent, err := p.cfg.Agent(key)
	if err != nil {
		return nil, err
	}

	defs, resources, err := tools.Build(agent.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", key, err)
	}
	rf, err := format.Build(agent.ResponseFormat, p.cfg.ResolvePath)
	if err != nil {
		return nil, fmt.Errorf("agent %q: response_format: %w", key, err)
	}

	return &foundry.AgentRequest{
		Model:          agent.Model,
		Name:           agent.Name,
		Description:    agent.Description,
		Instructions:   agent.Instructions,
		Tools:          defs,
		ToolResources:  resources,
		ResponseFormat: rf,
		Temperature:    agent.Temperature,
		TopP:           agent.TopP,
		Metadata:       agent.Metadata,
	}, nil
}

// Upsert creates or updates one agent.
//
// The endpoint is checked before anything else, so a missing PROJECT_ENDPOINT
// fails without any remote call. Remote errors are returned as they are.
func (p *Provisioner) Upsert(ctx context.Context, key string) (*Result, error) {
	if err := p.remote(); err != nil {
		return nil, err
	}

	agent, err := p.cfg.Agent(key)
	if err != nil {
		return nil, err
	}
	req, err := p.BuildRequest(key)
	if err != nil {
		return nil, err
	}

	id, cached, err := p.store.Lookup(agent.EnvKey)
	if err != nil {
		return nil, err
	}

	res := &Result{Key: key, EnvKey: agent.EnvKey}
	if !cached {
		created, err := p.api.CreateAgent(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create agent %q: %w", key, err)
		}
		if err := p.store.Append(agent.EnvKey, created.ID); err != nil {
			return nil, fmt.Errorf("agent %q created as %s but its ID could not be cached: %w", key, created.ID, err)
		}
		res.ID, res.Action, res.Agent = created.ID, ActionCreate, created
		slog.Info("Created agent", "agent", key, "id", created.ID, "env_key", agent.EnvKey)
	} else {
		updated, err := p.api.UpdateAgent(ctx, id, req)
		if err != nil {
			return nil, fmt.Errorf("update agent %q (%s): %w", key, id, err)
		}
		res.ID, res.Action, res.Agent = updated.ID, ActionUpdate, updated
		slog.Info("Updated agent", "agent", key, "id", updated.ID)
	}

	p.remember(key, res.ID)
	return res, nil
}

// Apply upserts the given agents, or every agent when none are given, plus
// the agents they delegate to. Delegates are applied first. Apply stops at
// the first failure and returns the results gathered so far.
func (p *Provisioner) Apply(ctx context.Context, keys ...string) ([]*Result, error) {
	if err := p.cfg.RequireEndpoint(); err != nil {
		return nil, err
	}
	order, err := p.cfg.ApplyOrderFor(keys...)
	if err != nil {
		return nil, err
	}

	slog.Debug("Applying agents", "order", order)
	results := make([]*Result, 0, len(order))
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Upsert(ctx, key)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Get fetches the remote record of a manifest agent.
func (p *Provisioner) Get(ctx context.Context, key string) (*foundry.Agent, error) {
	if err := p.remote(); err != nil {
		return nil, err
	}
	id, err := p.AgentID(key)
	if err != nil {
		return nil, err
	}
	agent, err := p.api.GetAgent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get agent %q (%s): %w", key, id, err)
	}
	return agent, nil
}

// Delete deletes the remote record of a manifest agent. The env file is
// append-only and keeps the stale line; the next apply recreates the agent
// only after that line is removed by hand.
func (p *Provisioner) Delete(ctx context.Context, key string) (*Result, error) {
	if err := p.remote(); err != nil {
		return nil, err
	}
	agent, err := p.cfg.Agent(key)
	if err != nil {
		return nil, err
	}
	id, err := p.AgentID(key)
	if err != nil {
		return nil, err
	}

	if _, err := p.api.DeleteAgent(ctx, id); err != nil {
		return nil, fmt.Errorf("delete agent %q (%s): %w", key, id, err)
	}
	slog.Info("Deleted agent", "agent", key, "id", id)
	slog.Warn("Remove the cached ID before applying this agent again", "env_key", agent.EnvKey, "file", p.store.Path())

	p.mu.Lock()
	delete(p.ids, key)
	p.mu.Unlock()
	return &Result{Key: key, EnvKey: agent.EnvKey, ID: id, Action: ActionDelete}, nil
}
