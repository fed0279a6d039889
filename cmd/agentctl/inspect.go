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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/supportbuddy/agentctl/pkg/foundry"
)

// GetCmd prints the remote record of a manifest agent.
type GetCmd struct {
	Agent string `arg:"" help:"Manifest key of the agent."`
}

func (c *GetCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	cfg, loader, err := cli.loadManifest(ctx)
	if err != nil {
		return err
	}
	defer loader.Close()

	prov, _, err := cli.provisioner(cfg, a, true)
	if err != nil {
		return err
	}
	agent, err := prov.Get(ctx, c.Agent)
	if err != nil {
		return err
	}
	return printJSON(a.stdout, agent)
}

// ListCmd lists every agent in the project, managed by the manifest or not.
type ListCmd struct {
	JSON bool `help:"Print the records as JSON."`
}

func (c *ListCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	cfg, loader, err := cli.loadManifest(ctx)
	if err != nil {
		return err
	}
	defer loader.Close()

	_, list, err := cli.provisioner(cfg, a, true)
	if err != nil {
		return err
	}
	agents, err := list.ListAgents(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(a.stdout, agents)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODEL\tTOOLS\tCREATED")
	for _, ag := range agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ag.ID, ag.Name, ag.Model, toolSummary(ag.Tools), created(ag.CreatedAt))
	}
	return tw.Flush()
}

// StatusCmd shows each manifest agent with its cached ID and remote state.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	cfg, loader, err := cli.loadManifest(ctx)
	if err != nil {
		return err
	}
	defer loader.Close()

	// The service is only needed once some agent has a cached ID.
	remote := cfg.RequireEndpoint() == nil
	prov, _, err := cli.provisioner(cfg, a, remote)
	if err != nil {
		return err
	}
	statuses, err := prov.Status(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tENV KEY\tID\tSTATE\tMODEL")
	for _, st := range statuses {
		model := "-"
		if st.Agent != nil {
			model = st.Agent.Model
		}
		id := st.ID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Key, st.EnvKey, id, st.State, model)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, st := range statuses {
		if st.Err != nil {
			fmt.Fprintf(a.stdout, "\n%s: %v\n", st.Key, st.Err)
		}
	}
	return nil
}

// DeleteCmd deletes the remote record of a manifest agent.
type DeleteCmd struct {
	Agent string `arg:"" help:"Manifest key of the agent."`
	Yes   bool   `short:"y" help:"Confirm the deletion."`
}

func (c *DeleteCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	if !c.Yes {
		return fmt.Errorf("refusing to delete agent %q without --yes", c.Agent)
	}

	cfg, loader, err := cli.loadManifest(ctx)
	if err != nil {
		return err
	}
	defer loader.Close()

	prov, _, err := cli.provisioner(cfg, a, true)
	if err != nil {
		return err
	}
	res, err := prov.Delete(ctx, c.Agent)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted %s (%s); remove %s from %s before applying it again\n",
		res.Key, res.ID, res.EnvKey, cli.envFilePath(cfg))
	return nil
}

func toolSummary(tools []foundry.ToolDefinition) string {
	if len(tools) == 0 {
		return "-"
	}
	s := ""
	for i, t := range tools {
		if i > 0 {
			s += ","
		}
		s += t.Type
	}
	return s
}

func created(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
