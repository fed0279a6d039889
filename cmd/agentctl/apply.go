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
	"log/slog"
	"text/tabwriter"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/provision"
)

// ApplyCmd creates or updates agents.
type ApplyCmd struct {
	Agents []string `arg:"" optional:"" name:"agent" help:"Manifest keys to apply (default: all). Agents they delegate to are applied too."`
	DryRun bool     `name:"dry-run" help:"Print the requests that would be sent without calling the service."`
	Watch  bool     `help:"Re-apply whenever the manifest changes."`
}

func (c *ApplyCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	var opts []config.LoaderOption
	reloads := make(chan *config.Config, 1)
	if c.Watch {
		opts = append(opts, config.WithOnChange(func(cfg *config.Config) {
			// A newer manifest replaces one not yet applied.
			select {
			case <-reloads:
			default:
			}
			reloads <- cfg
		}))
	}

	cfg, loader, err := cli.loadManifest(ctx, opts...)
	if err != nil {
		return err
	}
	defer loader.Close()

	if err := c.apply(ctx, cli, a, cfg); err != nil {
		return err
	}
	if !c.Watch {
		return nil
	}

	watchErr := make(chan error, 1)
	go func() { watchErr <- loader.Watch(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case cfg := <-reloads:
			if err := c.apply(ctx, cli, a, cfg); err != nil {
				slog.Error("Apply failed", "error", err)
			}
		}
	}
}

func (c *ApplyCmd) apply(ctx context.Context, cli *CLI, a *app, cfg *config.Config) error {
	if c.DryRun {
		prov, _, err := cli.provisioner(cfg, a, false)
		if err != nil {
			return err
		}
		plans, err := prov.DryRun(c.Agents...)
		if err != nil {
			return err
		}
		return printPlans(a.stdout, plans)
	}

	prov, _, err := cli.provisioner(cfg, a, true)
	if err != nil {
		return err
	}
	results, err := prov.Apply(ctx, c.Agents...)
	printResults(a.stdout, results)
	return err
}

func printResults(w io.Writer, results []*provision.Result) {
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tACTION\tID\tENV KEY")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, r.Action, r.ID, r.EnvKey)
	}
	tw.Flush()
}

func printPlans(w io.Writer, plans []*provision.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plans)
}
