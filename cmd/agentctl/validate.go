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
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/supportbuddy/agentctl/pkg/config"
)

// ValidateCmd validates the manifest without contacting the service. Besides
// the manifest itself it compiles every response format schema and loads
// every OpenAPI document.
type ValidateCmd struct {
	Format      string `short:"f" help:"Output format: compact, verbose, json." default:"compact" enum:"compact,verbose,json"`
	PrintConfig bool   `short:"p" name:"print-config" help:"Print the expanded manifest (with defaults applied and env vars resolved)."`
}

// ValidationError is one problem found in the manifest.
type ValidationError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *ValidateCmd) Run(ctx context.Context, cli *CLI, a *app) error {
	cfg, loader, err := cli.loadManifest(ctx)
	if err != nil {
		return c.fail(a, cli.Config, "load", err)
	}
	defer loader.Close()

	prov, _, err := cli.provisioner(cfg, a, false)
	if err != nil {
		return c.fail(a, cli.Config, "build", err)
	}
	if _, err := prov.DryRun(); err != nil {
		return c.fail(a, cli.Config, "build", err)
	}

	if c.PrintConfig {
		return printExpandedConfig(a.stdout, c.Format, cli.Config, cfg)
	}
	c.printSuccess(a, cli.Config, len(cfg.Agents))
	return nil
}

func (c *ValidateCmd) fail(a *app, file, kind string, err error) error {
	switch c.Format {
	case "json":
		printJSONResult(a.stdout, false, file, []ValidationError{{Type: kind, Message: err.Error()}})
	case "verbose":
		fmt.Fprintf(a.stderr, "Manifest Validation Failed\n")
		fmt.Fprintf(a.stderr, "==========================\n\n")
		fmt.Fprintf(a.stderr, "File:    %s\n", file)
		fmt.Fprintf(a.stderr, "Stage:   %s\n", kind)
		fmt.Fprintf(a.stderr, "Error:   %s\n", err.Error())
	default:
		fmt.Fprintf(a.stderr, "%s: %s error: %s\n", file, kind, err.Error())
	}
	return fmt.Errorf("manifest %s is invalid", file)
}

func (c *ValidateCmd) printSuccess(a *app, file string, agents int) {
	switch c.Format {
	case "json":
		printJSONResult(a.stdout, true, file, nil)
	case "verbose":
		fmt.Fprintf(a.stdout, "Manifest Validation Successful\n")
		fmt.Fprintf(a.stdout, "==============================\n\n")
		fmt.Fprintf(a.stdout, "File:   %s\n", file)
		fmt.Fprintf(a.stdout, "Agents: %d\n", agents)
		fmt.Fprintf(a.stdout, "Status: OK Valid\n")
	default:
		fmt.Fprintf(a.stdout, "%s: valid\n", file)
	}
}

// redacted is the value printed in place of secrets.
const redacted = "***"

func printExpandedConfig(w io.Writer, format, file string, cfg *config.Config) error {
	out := *cfg
	if out.Project.Auth.APIKey != "" {
		out.Project.Auth.APIKey = redacted
	}
	cfg = &out

	if format == "json" {
		return printJSON(w, cfg)
	}

	fmt.Fprintf(w, "# Expanded manifest from: %s\n", file)
	fmt.Fprintf(w, "# (defaults applied, env vars resolved)\n\n")
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode manifest as YAML: %w", err)
	}
	return encoder.Close()
}

type jsonOutput struct {
	Valid  bool              `json:"valid"`
	File   string            `json:"file"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func printJSONResult(w io.Writer, valid bool, file string, errors []ValidationError) {
	_ = printJSON(w, jsonOutput{Valid: valid, File: file, Errors: errors})
}
