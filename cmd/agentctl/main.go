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

// Command agentctl provisions the agents of a manifest on an Azure AI Foundry
// project.
//
// Usage:
//
//	agentctl apply -c agents.yaml
//	agentctl apply triage faq --dry-run
//	agentctl status
//	agentctl validate --format json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/supportbuddy/agentctl"
	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/envfile"
	"github.com/supportbuddy/agentctl/pkg/observability"
	"github.com/supportbuddy/agentctl/pkg/provision"
)

// CLI defines the command-line interface.
type CLI struct {
	Apply    ApplyCmd    `cmd:"" help:"Create or update agents."`
	Get      GetCmd      `cmd:"" help:"Show the remote record of an agent."`
	List     ListCmd     `cmd:"" help:"List every agent in the project."`
	Status   StatusCmd   `cmd:"" help:"Show cached IDs and remote state of the manifest agents."`
	Delete   DeleteCmd   `cmd:"" help:"Delete the remote record of an agent."`
	Validate ValidateCmd `cmd:"" help:"Validate the manifest offline."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON Schema of the manifest."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config       string `short:"c" help:"Path to the agent manifest." default:"agents.yaml" type:"path"`
	EnvFile      string `name:"env-file" help:"File agent IDs are cached in (overrides project.env_file)." type:"path"`
	LogLevel     string `help:"Log level (debug, info, warn, error)."`
	LogFile      string `help:"Log file path (empty = stderr)."`
	LogFormat    string `help:"Log format (simple, verbose, json)."`
	Trace        string `help:"Trace exporter (stdout, otlp; empty disables tracing)."`
	OTLPEndpoint string `name:"otlp-endpoint" help:"OTLP gRPC collector address." default:"localhost:4317"`
}

// app carries the process streams and the service client factory so that
// commands can run against a fake service in tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	newAPI apiFactory
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		newAPI: newFoundryAPI,
	}))
}

// run parses args, runs the selected command and returns the exit code.
func run(ctx context.Context, args []string, a *app) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("agentctl"),
		kong.Description("Provision Azure AI Foundry agents from a manifest."),
		kong.UsageOnError(),
		kong.Writers(a.stdout, a.stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(a),
	)
	if err != nil {
		fmt.Fprintf(a.stderr, "agentctl: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help and friends
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "agentctl: %v\n", err)
		return 2
	}

	cleanup, err := cli.setup(ctx, a)
	if err != nil {
		fmt.Fprintf(a.stderr, "agentctl: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := kctx.Run(&cli); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Interrupted")
			return 130
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup initializes logging and tracing. The returned function flushes
// traces and closes the log file.
func (cli *CLI) setup(ctx context.Context, a *app) (func(), error) {
	closeLog, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat, a.stderr)
	if err != nil {
		return nil, err
	}

	_, shutdown, err := observability.InitGlobalTracer(ctx, observability.TracingConfig{
		Exporter:       cli.Trace,
		Endpoint:       cli.OTLPEndpoint,
		Insecure:       true,
		ServiceVersion: agentctl.GetVersion().Version,
	}, observability.WithStdoutWriter(a.stderr))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), observability.DefaultTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
		closeLog()
	}, nil
}

// loadManifest loads .env files next to the manifest and in the working
// directory, then the manifest itself. The caller must Close the loader.
func (cli *CLI) loadManifest(ctx context.Context, opts ...config.LoaderOption) (*config.Config, *config.Loader, error) {
	if err := config.LoadDotEnvForConfig(cli.Config, cli.EnvFile); err != nil {
		return nil, nil, err
	}
	return config.LoadConfigFile(ctx, cli.Config, opts...)
}

// provisioner builds a Provisioner for cfg. With remote set it also creates
// the service client, which fails fast when no endpoint is configured.
func (cli *CLI) provisioner(cfg *config.Config, a *app, remote bool) (*provision.Provisioner, lister, error) {
	store := envfile.New(cli.envFilePath(cfg))
	if !remote {
		return provision.New(cfg, nil, store), nil, nil
	}
	api, list, err := a.newAPI(cfg)
	if err != nil {
		return nil, nil, err
	}
	return provision.New(cfg, api, store), list, nil
}

// envFilePath is --env-file, else project.env_file relative to the manifest.
func (cli *CLI) envFilePath(cfg *config.Config) string {
	if cli.EnvFile != "" {
		return cli.EnvFile
	}
	return cfg.ResolvePath(cfg.Project.EnvFile)
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintln(a.stdout, agentctl.GetVersion())
	return nil
}
