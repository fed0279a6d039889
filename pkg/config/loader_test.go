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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/supportbuddy/agentctl/pkg/config/provider"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestLoader_File_Load(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeManifest(t, tmpDir, "agents.yaml", `
version: "1"
project:
  endpoint: https://example.services.ai.azure.com/api/projects/support
  timeout: 30s
agents:
  triage:
    name: Triage Agent
    model: gpt-4.1
    instructions: Break the email into questions and issues.
    response_format:
      builtin: triage
  buddy:
    instructions_file: buddy.md
`)
	writeManifest(t, tmpDir, "buddy.md", "You are a friendly support buddy.\n")

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	defer loader.Close()

	if cfg.Project.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", cfg.Project.Timeout)
	}
	if cfg.Project.APIVersion != DefaultAPIVersion {
		t.Errorf("expected api_version %s, got %s", DefaultAPIVersion, cfg.Project.APIVersion)
	}
	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(cfg.Agents))
	}

	triage := cfg.Agents["triage"]
	if triage.EnvKey != "TRIAGE_AGENT_ID" {
		t.Errorf("expected env key TRIAGE_AGENT_ID, got %s", triage.EnvKey)
	}
	if triage.ResponseFormat.Type != FormatJSONSchema || triage.ResponseFormat.Name != "triage" {
		t.Errorf("unexpected response format defaults: %+v", triage.ResponseFormat)
	}

	buddy := cfg.Agents["buddy"]
	if buddy.Instructions != "You are a friendly support buddy." {
		t.Errorf("instructions_file not inlined, got %q", buddy.Instructions)
	}
	if buddy.Model != DefaultModel || buddy.Name != "buddy" {
		t.Errorf("unexpected defaults: model=%s name=%s", buddy.Model, buddy.Name)
	}
	if cfg.BaseDir() != tmpDir {
		t.Errorf("expected base dir %s, got %s", tmpDir, cfg.BaseDir())
	}
}

func TestLoader_File_NotFound(t *testing.T) {
	_, _, err := LoadConfigFile(context.Background(), "/nonexistent/agents.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoader_File_InvalidYAML(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "invalid.yaml", `
agents:
  - invalid: [unclosed
`)
	if _, _, err := LoadConfigFile(context.Background(), path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoader_UnknownFieldRejected(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "typo.yaml", `
agents:
  triage:
    instrutions: typo
`)
	_, _, err := LoadConfigFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "instrutions") {
		t.Errorf("error should name the unknown field, got %v", err)
	}
}

func TestLoader_InvalidManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "invalid.yaml", `
agents:
  support:
    tools:
      - type: connected_agent
        agent: faq
        name: FaqAgent
        description: Answers common questions
`)
	_, _, err := LoadConfigFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), `connected agent "faq" is not defined`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoader_JSONManifest(t *testing.T) {
	l := NewLoader(provider.NewBytesProvider([]byte(`{"agents": {"faq": {"model": "gpt-4.1"}}}`)))
	cfg, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load JSON manifest: %v", err)
	}
	if cfg.Agents["faq"].Model != "gpt-4.1" {
		t.Errorf("expected model gpt-4.1, got %s", cfg.Agents["faq"].Model)
	}
}

func TestLoader_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_ENDPOINT", "https://example.services.ai.azure.com/api/projects/p")
	t.Setenv("TEST_BING_CONNECTION", "conn-bing")
	t.Setenv("TEST_EMPTY", "")

	l := NewLoader(provider.NewBytesProvider([]byte(`
project:
  endpoint: ${TEST_ENDPOINT}
agents:
  rag:
    model: ${TEST_MODEL:-gpt-4o-mini}
    instructions: Costs $$5 via $TEST_BING_CONNECTION
    tools:
      - type: bing_grounding
        connection_id: ${TEST_BING_CONNECTION}
        market: ${TEST_EMPTY:-en-US}
`)))
	cfg, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}

	if cfg.Project.Endpoint != "https://example.services.ai.azure.com/api/projects/p" {
		t.Errorf("endpoint not expanded: %s", cfg.Project.Endpoint)
	}
	rag := cfg.Agents["rag"]
	if rag.Model != "gpt-4o-mini" {
		t.Errorf("default not applied: %s", rag.Model)
	}
	if rag.Instructions != "Costs $5 via conn-bing" {
		t.Errorf("unexpected instructions: %q", rag.Instructions)
	}
	if rag.Tools[0].ConnectionID != "conn-bing" || rag.Tools[0].Market != "en-US" {
		t.Errorf("tool not expanded: %+v", rag.Tools[0])
	}
}

func TestLoader_EndpointFromEnvironment(t *testing.T) {
	t.Setenv(EndpointEnvVar, "https://from-env.services.ai.azure.com/api/projects/p")

	cfg, err := NewLoader(provider.NewBytesProvider([]byte("agents: {}\n"))).Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	if err := cfg.RequireEndpoint(); err != nil {
		t.Fatalf("expected endpoint from environment: %v", err)
	}
}

func TestLoader_File_Watch(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeManifest(t, tmpDir, "agents.yaml", "agents:\n  faq:\n    name: Initial\n")

	var reloads atomic.Int32
	var lastName atomic.Value
	cfg, loader, err := LoadConfigFile(context.Background(), path, WithOnChange(func(cfg *Config) {
		lastName.Store(cfg.Agents["faq"].Name)
		reloads.Add(1)
	}))
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}
	defer loader.Close()
	if cfg.Agents["faq"].Name != "Initial" {
		t.Fatalf("expected name Initial, got %s", cfg.Agents["faq"].Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx) }()

	// Wait a bit for the watcher to start
	time.Sleep(200 * time.Millisecond)

	writeManifest(t, tmpDir, "agents.yaml", "agents:\n  faq:\n    name: Updated\n")

	deadline := time.Now().Add(3 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if reloads.Load() == 0 {
		t.Fatal("expected reload to be triggered, but it wasn't")
	}
	if got := lastName.Load(); got != "Updated" {
		t.Errorf("expected reloaded name Updated, got %v", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("EXPAND_SET", "value")

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${EXPAND_SET}", "value"},
		{"$EXPAND_SET/x", "value/x"},
		{"${EXPAND_UNSET:-fallback}", "fallback"},
		{"${EXPAND_SET:-fallback}", "value"},
		{"${EXPAND_UNSET}", ""},
		{"$$EXPAND_SET", "$EXPAND_SET"},
	}
	for _, tt := range tests {
		if got := expandEnvString(tt.in); got != tt.want {
			t.Errorf("expandEnvString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := writeManifest(t, tmpDir, "custom.env", "DOTENV_TEST_SET=from-file\nDOTENV_TEST_NEW=new\n")
	t.Setenv("DOTENV_TEST_SET", "from-env")
	t.Setenv("DOTENV_TEST_NEW", "")
	os.Unsetenv("DOTENV_TEST_NEW")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("DOTENV_TEST_SET"); got != "from-env" {
		t.Errorf("existing variable overridden: %s", got)
	}
	if got := os.Getenv("DOTENV_TEST_NEW"); got != "new" {
		t.Errorf("expected DOTENV_TEST_NEW=new, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env")); err != nil {
		t.Errorf("missing files should be ignored: %v", err)
	}
}
