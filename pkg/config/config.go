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

// Package config loads and validates agent manifests.
//
// A manifest declares the Foundry project to talk to and the set of agents to
// provision in it:
//
//	version: "1"
//	project:
//	  endpoint: ${PROJECT_ENDPOINT}
//	agents:
//	  triage:
//	    name: Triage Agent
//	    model: gpt-4.1
//	    instructions: Look at the customer's email and break down the questions.
//	    response_format:
//	      builtin: triage
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	DefaultAPIVersion = "v1"
	DefaultEnvFile    = ".env"
	DefaultModel      = "gpt-4o"
	DefaultTimeout    = 60 * time.Second

	// EndpointEnvVar is the variable the project endpoint falls back to.
	EndpointEnvVar = "PROJECT_ENDPOINT"
	// APIKeyEnvVar is the variable the api_key auth type falls back to.
	APIKeyEnvVar = "AGENTCTL_API_KEY"
)

// ErrMissingEndpoint is returned when no project endpoint is configured.
var ErrMissingEndpoint = errors.New(EndpointEnvVar + " is not set in the environment")

// Config is the root of an agent manifest.
type Config struct {
	Version string                  `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Manifest format version,default=1"`
	Project ProjectConfig           `yaml:"project,omitempty" json:"project,omitempty" jsonschema:"title=Project,description=Foundry project connection settings"`
	Agents  map[string]*AgentConfig `yaml:"agents" json:"agents" jsonschema:"title=Agents,description=Agents to provision keyed by manifest name"`

	baseDir string
}

// ProjectConfig describes the Foundry project hosting the agents.
type ProjectConfig struct {
	// Endpoint is the project endpoint, e.g.
	// https://<resource>.services.ai.azure.com/api/projects/<project>.
	Endpoint   string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"title=Endpoint,description=Project endpoint (defaults to $PROJECT_ENDPOINT)"`
	APIVersion string        `yaml:"api_version,omitempty" json:"api_version,omitempty" jsonschema:"title=API Version,default=v1"`
	EnvFile    string        `yaml:"env_file,omitempty" json:"env_file,omitempty" jsonschema:"title=Env File,description=File cached agent IDs are appended to,default=.env"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,description=Per-request timeout"`
	MaxRetries int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"title=Max Retries,description=Retries for throttled or failed requests (0 disables),minimum=0,default=0"`
	Auth       AuthConfig    `yaml:"auth,omitempty" json:"auth,omitempty" jsonschema:"title=Auth"`
}

// Auth types.
const (
	AuthDefault  = "default"
	AuthCLI      = "cli"
	AuthAPIKey   = "api_key"
	AuthEnvCreds = "environment"
)

// AuthConfig selects how requests to the project are authenticated.
type AuthConfig struct {
	Type   string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"title=Auth Type,enum=default,enum=cli,enum=environment,enum=api_key,default=default"`
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key,description=Key for api_key auth (defaults to $AGENTCTL_API_KEY)"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	c.Project.SetDefaults()
	if c.Agents == nil {
		c.Agents = make(map[string]*AgentConfig)
	}
	for key, agent := range c.Agents {
		if agent == nil {
			agent = &AgentConfig{}
			c.Agents[key] = agent
		}
		agent.SetDefaults(key)
	}
}

// SetDefaults fills unset project fields.
func (p *ProjectConfig) SetDefaults() {
	if p.Endpoint == "" {
		p.Endpoint = os.Getenv(EndpointEnvVar)
	}
	if p.APIVersion == "" {
		p.APIVersion = DefaultAPIVersion
	}
	if p.EnvFile == "" {
		p.EnvFile = DefaultEnvFile
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Auth.Type == "" {
		p.Auth.Type = AuthDefault
	}
	if p.Auth.Type == AuthAPIKey && p.Auth.APIKey == "" {
		p.Auth.APIKey = os.Getenv(APIKeyEnvVar)
	}
}

// Validate checks the manifest. The project endpoint is not required here so
// that manifests can be validated offline; see RequireEndpoint.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Project.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("project: %w", err))
	}

	envKeys := make(map[string]string, len(c.Agents))
	for _, key := range c.AgentKeys() {
		agent := c.Agents[key]
		if err := agent.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("agent %q: %w", key, err))
			continue
		}
		if other, dup := envKeys[agent.EnvKey]; dup {
			errs = append(errs, fmt.Errorf("agent %q: env_key %s already used by agent %q", key, agent.EnvKey, other))
		}
		envKeys[agent.EnvKey] = key

		for _, ref := range agent.Dependencies() {
			if _, ok := c.Agents[ref]; !ok {
				errs = append(errs, fmt.Errorf("agent %q: connected agent %q is not defined", key, ref))
			}
		}
	}

	if len(errs) == 0 {
		if _, err := c.ApplyOrder(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Validate checks project settings.
func (p *ProjectConfig) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %s", p.Timeout)
	}
	switch p.Auth.Type {
	case AuthDefault, AuthCLI, AuthEnvCreds:
	case AuthAPIKey:
		if p.Auth.APIKey == "" {
			return fmt.Errorf("auth type api_key requires api_key or %s", APIKeyEnvVar)
		}
	default:
		return fmt.Errorf("unknown auth type %q", p.Auth.Type)
	}
	return nil
}

// RequireEndpoint fails when no project endpoint is configured. It must be
// called before any remote operation.
func (c *Config) RequireEndpoint() error {
	if c.Project.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// AgentKeys returns the manifest agent keys in sorted order.
func (c *Config) AgentKeys() []string {
	keys := make([]string, 0, len(c.Agents))
	for key := range c.Agents {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Agent returns the agent with the given manifest key.
func (c *Config) Agent(key string) (*AgentConfig, error) {
	agent, ok := c.Agents[key]
	if !ok {
		return nil, fmt.Errorf("agent %q is not defined in the manifest", key)
	}
	return agent, nil
}

// BaseDir is the directory relative paths in the manifest resolve against.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// SetBaseDir sets the directory relative paths resolve against.
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}

// ResolvePath resolves p against the manifest directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}
