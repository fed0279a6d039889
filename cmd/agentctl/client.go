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

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
	"github.com/supportbuddy/agentctl/pkg/httpclient"
	"github.com/supportbuddy/agentctl/pkg/provision"
)

// apiFactory creates the service client for a loaded manifest.
type apiFactory func(cfg *config.Config) (provision.API, lister, error)

// lister lists every agent of the project.
type lister interface {
	ListAgents(ctx context.Context) ([]foundry.Agent, error)
}

// newFoundryAPI builds a foundry.Client from the project settings. It checks
// the endpoint first so that a missing PROJECT_ENDPOINT never reaches the
// credential chain.
func newFoundryAPI(cfg *config.Config) (provision.API, lister, error) {
	if err := cfg.RequireEndpoint(); err != nil {
		return nil, nil, err
	}

	auth, err := newAuthorizer(cfg.Project.Auth)
	if err != nil {
		return nil, nil, err
	}

	client, err := foundry.NewClient(cfg.Project.Endpoint,
		foundry.WithAPIVersion(cfg.Project.APIVersion),
		foundry.WithAuthorizer(auth),
		foundry.WithHTTPClient(httpclient.New(
			httpclient.WithTimeout(cfg.Project.Timeout),
			httpclient.WithMaxRetries(cfg.Project.MaxRetries),
		)),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func newAuthorizer(auth config.AuthConfig) (foundry.Authorizer, error) {
	switch auth.Type {
	case config.AuthAPIKey:
		return foundry.APIKeyAuthorizer(auth.APIKey), nil
	case config.AuthCLI:
		return credentialAuthorizer(foundry.CredentialCLI)
	case config.AuthEnvCreds:
		return credentialAuthorizer(foundry.CredentialEnvironment)
	default:
		return credentialAuthorizer(foundry.CredentialDefault)
	}
}

func credentialAuthorizer(kind string) (foundry.Authorizer, error) {
	cred, err := foundry.NewCredential(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s credential: %w", kind, err)
	}
	return foundry.NewTokenAuthorizer(cred), nil
}
