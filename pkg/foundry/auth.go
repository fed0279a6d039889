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

package foundry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Scope is the token scope of the Foundry Agent Service.
const Scope = "https://ai.azure.com/.default"

// tokenRefreshMargin renews tokens this long before they expire.
const tokenRefreshMargin = 2 * time.Minute

// Authorizer adds credentials to an outgoing request.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// TokenAuthorizer sends an Entra ID bearer token and caches it until shortly
// before expiry.
type TokenAuthorizer struct {
	cred   azcore.TokenCredential
	scopes []string

	mu    sync.Mutex
	token azcore.AccessToken
}

// NewTokenAuthorizer returns an Authorizer for cred. Scopes default to Scope.
func NewTokenAuthorizer(cred azcore.TokenCredential, scopes ...string) *TokenAuthorizer {
	if len(scopes) == 0 {
		scopes = []string{Scope}
	}
	return &TokenAuthorizer{cred: cred, scopes: scopes}
}

func (a *TokenAuthorizer) Authorize(ctx context.Context, req *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token.Token == "" || time.Until(a.token.ExpiresOn) < tokenRefreshMargin {
		tok, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: a.scopes})
		if err != nil {
			return fmt.Errorf("acquire token: %w", err)
		}
		a.token = tok
	}

	req.Header.Set("Authorization", "Bearer "+a.token.Token)
	return nil
}

// APIKeyAuthorizer sends a static key in the api-key header.
type APIKeyAuthorizer string

func (k APIKeyAuthorizer) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("api-key", string(k))
	return nil
}

// Credential kinds accepted by NewCredential.
const (
	CredentialDefault     = "default"
	CredentialCLI         = "cli"
	CredentialEnvironment = "environment"
)

// NewCredential builds an Entra ID credential of the given kind.
func NewCredential(kind string) (azcore.TokenCredential, error) {
	switch kind {
	case CredentialDefault, "":
		return azidentity.NewDefaultAzureCredential(nil)
	case CredentialCLI:
		return azidentity.NewAzureCLICredential(nil)
	case CredentialEnvironment:
		return azidentity.NewEnvironmentCredential(nil)
	default:
		return nil, fmt.Errorf("unknown credential kind %q", kind)
	}
}
