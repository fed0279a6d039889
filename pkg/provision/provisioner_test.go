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

package provision_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/envfile"
	"github.com/supportbuddy/agentctl/pkg/foundry"
	"github.com/supportbuddy/agentctl/pkg/foundry/foundrytest"
	"github.com/supportbuddy/agentctl/pkg/provision"
)

type fixture struct {
	srv     *foundrytest.Server
	cfg     *config.Config
	store   *envfile.Store
	envPath string
	prov    *provision.Provisioner
}

// newFixture builds a two-agent manifest where support delegates to faq.
func newFixture(t *testing.T, endpoint bool) *fixture {
	t.Helper()
	t.Setenv(config.EndpointEnvVar, "")

	srv := foundrytest.NewServer()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		Agents: map[string]*config.AgentConfig{
			"faq": {
				Name:         "FAQ Agent",
				Model:        "gpt-4.1",
				Instructions: "Answer common questions.",
				ResponseFormat: &config.ResponseFormatConfig{
					Builtin: "answered_questions",
				},
			},
			"support": {
				Name:         "Customer Support Agent",
				Model:        "gpt-4.1",
				Instructions: "Route questions to the right agent.",
				Tools: []*config.ToolConfig{{
					Type:        config.ToolConnectedAgent,
					Agent:       "faq",
					Name:        "FaqAgent",
					Description: "Gets exact answers to common questions",
				}},
			},
		},
	}
	if endpoint {
		cfg.Project.Endpoint = srv.URL
	}
	cfg.SetBaseDir(dir)
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	envPath := filepath.Join(dir, ".env")
	store := envfile.New(envPath)

	client, err := foundry.NewClient(srv.URL)
	require.NoError(t, err)

	return &fixture{
		srv:     srv,
		cfg:     cfg,
		store:   store,
		envPath: envPath,
		prov:    provision.New(cfg, client, store),
	}
}

func (f *fixture) envLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.envPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestUpsert_CreatesAndCachesWhenNoIDCached(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, os.WriteFile(f.envPath, []byte("PROJECT_NAME=demo\n"), 0o600))

	res, err := f.prov.Upsert(context.Background(), "faq")
	require.NoError(t, err)

	assert.Equal(t, provision.ActionCreate, res.Action)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "FAQ_AGENT_ID", res.EnvKey)

	assert.Equal(t, 1, f.srv.CountCalls(http.MethodPost, "/assistants"))
	assert.Equal(t, []string{"PROJECT_NAME=demo", "FAQ_AGENT_ID=" + res.ID}, f.envLines(t))

	remote, ok := f.srv.Agent(res.ID)
	require.True(t, ok)
	assert.Equal(t, "FAQ Agent", remote.Name)
	require.NotNil(t, remote.ResponseFormat)
	assert.Equal(t, foundry.ResponseFormatJSONSchema, remote.ResponseFormat.Type)
}

func TestUpsert_UpdatesWhenIDCached(t *testing.T) {
	f := newFixture(t, true)
	f.srv.Seed(foundry.Agent{ID: "asst_existing", Model: "gpt-4o", Name: "old"})
	require.NoError(t, os.WriteFile(f.envPath, []byte("FAQ_AGENT_ID=asst_existing\n"), 0o600))

	res, err := f.prov.Upsert(context.Background(), "faq")
	require.NoError(t, err)

	assert.Equal(t, provision.ActionUpdate, res.Action)
	assert.Equal(t, "asst_existing", res.ID)

	calls := f.srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/assistants/asst_existing", calls[0].Path)

	assert.Equal(t, []string{"FAQ_AGENT_ID=asst_existing"}, f.envLines(t))

	remote, _ := f.srv.Agent("asst_existing")
	assert.Equal(t, "FAQ Agent", remote.Name)
	assert.Equal(t, "gpt-4.1", remote.Model)
}

func TestUpsert_ProcessEnvTakesPrecedence(t *testing.T) {
	f := newFixture(t, true)
	f.srv.Seed(foundry.Agent{ID: "asst_from_env", Model: "gpt-4o"})
	t.Setenv("FAQ_AGENT_ID", "asst_from_env")

	res, err := f.prov.Upsert(context.Background(), "faq")
	require.NoError(t, err)
	assert.Equal(t, provision.ActionUpdate, res.Action)
	assert.Equal(t, "asst_from_env", res.ID)
	assert.Nil(t, f.envLines(t))
}

func TestUpsert_MissingEndpointFailsBeforeRemoteCall(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.prov.Upsert(context.Background(), "faq")
	require.ErrorIs(t, err, config.ErrMissingEndpoint)
	assert.Contains(t, err.Error(), "PROJECT_ENDPOINT")

	_, err = f.prov.Apply(context.Background())
	require.ErrorIs(t, err, config.ErrMissingEndpoint)

	assert.Empty(t, f.srv.Calls())
	assert.Nil(t, f.envLines(t))
}

func TestUpsert_RemoteErrorSurfacedUnmodified(t *testing.T) {
	f := newFixture(t, true)
	f.srv.FailNext(http.MethodPost, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit is exceeded. Try again in 7 seconds.")

	_, err := f.prov.Upsert(context.Background(), "faq")
	require.Error(t, err)

	var apiErr *foundry.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Rate limit is exceeded. Try again in 7 seconds.", apiErr.Message)
	assert.Contains(t, err.Error(), "Rate limit is exceeded. Try again in 7 seconds.")

	assert.Equal(t, 1, f.srv.CountCalls(http.MethodPost, "/assistants"))
	assert.Nil(t, f.envLines(t))
}

func TestUpsert_ConnectedAgentNotProvisioned(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.prov.Upsert(context.Background(), "support")
	require.ErrorIs(t, err, provision.ErrNotProvisioned)
	assert.Empty(t, f.srv.Calls())
}

func TestApply_OrdersDelegatesFirst(t *testing.T) {
	f := newFixture(t, true)

	results, err := f.prov.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "faq", results[0].Key)
	assert.Equal(t, "support", results[1].Key)

	support, ok := f.srv.Agent(results[1].ID)
	require.True(t, ok)
	require.Len(t, support.Tools, 1)
	require.NotNil(t, support.Tools[0].ConnectedAgent)
	assert.Equal(t, results[0].ID, support.Tools[0].ConnectedAgent.ID)

	assert.Equal(t, []string{
		"FAQ_AGENT_ID=" + results[0].ID,
		"SUPPORT_AGENT_ID=" + results[1].ID,
	}, f.envLines(t))

	again, err := f.prov.Apply(context.Background())
	require.NoError(t, err)
	for _, res := range again {
		assert.Equal(t, provision.ActionUpdate, res.Action)
	}
	assert.Len(t, f.envLines(t), 2)
	assert.Equal(t, 2, f.srv.CountCalls(http.MethodPost, "/assistants/"))
}

func TestApply_SelectedAgentPullsInDelegates(t *testing.T) {
	f := newFixture(t, true)

	results, err := f.prov.Apply(context.Background(), "support")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "faq", results[0].Key)
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.Agents["faq"].ResponseFormat = &config.ResponseFormatConfig{
		Type:       config.FormatJSONSchema,
		Name:       "answers",
		SchemaFile: "missing.json",
	}

	results, err := f.prov.Apply(context.Background())
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Empty(t, f.srv.Calls())
}

func TestApply_UnknownAgent(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.prov.Apply(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `agent "nope" is not defined`)
}

func TestApply_RemovedToolsAndFormatAreCleared(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.prov.Apply(context.Background())
	require.NoError(t, err)

	f.cfg.Agents["support"].Tools = nil
	f.cfg.Agents["faq"].ResponseFormat = nil
	prov := provision.New(f.cfg, mustClient(t, f.srv), f.store)
	_, err = prov.Apply(context.Background())
	require.NoError(t, err)

	calls := f.srv.Calls()
	last := calls[len(calls)-1]
	require.NotNil(t, last.Body)
	assert.NotNil(t, last.Body.Tools)
	assert.Empty(t, last.Body.Tools)

	faqUpdate := calls[len(calls)-2]
	require.NotNil(t, faqUpdate.Body.ResponseFormat)
	assert.Equal(t, foundry.ResponseFormatAuto, faqUpdate.Body.ResponseFormat.Type)
}

func mustClient(t *testing.T, srv *foundrytest.Server) *foundry.Client {
	t.Helper()
	c, err := foundry.NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func TestGetAndDelete(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.prov.Get(ctx, "faq")
	require.ErrorIs(t, err, provision.ErrNotProvisioned)

	res, err := f.prov.Upsert(ctx, "faq")
	require.NoError(t, err)

	got, err := f.prov.Get(ctx, "faq")
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	deleted, err := f.prov.Delete(ctx, "faq")
	require.NoError(t, err)
	assert.Equal(t, provision.ActionDelete, deleted.Action)
	assert.Equal(t, res.ID, deleted.ID)

	_, ok := f.srv.Agent(res.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{"FAQ_AGENT_ID=" + res.ID}, f.envLines(t))

	_, err = f.prov.Get(ctx, "faq")
	assert.True(t, foundry.IsNotFound(err))
}
