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
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/envfile"
	"github.com/supportbuddy/agentctl/pkg/foundry"
	"github.com/supportbuddy/agentctl/pkg/provision"
)

func TestSupportBuddyManifest_DryRun(t *testing.T) {
	t.Setenv(config.EndpointEnvVar, "")
	for _, key := range []string{
		"BUDDY_AGENT_ID", "FAQ_AGENT_ID", "FAQ_AGENT_TO_JSON_ID", "TEST_AGENT_ID", "RAG_AGENT_ID",
		"RAG_CUSTOM_SEARCH_AGENT_ID", "REPLY_AGENT_ID", "SUPPORT_AGENT_ID", "TRIAGE_AGENT_ID",
	} {
		t.Setenv(key, "")
	}
	for _, key := range []string{
		"BING_CONNECTION_ID", "CUSTOM_SEARCH_CONNECTION_ID", "LEARN_CUSTOM_SEARCH_CONNECTION_ID",
		"LANGUAGE_CONNECTION_ID", "SEND_EMAIL_CONNECTION_ID",
	} {
		t.Setenv(key, "/connections/"+key)
	}

	cfg, loader, err := config.LoadConfigFile(context.Background(), filepath.Join("..", "..", "examples", "supportbuddy", "agents.yaml"))
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	prov := provision.New(cfg, nil, envfile.New(filepath.Join(t.TempDir(), ".env")))
	plans, err := prov.DryRun()
	require.NoError(t, err)

	keys := make([]string, len(plans))
	byKey := make(map[string]*provision.Plan, len(plans))
	for i, p := range plans {
		keys[i] = p.Key
		byKey[p.Key] = p
		assert.Equal(t, provision.ActionCreate, p.Action, p.Key)
	}
	assert.Equal(t, []string{
		"buddy", "faq", "faq-to-json", "getting-started", "rag",
		"rag-custom-search", "reply", "support", "triage",
	}, keys)

	reply := byKey["reply"].Request
	require.Len(t, reply.Tools, 1)
	outlook := reply.Tools[0].OpenAPI
	require.NotNil(t, outlook)
	assert.Equal(t, "Outlook", outlook.Name)
	assert.Equal(t, []string{"api-version", "sp", "sv"}, outlook.DefaultParams)
	assert.Equal(t, "/connections/SEND_EMAIL_CONNECTION_ID", outlook.Auth.SecurityScheme.ConnectionID)
	var spec map[string]any
	require.NoError(t, json.Unmarshal(outlook.Spec, &spec))
	assert.Equal(t, "3.0.3", spec["openapi"])
	assert.NotContains(t, string(outlook.Spec), `"$ref"`)

	faq := byKey["faq"].Request
	require.Len(t, faq.Tools, 1)
	require.NotNil(t, faq.Tools[0].OpenAPI)
	assert.NotContains(t, string(faq.Tools[0].OpenAPI.Spec), `"$ref"`)

	support := byKey["support"].Request
	require.Len(t, support.Tools, 2)
	assert.Equal(t, provision.PendingID("faq"), support.Tools[0].ConnectedAgent.ID)
	assert.Equal(t, provision.PendingID("rag"), support.Tools[1].ConnectedAgent.ID)

	triage := byKey["triage"].Request
	require.NotNil(t, triage.ResponseFormat)
	assert.Equal(t, foundry.ResponseFormatJSONSchema, triage.ResponseFormat.Type)
	assert.Equal(t, "questions_and_issues", triage.ResponseFormat.JSONSchema.Name)
	assert.Contains(t, triage.Instructions, "break down all the questions and issues")

	assert.Equal(t, "answered_questions", byKey["faq-to-json"].Request.ResponseFormat.JSONSchema.Name)
	assert.Equal(t, "FAQ_AGENT_TO_JSON_ID", byKey["faq-to-json"].EnvKey)
	assert.Equal(t, "TEST_AGENT_ID", byKey["getting-started"].EnvKey)
	assert.Equal(t, foundry.ResponseFormatAuto, byKey["buddy"].Request.ResponseFormat.Type)
}
