package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

func TestBuiltinSchema_Triage(t *testing.T) {
	raw, err := BuiltinSchema("triage")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "$schema")
	assert.ElementsMatch(t, []any{"questions", "issues"}, schema["required"])
}

func TestBuiltinSchema_Unknown(t *testing.T) {
	_, err := BuiltinSchema("nope")
	assert.ErrorContains(t, err, "unknown builtin format")
}

func TestBuiltins_AllCompile(t *testing.T) {
	for _, name := range Builtins() {
		t.Run(name, func(t *testing.T) {
			raw, err := BuiltinSchema(name)
			require.NoError(t, err)
			_, err = compile(raw)
			assert.NoError(t, err)
		})
	}
}

func TestBuild_NilIsAuto(t *testing.T) {
	rf, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.ResponseFormatAuto, rf.Type)
}

func TestBuild_BuiltinWithExamples(t *testing.T) {
	cfg := &config.ResponseFormatConfig{
		Type:    config.FormatJSONSchema,
		Name:    "answered_questions",
		Builtin: "answered_questions",
		Examples: []any{
			map[string]any{
				"answered_questions": []any{
					map[string]any{"question": "What is the market size?", "answer": "$1 billion."},
				},
				"unanswered_questions": []any{
					map[string]any{"question": "What is the user sentiment?"},
				},
			},
		},
	}

	rf, err := Build(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.ResponseFormatJSONSchema, rf.Type)
	require.NotNil(t, rf.JSONSchema)
	assert.Equal(t, "answered_questions", rf.JSONSchema.Name)
	assert.Contains(t, string(rf.JSONSchema.Schema), "unanswered_questions")
}

func TestBuild_ExampleMismatch(t *testing.T) {
	cfg := &config.ResponseFormatConfig{
		Type:     config.FormatJSONSchema,
		Name:     "triage",
		Builtin:  "triage",
		Examples: []any{map[string]any{"questions": "not a list", "issues": []any{}}},
	}

	_, err := Build(cfg, nil)
	assert.ErrorContains(t, err, "examples[0] does not match schema")
}

func TestBuild_InlineSchema(t *testing.T) {
	cfg := &config.ResponseFormatConfig{
		Type: config.FormatJSONSchema,
		Name: "questions_and_issues",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
		Examples: []any{map[string]any{"questions": []any{"why?"}}},
	}

	rf, err := Build(cfg, nil)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"object","properties":{"questions":{"type":"array","items":{"type":"string"}}}}`,
		string(rf.JSONSchema.Schema))
}

func TestBuild_SchemaFileResolvedAgainstManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.json"), []byte(`{
  "type": "object",
  "properties": {"ok": {"type": "boolean"}},
  "required": ["ok"]
}`), 0o644))

	cfg := &config.ResponseFormatConfig{Type: config.FormatJSONSchema, Name: "out", SchemaFile: "out.json"}
	manifest := &config.Config{}
	manifest.SetBaseDir(dir)

	rf, err := Build(cfg, manifest.ResolvePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"ok":{"type":"boolean"}},"required":["ok"]}`, string(rf.JSONSchema.Schema))
}

func TestBuild_SchemaFileNotJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("type: object"), 0o644))

	_, err := Build(&config.ResponseFormatConfig{Type: config.FormatJSONSchema, Name: "bad", SchemaFile: path}, nil)
	assert.ErrorContains(t, err, "is not JSON")
}

func TestBuild_TextAndJSONObject(t *testing.T) {
	rf, err := Build(&config.ResponseFormatConfig{Type: config.FormatText}, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.ResponseFormatText, rf.Type)

	rf, err = Build(&config.ResponseFormatConfig{Type: config.FormatJSONObject}, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.ResponseFormatJSONObject, rf.Type)
}
