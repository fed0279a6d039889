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

package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitGlobalTracer_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tp, shutdown, err := InitGlobalTracer(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitGlobalTracer_Stdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	tp, shutdown, err := InitGlobalTracer(context.Background(),
		TracingConfig{Exporter: ExporterStdout, ServiceVersion: "test"},
		WithStdoutWriter(&buf),
	)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "POST /assistants")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name": "POST /assistants"`)
	assert.Contains(t, buf.String(), "agentctl")
}

func TestTracingConfig_Validate(t *testing.T) {
	cfg := TracingConfig{Exporter: "zipkin"}
	assert.Error(t, cfg.Validate())

	cfg = TracingConfig{Exporter: ExporterOTLP, SamplingRate: 2}
	assert.Error(t, cfg.Validate())

	cfg = TracingConfig{Exporter: ExporterOTLP}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultOTLPEndpoint, cfg.Endpoint)
}
