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

// Package observability sets up OpenTelemetry tracing for agentctl.
package observability

import (
	"fmt"
	"time"
)

// Exporters.
const (
	ExporterNone   = ""
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	DefaultServiceName  = "agentctl"
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultSamplingRate = 1.0
	DefaultTimeout      = 10 * time.Second
)

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Exporter selects where spans go. Empty disables tracing.
	// Values: "stdout", "otlp"
	Exporter string

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string

	// Insecure disables TLS for the OTLP connection.
	Insecure bool

	// SamplingRate is the fraction of traces sampled, 0.0 to 1.0.
	// Default: 1.0
	SamplingRate float64

	ServiceName    string
	ServiceVersion string

	// Timeout bounds exporter operations.
	// Default: 10s
	Timeout time.Duration
}

// Enabled reports whether an exporter is configured.
func (c *TracingConfig) Enabled() bool {
	return c.Exporter != ExporterNone
}

// SetDefaults applies default values.
func (c *TracingConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = DefaultSamplingRate
	}
	if c.Exporter == ExporterOTLP && c.Endpoint == "" {
		c.Endpoint = DefaultOTLPEndpoint
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration.
func (c *TracingConfig) Validate() error {
	switch c.Exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("unknown trace exporter %q (want stdout or otlp)", c.Exporter)
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %v", c.SamplingRate)
	}
	return nil
}
