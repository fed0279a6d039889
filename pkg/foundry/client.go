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

// Package foundry is a client for the agent endpoints of the Azure AI Foundry
// Agent Service.
package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/supportbuddy/agentctl/pkg/httpclient"
)

const (
	DefaultAPIVersion = "v1"

	tracerName = "github.com/supportbuddy/agentctl/pkg/foundry"
	userAgent  = "agentctl"
)

// Client calls the agent endpoints of one project.
type Client struct {
	endpoint   string
	apiVersion string
	http       *httpclient.Client
	auth       Authorizer
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithHTTPClient sets the transport client.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithAuthorizer sets how requests are authenticated. Without one, requests
// are sent unauthenticated.
func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// WithTracerProvider traces requests with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// NewClient returns a client for the project at endpoint, e.g.
// https://<resource>.services.ai.azure.com/api/projects/<project>.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("foundry: invalid endpoint %q: %w", endpoint, err)
	}

	c := &Client{
		endpoint:   endpoint,
		apiVersion: DefaultAPIVersion,
		http:       httpclient.New(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the project endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CreateAgent creates a new agent.
func (c *Client) CreateAgent(ctx context.Context, req *AgentRequest) (*Agent, error) {
	return call[Agent](ctx, c, http.MethodPost, "/assistants", nil, req)
}

// UpdateAgent replaces the definition of an existing agent.
func (c *Client) UpdateAgent(ctx context.Context, id string, req *AgentRequest) (*Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("foundry: update requires an agent id")
	}
	return call[Agent](ctx, c, http.MethodPost, "/assistants/"+url.PathEscape(id), nil, req)
}

// GetAgent fetches one agent.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("foundry: get requires an agent id")
	}
	return call[Agent](ctx, c, http.MethodGet, "/assistants/"+url.PathEscape(id), nil, nil)
}

// DeleteAgent deletes one agent.
func (c *Client) DeleteAgent(ctx context.Context, id string) (*DeletionStatus, error) {
	if id == "" {
		return nil, fmt.Errorf("foundry: delete requires an agent id")
	}
	return call[DeletionStatus](ctx, c, http.MethodDelete, "/assistants/"+url.PathEscape(id), nil, nil)
}

// ListAgents returns every agent in the project, following pagination.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	const pageSize = 100

	var (
		agents []Agent
		after  string
	)
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("order", "asc")
		if after != "" {
			q.Set("after", after)
		}

		page, err := call[AgentList](ctx, c, http.MethodGet, "/assistants", q, nil)
		if err != nil {
			return nil, err
		}
		agents = append(agents, page.Data...)

		if !page.HasMore || len(page.Data) == 0 {
			return agents, nil
		}
		after = page.LastID
		if after == "" {
			after = page.Data[len(page.Data)-1].ID
		}
	}
}

// call sends one request and decodes a JSON response into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	ctx, span := c.tracer.Start(ctx, "foundry "+method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	result, err := c.send(ctx, span, method, path, query, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var out T
	if err := json.Unmarshal(result, &out); err != nil {
		err = fmt.Errorf("foundry: decode %s %s response: %w", method, path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &out, nil
}

func (c *Client) send(ctx context.Context, span trace.Span, method, path string, query url.Values, body any) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)
	target := c.endpoint + path + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("foundry: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("foundry: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-ms-client-request-id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	span.SetAttributes(attribute.String("az.client_request_id", requestID))

	if c.auth != nil {
		if err := c.auth.Authorize(ctx, req); err != nil {
			return nil, fmt.Errorf("foundry: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("foundry: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("foundry: read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp, data)
	}
	return data, nil
}

// routeOf replaces the agent id in path so span names stay low-cardinality.
func routeOf(path string) string {
	if strings.HasPrefix(path, "/assistants/") {
		return "/assistants/{id}"
	}
	return path
}
