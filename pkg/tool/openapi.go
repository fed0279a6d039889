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

package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/supportbuddy/agentctl/pkg/config"
	"github.com/supportbuddy/agentctl/pkg/foundry"
)

func openAPI(b *Builder, cfg *config.ToolConfig, _ *foundry.ToolResources) (*foundry.ToolDefinition, error) {
	spec, err := b.loadSpec(cfg.SpecFile)
	if err != nil {
		return nil, err
	}

	fn := &foundry.OpenAPIFunction{
		Name:          cfg.Name,
		Description:   cfg.Description,
		Spec:          spec,
		DefaultParams: cfg.DefaultParams,
		Auth:          foundry.OpenAPIAuth{Type: config.OpenAPIAuthAnonymous},
	}
	if cfg.Auth != nil && cfg.Auth.Type != "" {
		fn.Auth.Type = cfg.Auth.Type
		switch cfg.Auth.Type {
		case config.OpenAPIAuthConnection:
			fn.Auth.SecurityScheme = &foundry.SecurityScheme{ConnectionID: cfg.Auth.ConnectionID}
		case config.OpenAPIAuthManagedIdentity:
			fn.Auth.SecurityScheme = &foundry.SecurityScheme{Audience: cfg.Auth.Audience}
		}
	}

	return &foundry.ToolDefinition{Type: config.ToolOpenAPI, OpenAPI: fn}, nil
}

// loadSpec parses and validates an OpenAPI 3 document (JSON or YAML) and
// returns it as JSON with every reference inlined, local or in another file.
// Only references that close a cycle stay as "$ref".
func (b *Builder) loadSpec(specFile string) (json.RawMessage, error) {
	path := b.resolvePath(specFile)

	b.mu.Lock()
	defer b.mu.Unlock()
	if spec, ok := b.specs[path]; ok {
		return spec, nil
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI spec %s: %w", specFile, err)
	}
	ctx := context.Background()
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec %s: %w", specFile, err)
	}
	doc.InternalizeRefs(ctx, nil)
	inlineRefs(doc)

	spec, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode OpenAPI spec %s: %w", specFile, err)
	}
	b.specs[path] = spec
	return spec, nil
}

// refInliner clears Ref on loaded references so they marshal as their value.
type refInliner struct {
	active map[*openapi3.Schema]bool
	done   map[*openapi3.Schema]bool
}

func inlineRefs(doc *openapi3.T) {
	r := &refInliner{
		active: make(map[*openapi3.Schema]bool),
		done:   make(map[*openapi3.Schema]bool),
	}

	if doc.Paths != nil {
		for _, item := range doc.Paths.Map() {
			r.parameters(item.Parameters)
			for _, op := range item.Operations() {
				r.operation(op)
			}
		}
	}

	c := doc.Components
	if c == nil {
		return
	}
	for _, s := range c.Schemas {
		r.schema(s)
	}
	for _, p := range c.Parameters {
		r.parameter(p)
	}
	for _, b := range c.RequestBodies {
		r.requestBody(b)
	}
	for _, resp := range c.Responses {
		r.response(resp)
	}
	for _, h := range c.Headers {
		r.header(h)
	}
	for _, e := range c.Examples {
		if e != nil && e.Value != nil {
			e.Ref = ""
		}
	}
}

func (r *refInliner) operation(op *openapi3.Operation) {
	if op == nil {
		return
	}
	r.parameters(op.Parameters)
	r.requestBody(op.RequestBody)
	if op.Responses != nil {
		for _, resp := range op.Responses.Map() {
			r.response(resp)
		}
	}
}

func (r *refInliner) parameters(params openapi3.Parameters) {
	for _, p := range params {
		r.parameter(p)
	}
}

func (r *refInliner) parameter(p *openapi3.ParameterRef) {
	if p == nil || p.Value == nil {
		return
	}
	p.Ref = ""
	r.schema(p.Value.Schema)
	r.content(p.Value.Content)
}

func (r *refInliner) requestBody(b *openapi3.RequestBodyRef) {
	if b == nil || b.Value == nil {
		return
	}
	b.Ref = ""
	r.content(b.Value.Content)
}

func (r *refInliner) response(resp *openapi3.ResponseRef) {
	if resp == nil || resp.Value == nil {
		return
	}
	resp.Ref = ""
	r.content(resp.Value.Content)
	for _, h := range resp.Value.Headers {
		r.header(h)
	}
}

func (r *refInliner) header(h *openapi3.HeaderRef) {
	if h == nil || h.Value == nil {
		return
	}
	h.Ref = ""
	r.schema(h.Value.Schema)
	r.content(h.Value.Content)
}

func (r *refInliner) content(c openapi3.Content) {
	for _, mt := range c {
		if mt == nil {
			continue
		}
		r.schema(mt.Schema)
		for _, e := range mt.Examples {
			if e != nil && e.Value != nil {
				e.Ref = ""
			}
		}
	}
}

// schema inlines ref unless its schema is being walked, which would make the
// document infinitely deep.
func (r *refInliner) schema(ref *openapi3.SchemaRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	s := ref.Value
	if r.active[s] {
		return
	}
	ref.Ref = ""
	if r.done[s] {
		return
	}

	r.active[s] = true
	for _, p := range s.Properties {
		r.schema(p)
	}
	r.schema(s.Items)
	r.schema(s.Not)
	r.schema(s.AdditionalProperties.Schema)
	for _, group := range []openapi3.SchemaRefs{s.AllOf, s.AnyOf, s.OneOf} {
		for _, sub := range group {
			r.schema(sub)
		}
	}
	delete(r.active, s)
	r.done[s] = true
}
