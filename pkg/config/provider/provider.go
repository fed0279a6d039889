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

// Package provider defines the manifest source abstraction.
package provider

import (
	"context"
	"fmt"
)

// Type identifies the manifest source type.
type Type string

const (
	TypeFile  Type = "file"
	TypeBytes Type = "bytes"
)

// Provider abstracts manifest sources.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Type returns the provider type for logging/debugging.
	Type() Type

	// Load reads raw manifest bytes from the source.
	Load(ctx context.Context) ([]byte, error)

	// Watch signals via the returned channel whenever the manifest changes.
	// Cancel the context to stop watching.
	// Returns nil channel if watching is not supported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ProviderConfig configures provider creation.
type ProviderConfig struct {
	Type Type

	// Path is the manifest file path.
	Path string
}

// New creates a Provider based on ProviderConfig.
func New(opts ProviderConfig) (Provider, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("manifest path is required")
	}

	switch opts.Type {
	case TypeFile, "":
		return NewFileProvider(opts.Path)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", opts.Type)
	}
}

// BytesProvider serves a fixed in-memory manifest. It never reports changes.
type BytesProvider struct {
	data []byte
}

// NewBytesProvider creates a provider over data.
func NewBytesProvider(data []byte) *BytesProvider {
	return &BytesProvider{data: data}
}

func (p *BytesProvider) Type() Type { return TypeBytes }

func (p *BytesProvider) Load(context.Context) ([]byte, error) { return p.data, nil }

func (p *BytesProvider) Watch(context.Context) (<-chan struct{}, error) { return nil, nil }

func (p *BytesProvider) Close() error { return nil }

var _ Provider = (*BytesProvider)(nil)
