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

package config

import (
	"fmt"
	"sort"
	"strings"
)

// ApplyOrder returns every agent key ordered so that each agent comes after
// the agents it delegates to. Ties are broken alphabetically.
func (c *Config) ApplyOrder() ([]string, error) {
	return c.applyOrder(c.AgentKeys())
}

// ApplyOrderFor is ApplyOrder restricted to the given agents and everything
// they transitively delegate to.
func (c *Config) ApplyOrderFor(keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return c.ApplyOrder()
	}

	selected := make(map[string]bool)
	var visit func(key string) error
	visit = func(key string) error {
		if selected[key] {
			return nil
		}
		agent, err := c.Agent(key)
		if err != nil {
			return err
		}
		selected[key] = true
		for _, dep := range agent.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, key := range keys {
		if err := visit(key); err != nil {
			return nil, err
		}
	}

	subset := make([]string, 0, len(selected))
	for key := range selected {
		subset = append(subset, key)
	}
	sort.Strings(subset)
	return c.applyOrder(subset)
}

func (c *Config) applyOrder(keys []string) ([]string, error) {
	inSet := make(map[string]bool, len(keys))
	for _, key := range keys {
		inSet[key] = true
	}

	pending := make(map[string]int, len(keys))
	dependents := make(map[string][]string, len(keys))
	for _, key := range keys {
		for _, dep := range c.Agents[key].Dependencies() {
			if !inSet[dep] {
				continue
			}
			pending[key]++
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var ready []string
	for _, key := range keys {
		if pending[key] == 0 {
			ready = append(ready, key)
		}
	}

	order := make([]string, 0, len(keys))
	for len(ready) > 0 {
		sort.Strings(ready)
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)
		for _, next := range dependents[key] {
			pending[next]--
			if pending[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(keys) {
		var cyclic []string
		for _, key := range keys {
			if pending[key] > 0 {
				cyclic = append(cyclic, key)
			}
		}
		return nil, fmt.Errorf("connected agents form a cycle: %s", strings.Join(cyclic, ", "))
	}
	return order, nil
}
