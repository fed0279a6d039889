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

// Package foundrytest provides an in-memory fake of the agent endpoints for
// tests.
package foundrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/supportbuddy/agentctl/pkg/foundry"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   *foundry.AgentRequest
}

// Server is a fake Agent Service backed by a map.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	agents map[string]*foundry.Agent
	calls  []Call
	nextID int
	fail   map[string]failure

	// PageSize bounds list pages to exercise pagination.
	PageSize int
}

type failure struct {
	status  int
	code    string
	message string
}

// NewServer starts a fake. Close it when done.
func NewServer() *Server {
	s := &Server{
		agents:   make(map[string]*foundry.Agent),
		fail:     make(map[string]failure),
		PageSize: 100,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Seed stores an agent as if it had been created earlier.
func (s *Server) Seed(a foundry.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := a
	s.agents[a.ID] = &cp
}

// Agent returns a stored agent.
func (s *Server) Agent(id string) (foundry.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return foundry.Agent{}, false
	}
	return *a, true
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CountCalls counts requests with the given method whose path has prefix.
func (s *Server) CountCalls(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// FailNext makes every request with method fail with the given status and
// service error until cleared with FailNext(method, 0, "", "").
func (s *Server) FailNext(method string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, method)
		return
	}
	s.fail[method] = failure{status: status, code: code, message: message}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := Call{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil && r.ContentLength != 0 && r.Method == http.MethodPost {
		var body foundry.AgentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		call.Body = &body
	}
	s.calls = append(s.calls, call)

	if r.URL.Query().Get("api-version") == "" {
		writeError(w, http.StatusBadRequest, "missing_api_version", "api-version is required")
		return
	}
	if f, ok := s.fail[r.Method]; ok {
		writeError(w, f.status, f.code, f.message)
		return
	}

	id, hasID := strings.CutPrefix(r.URL.Path, "/assistants/")
	switch {
	case r.URL.Path == "/assistants" && r.Method == http.MethodPost:
		s.create(w, call.Body)
	case r.URL.Path == "/assistants" && r.Method == http.MethodGet:
		s.list(w, r)
	case hasID && r.Method == http.MethodPost:
		s.update(w, id, call.Body)
	case hasID && r.Method == http.MethodGet:
		s.get(w, id)
	case hasID && r.Method == http.MethodDelete:
		s.delete(w, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path)
	}
}

func (s *Server) create(w http.ResponseWriter, body *foundry.AgentRequest) {
	if body == nil || body.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "model is required")
		return
	}
	s.nextID++
	a := agentFrom(fmt.Sprintf("asst_%06d", s.nextID), body)
	a.CreatedAt = int64(s.nextID)
	s.agents[a.ID] = a
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) update(w http.ResponseWriter, id string, body *foundry.AgentRequest) {
	existing, ok := s.agents[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "No assistant found with id '"+id+"'.")
		return
	}
	if body == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "body is required")
		return
	}
	a := agentFrom(id, body)
	a.CreatedAt = existing.CreatedAt
	s.agents[id] = a
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) get(w http.ResponseWriter, id string) {
	a, ok := s.agents[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "No assistant found with id '"+id+"'.")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) delete(w http.ResponseWriter, id string) {
	if _, ok := s.agents[id]; !ok {
		writeError(w, http.StatusNotFound, "not_found", "No assistant found with id '"+id+"'.")
		return
	}
	delete(s.agents, id)
	writeJSON(w, http.StatusOK, foundry.DeletionStatus{ID: id, Object: "assistant.deleted", Deleted: true})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if after := r.URL.Query().Get("after"); after != "" {
		i := sort.SearchStrings(ids, after)
		if i < len(ids) && ids[i] == after {
			i++
		}
		ids = ids[i:]
	}

	limit := s.PageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v < limit {
		limit = v
	}
	page := foundry.AgentList{Object: "list", Data: []foundry.Agent{}}
	for i, id := range ids {
		if i == limit {
			page.HasMore = true
			break
		}
		page.Data = append(page.Data, *s.agents[id])
	}
	if n := len(page.Data); n > 0 {
		page.FirstID = page.Data[0].ID
		page.LastID = page.Data[n-1].ID
	}
	writeJSON(w, http.StatusOK, page)
}

func agentFrom(id string, body *foundry.AgentRequest) *foundry.Agent {
	return &foundry.Agent{
		ID:             id,
		Object:         "assistant",
		Name:           body.Name,
		Description:    body.Description,
		Model:          body.Model,
		Instructions:   body.Instructions,
		Tools:          body.Tools,
		ToolResources:  body.ToolResources,
		ResponseFormat: body.ResponseFormat,
		Temperature:    body.Temperature,
		TopP:           body.TopP,
		Metadata:       body.Metadata,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("x-ms-request-id", "req-fake")
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
