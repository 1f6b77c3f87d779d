// Copyright 2025 Patrick J. Scruggs
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

// Package raygunmock provides an in-process stand-in for the Raygun ingestion
// endpoint. It applies the same request checks the real endpoint does so that
// tests exercising [github.com/pjscruggs/slograygun/raygunhttp] fail on
// malformed payloads rather than silently accepting them.
package raygunmock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"

	"github.com/pjscruggs/slograygun"
)

const apiKeyHeader = "X-ApiKey"

// requiredPaths lists the fields every accepted payload must carry.
var requiredPaths = [][]string{
	{"occurredOn"},
	{"details", "machineName"},
	{"details", "client", "name"},
	{"details", "error", "className"},
	{"details", "error", "message"},
	{"details", "error", "stackTrace"},
}

// Entry is one request accepted by the server.
type Entry struct {
	APIKey   string
	Header   http.Header
	Raw      []byte
	Message  slograygun.Message
	Received time.Time
}

// Option configures a [Server].
type Option func(*Server)

// WithAPIKeys restricts accepted requests to the given keys. Requests with
// any other key are answered 403 Forbidden. By default every non-empty key
// is accepted.
func WithAPIKeys(keys ...string) Option {
	return func(s *Server) {
		s.keys = append(s.keys, keys...)
	}
}

// WithStatus forces every request to be answered with code, after the
// payload has been recorded.
func WithStatus(code int) Option {
	return func(s *Server) {
		s.forced = code
	}
}

// Server is a recording Raygun endpoint backed by httptest.
type Server struct {
	srv    *httptest.Server
	parser fastjson.ParserPool
	keys   []string
	forced int

	mu       sync.Mutex
	entries  []Entry
	rejected []error
}

// NewServer starts a Server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handleEntries))
	return s
}

// URL returns the entries endpoint URL.
func (s *Server) URL() string { return s.srv.URL + "/entries" }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// Entries returns a copy of the accepted entries in arrival order.
func (s *Server) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Rejected returns the validation errors of rejected requests.
func (s *Server) Rejected() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rejected)
}

// Reset discards recorded entries and rejections.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.rejected = nil
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" || (len(s.keys) > 0 && !slices.Contains(s.keys, apiKey)) {
		s.reject(fmt.Errorf("raygunmock: api key %q not accepted", apiKey))
		http.Error(w, "invalid api key", http.StatusForbidden)
		return
	}

	body, err := readBody(r)
	if err != nil {
		s.reject(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.validate(body); err != nil {
		s.reject(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var msg slograygun.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		s.reject(fmt.Errorf("raygunmock: decode payload: %w", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.entries = append(s.entries, Entry{
		APIKey:   apiKey,
		Header:   r.Header.Clone(),
		Raw:      body,
		Message:  msg,
		Received: time.Now(),
	})
	s.mu.Unlock()

	if s.forced != 0 {
		http.Error(w, http.StatusText(s.forced), s.forced)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) reject(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, err)
}

// validate checks body is a JSON object carrying every required field.
func (s *Server) validate(body []byte) error {
	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return fmt.Errorf("raygunmock: invalid JSON: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return errors.New("raygunmock: payload must be a JSON object")
	}
	for _, path := range requiredPaths {
		if !v.Exists(path...) {
			return fmt.Errorf("raygunmock: missing field %v", path)
		}
	}
	if v.Get("details", "error", "stackTrace").Type() != fastjson.TypeArray {
		return errors.New("raygunmock: details.error.stackTrace must be an array")
	}
	return nil
}

// readBody returns the request body, inflating gzip encoded payloads.
func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()

	var src io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("raygunmock: gzip body: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("raygunmock: read body: %w", err)
	}
	return body, nil
}
