// Package providertest provides a scripted HTTP endpoint for exercising
// provider adapters without reaching a vendor API.
package providertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Reply is one canned response. A zero Status means 200.
type Reply struct {
	Status int
	Body   any
}

// JSON is a successful reply carrying body.
func JSON(body any) Reply { return Reply{Body: body} }

// Fail is an error reply.
func Fail(status int, body any) Reply { return Reply{Status: status, Body: body} }

// Request is a captured call.
type Request struct {
	Path   string
	Header http.Header
	Body   map[string]any
}

// Server replays replies in order and records every request. Once the queue
// is drained it answers 500.
type Server struct {
	URL string

	mu       sync.Mutex
	replies  []Reply
	requests []Request
}

// New starts a Server that is closed when the test ends.
func New(t *testing.T, replies ...Reply) *Server {
	t.Helper()

	s := &Server{replies: replies}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	s.URL = srv.URL

	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.requests = append(s.requests, Request{Path: r.URL.Path, Header: r.Header.Clone(), Body: body})

	rep := Fail(http.StatusInternalServerError, map[string]any{"error": map[string]any{"message": "no reply scripted"}})
	if len(s.replies) > 0 {
		rep, s.replies = s.replies[0], s.replies[1:]
	}

	w.Header().Set("Content-Type", "application/json")
	if rep.Status != 0 {
		w.WriteHeader(rep.Status)
	}
	_ = json.NewEncoder(w).Encode(rep.Body)
}

// Request returns the i-th captured request.
func (s *Server) Request(t *testing.T, i int) Request {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	require.Greater(t, len(s.requests), i, "request %d was never sent", i)
	return s.requests[i]
}

// Count returns how many requests arrived.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// Objects asserts that body[key] is a JSON array of objects and returns it.
func Objects(t *testing.T, body map[string]any, key string) []map[string]any {
	t.Helper()

	raw, ok := body[key].([]any)
	require.True(t, ok, "%q is not an array", key)

	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		require.True(t, ok, "%q holds a non-object", key)
		out = append(out, m)
	}
	return out
}
