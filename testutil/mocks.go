package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockHomeAssistant creates a test server that mocks the Home Assistant REST API.
type MockHomeAssistant struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
}

// NewMockHomeAssistant creates a new mock Home Assistant server.
func NewMockHomeAssistant(t *testing.T) *MockHomeAssistant {
	t.Helper()
	m := &MockHomeAssistant{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(r.Context()))
		m.mu.Unlock()
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// RequestCount returns the number of requests the mock has seen.
func (m *MockHomeAssistant) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastAuth returns the Authorization header of the most recent request.
func (m *MockHomeAssistant) LastAuth() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ""
	}
	return m.requests[len(m.requests)-1].Header.Get("Authorization")
}

// MockSnapshot serves image bytes for the camera proxy endpoint.
func (m *MockHomeAssistant) MockSnapshot(entity string, img []byte) {
	m.Handlers["/api/camera_proxy/"+entity] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(img) //nolint:errcheck // test mock response
	}
}

// MockStream serves a 200 for the camera stream probe endpoint.
func (m *MockHomeAssistant) MockStream(entity string) {
	m.Handlers["/api/camera_proxy_stream/"+entity] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

// MockAPIRoot serves the given status for the /api/ reachability check.
func (m *MockHomeAssistant) MockAPIRoot(status int) {
	m.Handlers["/api/"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// MockStatusCode serves a bare status code for an arbitrary path.
func (m *MockHomeAssistant) MockStatusCode(path string, status int) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}
