package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shopdash/internal/config"
)

const (
	TestAccessToken = "shpat_test_token"
	TestAPIVersion  = "2024-01"
)

// RecordedRequest is one call received by the fake upstream.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type cannedResponse struct {
	status int
	body   string
}

// FakeUpstream is an in-process stand-in for the commerce platform. Routes are
// keyed by "METHOD /path"; unknown routes answer 404 with a platform-style body.
type FakeUpstream struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]cannedResponse
	requests  []RecordedRequest
}

// NewFakeUpstream starts the fake and closes it when the test ends.
func NewFakeUpstream(t *testing.T) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{responses: make(map[string]cannedResponse)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Respond registers the status and body returned for method and path.
func (f *FakeUpstream) Respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = cannedResponse{status: status, body: body}
}

// Requests returns a copy of everything received so far.
func (f *FakeUpstream) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Config returns upstream settings pointing at the fake.
func (f *FakeUpstream) Config() config.UpstreamConfig {
	return config.UpstreamConfig{
		StoreURL:    f.Server.URL,
		AccessToken: TestAccessToken,
		APIVersion:  TestAPIVersion,
	}
}

// ProductsPath is the versioned collection path, e.g. /admin/api/2024-01/products.json.
func ProductsPath() string {
	return "/admin/api/" + TestAPIVersion + "/products.json"
}

// ProductPath is the versioned member path for id.
func ProductPath(id string) string {
	return "/admin/api/" + TestAPIVersion + "/products/" + id + ".json"
}

func (f *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":"Not Found"}`))
		return
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
