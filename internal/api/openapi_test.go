package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestOpenAPIHandler(t *testing.T) {
	w := httptest.NewRecorder()
	OpenAPIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("document is not JSON: %v", err)
	}
	if doc.OpenAPI == "" {
		t.Error("expected openapi version")
	}

	routes := map[string][]string{
		"/api/health":               {"get"},
		"/api/auth/register":        {"post"},
		"/api/auth/login":           {"post"},
		"/api/auth/profile":         {"get"},
		"/api/auth/logout":          {"post"},
		"/api/events":               {"get", "post"},
		"/api/events/{id}":          {"get", "put", "delete"},
		"/api/events/{id}/register": {"post"},
		"/api/contact":              {"post"},
		"/api/user/events":          {"get"},
		"/api/user/profile":         {"put"},
	}
	for path, methods := range routes {
		item, ok := doc.Paths[path]
		if !ok {
			t.Errorf("path %s missing from document", path)
			continue
		}
		for _, method := range methods {
			if _, ok := item[method]; !ok {
				t.Errorf("%s %s missing from document", method, path)
			}
		}
	}
}

func TestOpenAPIHandlerConcurrentRequests(t *testing.T) {
	handler := OpenAPIHandler()

	var wg sync.WaitGroup
	bodies := make([]string, 10)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
			bodies[i] = w.Body.String()
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Fatal("expected identical cached documents")
		}
	}
}
