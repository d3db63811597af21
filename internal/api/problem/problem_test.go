package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, res *httptest.ResponseRecorder) Body {
	t.Helper()
	var body Body
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWrite_ClientErrorKeepsMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/events/1/register", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, "Event is full", errors.New("event is full"), "production")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := res.Result().Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json, got %s", got)
	}
	body := decode(t, res)
	if body.Message != "Event is full" {
		t.Fatalf("expected message, got %q", body.Message)
	}
	if body.Error != "" {
		t.Fatalf("expected no error detail in production, got %q", body.Error)
	}
}

func TestWrite_ProdHidesServerErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/events", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusInternalServerError, "list events failed", errors.New("dial tcp 10.0.0.5:5432: refused"), "production")

	body := decode(t, res)
	if body.Message != MessageInternal {
		t.Fatalf("expected sanitized message, got %q", body.Message)
	}
	if body.Error != "" {
		t.Fatalf("expected no detail, got %q", body.Error)
	}
}

func TestWrite_DevIncludesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/events", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusInternalServerError, "list events failed", errors.New("boom"), "development")

	body := decode(t, res)
	if body.Message != "list events failed" {
		t.Fatalf("expected original message, got %q", body.Message)
	}
	if body.Error != "boom" {
		t.Fatalf("expected detail boom, got %q", body.Error)
	}
}

func TestWrite_NilError(t *testing.T) {
	res := httptest.NewRecorder()

	Write(res, nil, http.StatusNotFound, "Resource not found", nil, "test")

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if body := decode(t, res); body.Message != "Resource not found" || body.Error != "" {
		t.Fatalf("unexpected body %+v", body)
	}
}
