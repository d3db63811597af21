package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPerformHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		responseBody   any
		expectError    bool
		expectedStatus string
	}{
		{
			name:       "healthy server",
			statusCode: http.StatusOK,
			responseBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]CheckResult{"database": {Status: "pass"}},
			},
			expectedStatus: "healthy",
		},
		{
			name:       "healthy with orphan warning",
			statusCode: http.StatusOK,
			responseBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]CheckResult{
					"database":      {Status: "pass"},
					"registrations": {Status: "warn", Message: "2 orphaned registrations"},
				},
			},
			expectedStatus: "healthy",
		},
		{
			name:           "unhealthy server (503)",
			statusCode:     http.StatusServiceUnavailable,
			responseBody:   HealthResponse{Status: "unhealthy"},
			expectedStatus: "unhealthy",
		},
		{
			name:         "unexpected status",
			statusCode:   http.StatusInternalServerError,
			responseBody: HealthResponse{Status: "healthy"},
			expectError:  true,
		},
		{
			name:         "invalid response",
			statusCode:   http.StatusOK,
			responseBody: "not json",
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if str, ok := tt.responseBody.(string); ok {
					fmt.Fprint(w, str)
					return
				}
				_ = json.NewEncoder(w).Encode(tt.responseBody)
			}))
			defer server.Close()

			resp, err := performHealthCheck(context.Background(), server.URL+"/api/health")
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedStatus, resp.Status)
		})
	}
}

func TestPerformHealthCheckTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := performHealthCheck(ctx, server.URL)
	require.Error(t, err)
}

func TestHealthcheckCommand(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectError bool
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"healthy"}`},
		{name: "unhealthy", status: http.StatusServiceUnavailable, body: `{"status":"unhealthy","checks":{"database":{"status":"fail","message":"ping failed"}}}`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			root := newRootCommand()
			out := new(bytes.Buffer)
			root.SetOut(out)
			root.SetErr(out)
			root.SetArgs([]string{"healthcheck", "--url", server.URL})

			err := root.Execute()
			if tt.expectError {
				require.Error(t, err)
				require.Contains(t, out.String(), "database: fail ping failed")
				return
			}
			require.NoError(t, err)
			require.Contains(t, out.String(), "healthy")
		})
	}
}

func TestDefaultHealthURL(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	require.Equal(t, "http://localhost:9000/api/health", defaultHealthURL())

	t.Setenv("SERVER_PORT", "")
	require.Equal(t, "http://localhost:5000/api/health", defaultHealthURL())
}
