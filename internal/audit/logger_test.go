package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventpro/server/internal/api/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Audit   Entry  `json:"audit"`
}

func parseLine(t *testing.T, buf *bytes.Buffer) logLine {
	t.Helper()
	var line logLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	return line
}

func TestLoggerLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	logger.Log(Entry{
		Action:       ActionEventUpdate,
		ActorID:      "01HX12ABC123",
		ResourceType: "event",
		ResourceID:   "01HX12EVT456",
		IPAddress:    "192.168.1.1",
		Status:       StatusSuccess,
		Details:      map[string]string{"fields": "title"},
	})

	line := parseLine(t, &buf)
	require.Equal(t, "info", line.Level)
	require.Equal(t, ActionEventUpdate, line.Message)
	require.Equal(t, "01HX12ABC123", line.Audit.ActorID)
	require.Equal(t, "01HX12EVT456", line.Audit.ResourceID)
	require.Equal(t, "192.168.1.1", line.Audit.IPAddress)
	require.Equal(t, "title", line.Audit.Details["fields"])
	require.True(t, line.Audit.Timestamp.Equal(fixed))
}

func TestLoggerDeniedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Log(Entry{Action: ActionEventDelete, ActorID: "intruder", Status: StatusDenied})

	line := parseLine(t, &buf)
	require.Equal(t, "warn", line.Level)
	require.Equal(t, StatusDenied, line.Audit.Status)
	require.False(t, line.Audit.Timestamp.IsZero())
}

func TestLoggerEventFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		wantIP     string
	}{
		{name: "host and port", remoteAddr: "10.0.0.7:51234", wantIP: "10.0.0.7"},
		{name: "ignores forwarded header", remoteAddr: "10.0.0.7:51234", forwarded: "203.0.113.9", wantIP: "10.0.0.7"},
		{name: "bare address", remoteAddr: "10.0.0.8", wantIP: "10.0.0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(zerolog.New(&buf))
			req := httptest.NewRequest(http.MethodDelete, "/api/events/evt-1", nil)
			req.RemoteAddr = tt.remoteAddr
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			logger.Event(req, ActionEventDelete, "owner-1", "evt-1", StatusSuccess, nil)

			line := parseLine(t, &buf)
			require.Equal(t, tt.wantIP, line.Audit.IPAddress)
			require.Equal(t, "event", line.Audit.ResourceType)
			require.Equal(t, "evt-1", line.Audit.ResourceID)
			require.Equal(t, "req-42", line.Audit.RequestID)
		})
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var logger *Logger
	req := httptest.NewRequest(http.MethodPut, "/api/events/x", nil)

	require.NotPanics(t, func() {
		logger.Log(Entry{Action: ActionEventUpdate})
		logger.Event(req, ActionEventUpdate, "a", "b", StatusSuccess, nil)
	})
}
