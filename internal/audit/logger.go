// Package audit records owner-only mutations (event edits and deletes) as
// structured log lines, separate from request logs.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/eventpro/server/internal/api/middleware"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
	StatusFailure = "failure"
)

const (
	ActionEventUpdate = "event.update"
	ActionEventDelete = "event.delete"
)

type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	ActorID      string            `json:"actor_id"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address"`
	Status       string            `json:"status"`
	RequestID    string            `json:"request_id,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes entries under an "audit" object. A nil *Logger discards
// everything.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	event := l.logger.Info()
	if entry.Status != StatusSuccess {
		event = l.logger.Warn()
	}

	fields := zerolog.Dict().
		Time("timestamp", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor_id", entry.ActorID).
		Str("ip_address", entry.IPAddress).
		Str("status", entry.Status)
	if entry.ResourceType != "" {
		fields = fields.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		fields = fields.Str("resource_id", entry.ResourceID)
	}
	if entry.RequestID != "" {
		fields = fields.Str("request_id", entry.RequestID)
	}
	if len(entry.Details) > 0 {
		details := zerolog.Dict()
		for key, value := range entry.Details {
			details = details.Str(key, value)
		}
		fields = fields.Dict("details", details)
	}

	event.Dict("audit", fields).Msg(entry.Action)
}

// Event records an action against the event identified by eventID on behalf
// of actorID.
func (l *Logger) Event(r *http.Request, action, actorID, eventID, status string, details map[string]string) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Action:       action,
		ActorID:      actorID,
		ResourceType: "event",
		ResourceID:   eventID,
		IPAddress:    remoteIP(r),
		Status:       status,
		RequestID:    middleware.GetRequestID(r.Context()),
		Details:      details,
	})
}

// remoteIP uses the connection address only. Forwarded headers are
// client-controlled and not trusted here.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
