// Package problem writes error responses. Every error body carries a
// client-facing "message"; the underlying error text is only exposed in
// development and test environments.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json"

// MessageInternal is the only text clients see for unexpected failures
// outside development.
const MessageInternal = "Internal server error"

type Body struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Write logs err and sends {"message": message}. For 5xx responses in
// production the message is replaced by MessageInternal.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, err error, env string) {
	body := Body{Message: message}
	exposeDetail := env == "development" || env == "test"

	if status >= http.StatusInternalServerError && !exposeDetail {
		body.Message = MessageInternal
	}
	if err != nil && exposeDetail && err.Error() != message {
		body.Error = err.Error()
	}

	if r != nil {
		logger := zerolog.Ctx(r.Context())
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error().
				Err(err).
				Int("status", status).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(message)
		case err != nil && status >= http.StatusBadRequest:
			logger.Warn().
				Err(err).
				Int("status", status).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(message)
		}
	}

	WriteBody(w, status, body)
}

func WriteBody(w http.ResponseWriter, status int, body Body) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"` + MessageInternal + `"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
