package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/validation"
)

const (
	messageInvalidJSON   = "Invalid JSON body"
	messageBodyTooLarge  = "Request body too large"
	messageNotFound      = "Resource not found"
	messageUserNotFound  = "User not found"
	messageEventNotFound = "Event not found"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// decodeJSON reads a single JSON document into dst. An empty body decodes
// to the zero value so missing-field checks produce the field message.
// Unknown fields are ignored; they are how clients try to set protected
// attributes such as organizer_id.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, messageBodyTooLarge, err, env)
		return false
	}
	problem.Write(w, r, http.StatusBadRequest, messageInvalidJSON, err, env)
	return false
}

// writeValidation answers 400 with the field message when err is a client
// input error and reports whether it did.
func writeValidation(w http.ResponseWriter, r *http.Request, err error, env string) bool {
	if !validation.IsValidationError(err) {
		return false
	}
	problem.Write(w, r, http.StatusBadRequest, err.Error(), err, env)
	return true
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusNotFound, messageNotFound, nil, "")
}
