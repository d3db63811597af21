package handlers

import (
	"net/http"

	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/domain/contacts"
)

type ContactHandler struct {
	Service *contacts.Service
	Env     string
}

func NewContactHandler(service *contacts.Service, env string) *ContactHandler {
	return &ContactHandler{Service: service, Env: env}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input contacts.Input
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}

	if _, err := h.Service.Submit(r.Context(), input); err != nil {
		if writeValidation(w, r, err, h.Env) {
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "submit contact failed", err, h.Env)
		return
	}
	writeMessage(w, http.StatusCreated, "Contact form submitted successfully")
}
