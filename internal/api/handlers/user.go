package handlers

import (
	"net/http"

	"github.com/eventpro/server/internal/api/middleware"
	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/users"
)

// UserHandler serves the signed-in user's own resources.
type UserHandler struct {
	EventsService *events.Service
	UsersService  *users.Service
	Env           string
}

func NewUserHandler(eventsService *events.Service, usersService *users.Service, env string) *UserHandler {
	return &UserHandler{EventsService: eventsService, UsersService: usersService, Env: env}
}

func (h *UserHandler) Events(w http.ResponseWriter, r *http.Request) {
	items, err := h.EventsService.ListByOrganizer(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "list organizer events failed", err, h.Env)
		return
	}

	views := make([]eventView, 0, len(items))
	for _, item := range items {
		views = append(views, newCountedEventView(item))
	}
	writeJSON(w, http.StatusOK, eventListResponse{Events: views})
}

// UpdateProfile only touches name and phone; every other key is dropped
// while decoding.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch users.ProfilePatch
	if !decodeJSON(w, r, &patch, h.Env) {
		return
	}

	if err := h.UsersService.UpdateProfile(r.Context(), middleware.UserID(r.Context()), patch); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "update profile failed", err, h.Env)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated successfully")
}
