package handlers

import (
	"errors"
	"net/http"

	"github.com/eventpro/server/internal/api/middleware"
	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/audit"
	"github.com/eventpro/server/internal/domain/events"
	"github.com/eventpro/server/internal/domain/registrations"
)

type EventsHandler struct {
	Service *events.Service
	Engine  *registrations.Engine
	// Audit is optional; nil disables the owner-action trail.
	Audit *audit.Logger
	Env   string
}

func NewEventsHandler(service *events.Service, engine *registrations.Engine, env string) *EventsHandler {
	return &EventsHandler{Service: service, Engine: engine, Env: env}
}

type eventListResponse struct {
	Events []eventView `json:"events"`
}

type eventResponse struct {
	Event eventView `json:"event"`
}

type eventCreatedResponse struct {
	Message string    `json:"message"`
	Event   eventView `json:"event"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListPublished(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "list events failed", err, h.Env)
		return
	}

	views := make([]eventView, 0, len(items))
	for _, item := range items {
		views = append(views, newEventView(item))
	}
	writeJSON(w, http.StatusOK, eventListResponse{Events: views})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, messageEventNotFound, err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "get event failed", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Event: newCountedEventView(*event)})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.CreateInput
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}

	event, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), input)
	if err != nil {
		if writeValidation(w, r, err, h.Env) {
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "create event failed", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, eventCreatedResponse{
		Message: "Event created successfully",
		Event:   newEventView(*event),
	})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch events.Patch
	if !decodeJSON(w, r, &patch, h.Env) {
		return
	}

	eventID, userID := pathParam(r, "id"), middleware.UserID(r.Context())
	_, err := h.Service.Update(r.Context(), eventID, userID, patch)
	if err != nil {
		if writeValidation(w, r, err, h.Env) {
			return
		}
		if errors.Is(err, events.ErrNotFoundOrUnauthorized) {
			h.Audit.Event(r, audit.ActionEventUpdate, userID, eventID, audit.StatusDenied, nil)
			problem.Write(w, r, http.StatusNotFound, "Event not found or unauthorized", err, h.Env)
			return
		}
		h.Audit.Event(r, audit.ActionEventUpdate, userID, eventID, audit.StatusFailure, nil)
		problem.Write(w, r, http.StatusInternalServerError, "update event failed", err, h.Env)
		return
	}
	h.Audit.Event(r, audit.ActionEventUpdate, userID, eventID, audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Event updated successfully")
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, userID := pathParam(r, "id"), middleware.UserID(r.Context())
	if err := h.Service.Delete(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, events.ErrNotFoundOrUnauthorized) {
			h.Audit.Event(r, audit.ActionEventDelete, userID, eventID, audit.StatusDenied, nil)
			problem.Write(w, r, http.StatusNotFound, "Event not found or unauthorized", err, h.Env)
			return
		}
		h.Audit.Event(r, audit.ActionEventDelete, userID, eventID, audit.StatusFailure, nil)
		problem.Write(w, r, http.StatusInternalServerError, "delete event failed", err, h.Env)
		return
	}
	h.Audit.Event(r, audit.ActionEventDelete, userID, eventID, audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Event deleted successfully")
}

func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	_, err := h.Engine.Register(r.Context(), pathParam(r, "id"), middleware.UserID(r.Context()))
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, "Successfully registered for event")
	case errors.Is(err, registrations.ErrEventNotFound):
		problem.Write(w, r, http.StatusNotFound, messageEventNotFound, err, h.Env)
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		problem.Write(w, r, http.StatusBadRequest, "Already registered for this event", err, h.Env)
	case errors.Is(err, registrations.ErrEventFull):
		problem.Write(w, r, http.StatusBadRequest, "Event is full", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, "register for event failed", err, h.Env)
	}
}
