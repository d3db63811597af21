package handlers

import (
	"errors"
	"net/http"

	"github.com/eventpro/server/internal/api/middleware"
	"github.com/eventpro/server/internal/api/problem"
	"github.com/eventpro/server/internal/domain/users"
)

type AuthHandler struct {
	Service *users.Service
	Env     string
}

func NewAuthHandler(service *users.Service, env string) *AuthHandler {
	return &AuthHandler{Service: service, Env: env}
}

type sessionResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input users.RegisterInput
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}

	session, err := h.Service.Register(r.Context(), input)
	if err != nil {
		if writeValidation(w, r, err, h.Env) {
			return
		}
		if errors.Is(err, users.ErrEmailTaken) {
			problem.Write(w, r, http.StatusBadRequest, "User already exists with this email", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "register failed", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		Token:   session.Token,
		User:    newUserView(session.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input users.LoginInput
	if !decodeJSON(w, r, &input, h.Env) {
		return
	}

	session, err := h.Service.Login(r.Context(), input)
	if err != nil {
		if writeValidation(w, r, err, h.Env) {
			return
		}
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, "Invalid email or password", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "login failed", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   session.Token,
		User:    newUserView(session.User),
	})
}

// Profile returns the bare user object, not wrapped in an envelope.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Profile(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, messageUserNotFound, err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "load profile failed", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// Logout is stateless: tokens stay valid until they expire and the client
// discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logout successful")
}
