package auth

import (
	"net/http"

	"Atelie/internal/api/handlers"
	"Atelie/internal/core/users"
)

// HandleSignUp handles POST /api/v1/auth/sign-up
//
// Request body: {"email", "password", "username"}
// Response: 201 TokenResponse
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req users.SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusCreated, result)
}

// HandleSignIn handles POST /api/v1/auth/sign-in
//
// Request body: {"email", "password"}
// Response: 200 TokenResponse
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req users.SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusOK, result)
}
