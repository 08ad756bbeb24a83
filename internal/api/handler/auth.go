package handler

import (
	"net/http"

	"github.com/mcoot/bankerscore/internal/api/request"
	"github.com/mcoot/bankerscore/internal/api/response"
	"github.com/mcoot/bankerscore/internal/services/identity"
)

// AuthHandler handles sign-in and token endpoints
type AuthHandler struct {
	provider identity.Provider
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider identity.Provider) *AuthHandler {
	return &AuthHandler{
		provider: provider,
	}
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req request.SignInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	result, err := h.provider.SignIn(r.Context(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req request.TokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.IDToken == "" {
		WriteError(w, NewInvalidRequestError("idToken is required"))
		return
	}

	token, err := h.provider.RequestAccessToken(r.Context(), req.IDToken)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, token)
}

// Revoke handles POST /api/v1/auth/revoke
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req request.RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.provider.Revoke(r.Context(), req.Token); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
