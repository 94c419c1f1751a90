// Package http provides the HTTP handlers and router of the ParkPassport API.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
	"github.com/atinyakov/ParkPassport/internal/response"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	// SignUp registers a new account.
	SignUp(ctx context.Context, username, password string) (*models.Account, error)
	// SignIn checks credentials and returns the account with an access token.
	SignIn(ctx context.Context, username, password string) (*models.Account, string, error)
}

// AuthHandler handles HTTP requests for sign-up and sign-in.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// Credentials is the JSON payload of sign-up and sign-in requests.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse is returned by a successful sign-in.
type SignInResponse struct {
	Token string     `json:"token"`
	User  SignedInAs `json:"user"`
}

// SignedInAs identifies the account a token was issued for.
type SignedInAs struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
}

func decodeCredentials(r *http.Request) (Credentials, error) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, apperrors.Invalid("body", "request body must be a JSON object")
	}
	return req, nil
}

// SignUp handles POST /api/auth/sign-up and responds 201 with the new account.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	acc, err := h.AuthService.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, acc)
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		response.Error(w, apperrors.Unauthorized("invalid login"))
		return
	}

	acc, token, err := h.AuthService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusOK, SignInResponse{
		Token: token,
		User:  SignedInAs{AccountID: acc.ID, Username: acc.Username},
	})
}
