// internal/handler/auth.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges credentials for a session token. The token is returned in
// the body and mirrored in a cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	output, err := h.auth.Login(r.Context(), input)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "login error", "error", err, "requestID", chimw.GetReqID(r.Context()))
		}
		respondDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    output.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondWithJSON(w, http.StatusOK, output)
}

// Logout clears the session cookie. Tokens are stateless, so nothing is
// revoked server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    "token",
		Value:   "",
		Path:    "/",
		Expires: time.Now().Add(-1 * time.Hour),
	})

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
