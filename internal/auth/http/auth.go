package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/service"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/jwtx"
	"github.com/stagedoor/auth/pkg/slogx"
)

// AuthHandler serves user registration and login. Both establish a session
// cookie on success.
type AuthHandler struct {
	AuthnService *service.AuthnService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	user, err := h.AuthnService.RegisterUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUser):
			writeAuthError(w, http.StatusBadRequest, "invalid_request", "username or email already taken")
		case errors.Is(err, service.ErrRoleMissing):
			log.Error("registration failed", "err", err)
			writeAuthError(w, http.StatusInternalServerError, "server_error", "registration is unavailable")
		default:
			writeAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}

	if !h.establishSession(w, log, user) {
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	user, err := h.AuthnService.LoginUser(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		// One answer for both, so the endpoint does not confirm which
		// usernames exist.
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrIncorrectPassword):
			log.Warn("login rejected", "username", req.Username)
			writeAuthError(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
		default:
			log.Error("login failed", "err", err)
			writeAuthError(w, http.StatusInternalServerError, "server_error", "login is unavailable")
		}
		return
	}

	if !h.establishSession(w, log, user) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, log *slog.Logger, user domain.User) bool {
	token, err := h.AuthnService.IssueSession(user)
	if err != nil {
		log.Error("session issuance failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "could not establish session")
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(jwtx.DefaultSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, desc string) {
	httpx.WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
