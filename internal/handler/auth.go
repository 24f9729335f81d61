package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"chirper-api/internal/config"
	"chirper-api/internal/httputil"
	"chirper-api/internal/model"
	"chirper-api/internal/service"
)

// refreshCookieName is the http-only cookie carrying the refresh token.
const refreshCookieName = "jwt"

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	authService *service.AuthService
	config      *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
	}
}

// Login handles the two-step sign-in flow.
// Step 1 resolves the account by username or email so the client can show
// who is signing in; step 2 verifies the password and issues the tokens.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" {
		httputil.WriteBadRequest(w, "Username or email is required")
		return
	}

	if req.Step == 1 {
		user, err := h.authService.ResolveAccount(r.Context(), login)
		if err != nil {
			httputil.WriteUnauthorized(w, "No account found with this username or email")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"username": user.Username,
			"avatar":   user.AvatarRef,
		})
		return
	}

	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), login, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setRefreshCookie(w, h.config, pair.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": pair.AccessToken,
		"expiresIn":   pair.ExpiresIn,
		"user":        user,
	})
}

// Refresh reissues an access token from the refresh cookie.
// GET /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteUnauthorized(w, "Missing refresh token")
		return
	}

	user, accessToken, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		httputil.WriteForbidden(w, "Invalid or expired refresh token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": accessToken,
		"expiresIn":   h.config.AccessTokenMaxAge,
		"user":        user,
	})
}

// Logout clears the refresh cookie. With stateless tokens there is
// nothing server-side to revoke; an absent cookie is already logged out.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(refreshCookieName); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	clearRefreshCookie(w)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// setRefreshCookie writes the http-only refresh cookie. Register and
// Login share it so the attributes cannot drift apart.
func setRefreshCookie(w http.ResponseWriter, cfg *config.Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cfg.RefreshTokenMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
