package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/auth"
	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/repository"
)

const stateCookie = "holdfast_oauth_state"

// AuthHandler handles OAuth2 login flows and token refresh.
type AuthHandler struct {
	google   *auth.OAuthProvider
	jwtMgr   *auth.JWTManager
	userRepo repository.UserRepository
	devMode  bool
}

// NewAuthHandler creates an AuthHandler. devMode enables /auth/dev.
func NewAuthHandler(google *auth.OAuthProvider, jwtMgr *auth.JWTManager, userRepo repository.UserRepository, devMode bool) *AuthHandler {
	return &AuthHandler{google: google, jwtMgr: jwtMgr, userRepo: userRepo, devMode: devMode}
}

// GoogleLogin redirects to Google's OAuth2 consent screen. The state is
// pinned in a short-lived cookie and checked on the callback.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Enabled() {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth2 callback from Google.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Enabled() {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	info, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google OAuth exchange failed")
		writeError(w, http.StatusUnauthorized, "oauth exchange failed")
		return
	}

	user, err := h.signIn(r.Context(), h.google.Name(), info.ID, info.Name, info.Picture)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert Google user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.issueTokens(w, user.ID)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("userId", claims.UserID).Msg("Failed to look up user for refresh")
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	h.issueTokens(w, user.ID)
}

// DevLogin creates or signs in a test user and returns a JWT token pair.
// Only available in dev mode.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	user, err := h.signIn(r.Context(), "dev", fmt.Sprintf("dev-%s", name), name, "")
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to upsert dev user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.issueTokens(w, user.ID)
}

// signIn returns the account for a provider identity, creating it on first
// login. Existing accounts keep the display name they chose.
func (h *AuthHandler) signIn(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	user, err := h.userRepo.FindByProviderID(ctx, provider, providerID)
	if err != nil || user != nil {
		return user, err
	}
	return h.userRepo.Upsert(ctx, provider, providerID, displayName, avatarURL)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, userID string) {
	tokens, err := h.jwtMgr.GenerateTokenPair(userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("Failed to generate tokens")
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
