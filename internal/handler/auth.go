package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/campusboard/showcase/internal/auth"
	"github.com/campusboard/showcase/internal/service"
)

// AuthHandler manages the Google OAuth login flow and the session cookie.
//
//	HandleGoogleLogin    → redirect the browser to Google's consent screen
//	HandleGoogleCallback → receive the code, exchange it, issue the session
//	HandleLogout         → clear the session cookie
//	HandleCurrentUser    → report who (if anyone) is signed in
type AuthHandler struct {
	google *auth.GoogleProvider
	auths  *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(google *auth.GoogleProvider, auths *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		google: google,
		auths:  auths,
		logger: logger,
	}
}

// HandleGoogleLogin redirects the user to Google's authorization page.
//
// HTTP: GET /auth/google
//
// A random state value goes into a short-lived HttpOnly cookie; the
// callback verifies the echoed state against it, so a forged callback
// cannot complete a flow this server never started.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// Flow: verify the CSRF state, exchange the code for a domain-checked
// Google profile, upsert the user, set the session cookie, redirect home.
// Accounts outside the allowed email domain land back on / with
// ?auth=domain_denied rather than an error page.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrDomainNotAllowed) {
			h.logger.Info("auth callback: email domain rejected")
			http.Redirect(w, r, "/?auth=domain_denied", http.StatusSeeOther)
			return
		}
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.auths.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// HttpOnly keeps page scripts away from the token; SameSite=Lax keeps
	// it off cross-site POSTs. Secure should be set behind HTTPS.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie and sends the browser home.
//
// HTTP: GET /auth/logout
//
// Sessions are stateless, so logout is deleting the client-side cookie;
// the token itself simply runs out its expiry.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// currentUserResponse is the payload of GET /api/user.
type currentUserResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *currentUserInfo `json:"user,omitempty"`
}

type currentUserInfo struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

// HandleCurrentUser reports the signed-in user, if any.
//
// HTTP: GET /api/user (public, OptionalAuth)
//
// Anonymous requests get {"authenticated": false} with 200 — the frontend
// uses this on page load to decide between the board and the sign-in view.
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, currentUserResponse{Authenticated: false})
		return
	}

	user, err := h.auths.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a vanished user record is still anonymous.
		h.logger.Warn("current user lookup failed", slog.String("userID", userID))
		writeJSON(w, http.StatusOK, currentUserResponse{Authenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, currentUserResponse{
		Authenticated: true,
		User: &currentUserInfo{
			Name:           user.Name,
			Email:          user.Email,
			ProfilePicture: user.AvatarURL,
		},
	})
}
