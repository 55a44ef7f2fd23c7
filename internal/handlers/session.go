package handlers

import (
	"net/http"
	"strings"
	"time"
)

// sessionCookieName carries the access token for browser-initiated requests
// such as the OAuth redirect, where an Authorization header is not available.
const sessionCookieName = "clipforge_session"

// sessionToken extracts the caller's access token from the Authorization
// header, falling back to the session cookie.
func sessionToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// currentUser resolves the calling user's id, returning the empty string for
// anonymous or expired sessions. Handlers decide whether anonymous is allowed.
func currentUser(r *http.Request, sessions SessionResolver) string {
	if sessions == nil {
		return ""
	}

	token := sessionToken(r)
	if token == "" {
		return ""
	}

	userID, err := sessions.Resolve(r.Context(), token)
	if err != nil {
		return ""
	}

	return userID
}

// setSessionCookie installs the access token cookie on login and signup.
func setSessionCookie(w http.ResponseWriter, accessToken string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    accessToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the access token cookie on logout.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
