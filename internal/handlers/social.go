package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/logging"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/repositories"
	"github.com/clipforge/backend/internal/social"
)

// SocialHandler implements the X account linking endpoints: authorization
// initiation, the provider callback, and connection status/disconnect.
type SocialHandler struct {
	Sessions    SessionResolver
	States      OAuthStateStore
	Connections ConnectionStore
	Provider    SocialConnector
	WebBaseURL  string
	Limiter     RateLimiter
	NowFunc     func() time.Time
}

// Connect handles GET /auth/x requests. It mints a PKCE verifier and CSRF
// state for the session user, stores them, and returns the authorization URL
// the browser should follow.
func (h SocialHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.States == nil || h.Provider == nil {
		logger.Error("social connect dependencies unavailable",
			"hasSessions", h.Sessions != nil, "hasStates", h.States != nil, "hasProvider", h.Provider != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authorization service unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "oauth") {
		logger.Warn("oauth initiation rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	userID := currentUser(r, h.Sessions)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	verifier := social.NewVerifier()
	state, err := social.NewStateToken()
	if err != nil {
		logger.Error("failed to generate state token", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to start authorization"})
		return
	}

	record := models.OAuthState{
		UserID:        userID,
		Provider:      social.ProviderX,
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: social.S256Challenge(verifier),
		CreatedAt:     h.now(),
	}

	if err := h.States.Upsert(ctx, record); err != nil {
		logger.Error("failed to store oauth state", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to start authorization"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, connectURLResponse{URL: h.Provider.AuthCodeURL(state, verifier)})
}

// Callback handles GET /auth/x/callback requests from the authorization
// server. The state token binds the callback to a stored handshake; the code
// is exchanged with the stored verifier and the linked account is persisted.
func (h SocialHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "social.callback")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.States == nil || h.Connections == nil || h.Provider == nil {
		logger.Error("social callback dependencies unavailable",
			"hasStates", h.States != nil, "hasConnections", h.Connections != nil, "hasProvider", h.Provider != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authorization service unavailable"})
		return
	}

	query := r.URL.Query()
	if denied := query.Get("error"); denied != "" {
		logger.Warn("authorization denied by provider", "reason", denied)
		http.Redirect(w, r, h.webURL("/settings?x=denied"), http.StatusFound)
		return
	}

	state := strings.TrimSpace(query.Get("state"))
	code := strings.TrimSpace(query.Get("code"))
	if state == "" || code == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "state and code are required"})
		return
	}

	record, err := h.States.Claim(ctx, state)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("callback with unknown state", "state", state)
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown or expired authorization state"})
			return
		}
		logger.Error("failed to claim oauth state", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to complete authorization"})
		return
	}

	token, err := h.Provider.Exchange(ctx, code, record.CodeVerifier)
	if err != nil {
		logger.Error("authorization code exchange failed", "error", err, "userId", record.UserID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to complete authorization"})
		return
	}

	profile, err := h.Provider.Me(ctx, token.AccessToken)
	if err != nil {
		logger.Error("failed to fetch linked profile", "error", err, "userId", record.UserID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to complete authorization"})
		return
	}

	connection := models.SocialConnection{
		UserID:         record.UserID,
		Provider:       record.Provider,
		ProviderUserID: profile.ID,
		Username:       profile.Username,
		ConnectedAt:    h.now(),
	}

	if err := h.Connections.Upsert(ctx, connection); err != nil {
		logger.Error("failed to store social connection", "error", err, "userId", record.UserID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to complete authorization"})
		return
	}

	logger.Info("linked social account", "userId", record.UserID, "provider", record.Provider, "username", profile.Username)
	http.Redirect(w, r, h.webURL("/settings?connected=x"), http.StatusFound)
}

// StatusOrDisconnect routes the shared status path: GET reports the connection,
// DELETE removes it.
func (h SocialHandler) StatusOrDisconnect(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Status(w, r)
	case http.MethodDelete:
		h.Disconnect(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Status reports whether the session user has a linked X account. It always
// answers 200: missing sessions, missing records and lookup failures all
// degrade to connected=false.
func (h SocialHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID := currentUser(r, h.Sessions)
	if userID == "" || h.Connections == nil {
		respondJSON(ctx, w, http.StatusOK, connectionStatusResponse{Connected: false})
		return
	}

	connection, err := h.Connections.Find(ctx, userID, social.ProviderX)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("connection lookup failed", "error", err, "userId", userID)
		}
		respondJSON(ctx, w, http.StatusOK, connectionStatusResponse{Connected: false})
		return
	}

	connectedAt := connection.ConnectedAt
	respondJSON(ctx, w, http.StatusOK, connectionStatusResponse{
		Connected:   true,
		Username:    connection.Username,
		ConnectedAt: &connectedAt,
	})
}

// Disconnect removes the session user's linked X account. Removing an absent
// connection is not an error, so repeated disconnects keep succeeding.
func (h SocialHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.Connections == nil {
		logger.Error("social disconnect dependencies unavailable",
			"hasSessions", h.Sessions != nil, "hasConnections", h.Connections != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authorization service unavailable"})
		return
	}

	userID := currentUser(r, h.Sessions)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := h.Connections.Delete(ctx, userID, social.ProviderX); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("failed to delete social connection", "error", err, "userId", userID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to disconnect account"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, successResponse{Success: true})
}

func (h SocialHandler) webURL(path string) string {
	base := strings.TrimSuffix(h.WebBaseURL, "/")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + path
}

func (h SocialHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type connectURLResponse struct {
	URL string `json:"url"`
}

type connectionStatusResponse struct {
	Connected   bool       `json:"connected"`
	Username    string     `json:"username,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}
