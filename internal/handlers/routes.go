package handlers

import (
	"net/http"
	"time"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	social := SocialHandler{
		Sessions:    deps.Sessions,
		States:      deps.OAuthStates,
		Connections: deps.Connections,
		Provider:    deps.Social,
		WebBaseURL:  deps.WebBaseURL,
		Limiter:     deps.AuthLimiter,
	}
	render := RenderHandler{
		States:        deps.RenderStates,
		RetryDelay:    deps.RenderRetryDelay,
		RetryAttempts: deps.RenderRetryAttempts,
	}
	uploads := UploadHandler{Sessions: deps.Sessions, Signer: deps.Uploads, Limiter: deps.UploadLimiter}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/auth/password-reset", auth.RequestPasswordReset)
	mux.HandleFunc("/auth/x", social.Connect)
	mux.HandleFunc("/auth/x/callback", social.Callback)
	mux.HandleFunc("/auth/x/status", social.StatusOrDisconnect)
	mux.HandleFunc("/render/progress", render.Progress)
	mux.HandleFunc("/storage/presigned-url", uploads.PresignedURL)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Sessions     SessionManager
	OAuthStates  OAuthStateStore
	Connections  ConnectionStore
	Social       SocialConnector
	RenderStates RenderStateStore
	Uploads      UploadSigner

	WebBaseURL          string
	RenderRetryDelay    time.Duration
	RenderRetryAttempts int

	AuthLimiter   RateLimiter
	UploadLimiter RateLimiter
}
