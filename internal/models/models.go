package models

import "time"

// User represents an account within the ClipForge platform.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SocialConnection records a linked account on an external social platform.
// At most one connection exists per (user, provider) pair.
type SocialConnection struct {
	UserID         string
	Provider       string
	ProviderUserID string
	Username       string
	ConnectedAt    time.Time
}

// OAuthState holds the pending authorization attempt for a (user, provider)
// pair. Re-initiating the flow overwrites the previous attempt, so only the
// latest state token can complete the callback. The code verifier is a
// backend-held secret and must never appear in a response body.
type OAuthState struct {
	UserID        string
	Provider      string
	State         string
	CodeVerifier  string
	CodeChallenge string
	CreatedAt     time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
