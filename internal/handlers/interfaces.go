package handlers

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/render"
	"github.com/clipforge/backend/internal/social"
	"github.com/clipforge/backend/internal/storage"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Resolve(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string)
}

// SessionResolver maps an access token to the user it was issued for.
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken string) (string, error)
}

// OAuthStateStore captures persistence for pending authorization handshakes.
type OAuthStateStore interface {
	Upsert(ctx context.Context, state models.OAuthState) error
	Claim(ctx context.Context, stateToken string) (models.OAuthState, error)
}

// ConnectionStore captures persistence for linked social accounts.
type ConnectionStore interface {
	Upsert(ctx context.Context, connection models.SocialConnection) error
	Find(ctx context.Context, userID, provider string) (models.SocialConnection, error)
	Delete(ctx context.Context, userID, provider string) error
}

// SocialConnector drives the provider side of the account linking flow.
type SocialConnector interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	Me(ctx context.Context, accessToken string) (social.Profile, error)
}

// RenderStateStore reads render job state owned by the external pipeline.
type RenderStateStore interface {
	Get(ctx context.Context, id string) (render.State, bool, error)
}

// UploadSigner mints time-limited upload URLs against the object store.
type UploadSigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (storage.PresignedUpload, error)
}
