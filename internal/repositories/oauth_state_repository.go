package repositories

import (
	"context"
	"time"

	"github.com/clipforge/backend/internal/models"
)

// OAuthStateRepository defines data access for pending authorization handshakes.
// A user keeps at most one pending handshake per provider; starting a new one
// replaces the old.
type OAuthStateRepository interface {
	Upsert(ctx context.Context, state models.OAuthState) error
	Claim(ctx context.Context, stateToken string) (models.OAuthState, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
