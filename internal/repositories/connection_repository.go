package repositories

import (
	"context"

	"github.com/clipforge/backend/internal/models"
)

// ConnectionRepository defines data access for linked social accounts.
type ConnectionRepository interface {
	Upsert(ctx context.Context, connection models.SocialConnection) error
	Find(ctx context.Context, userID, provider string) (models.SocialConnection, error)
	Delete(ctx context.Context, userID, provider string) error
}
