package app

import (
	"context"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/auth"
	"github.com/clipforge/backend/internal/config"
	"github.com/clipforge/backend/internal/db"
	"github.com/clipforge/backend/internal/handlers"
	"github.com/clipforge/backend/internal/middleware"
	"github.com/clipforge/backend/internal/render"
	"github.com/clipforge/backend/internal/repositories"
	"github.com/clipforge/backend/internal/social"
	"github.com/clipforge/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases connections owned by the dependency
// graph (currently the render-state client) and must run during shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	sessionStore := repositories.NewPostgresSessionStore(pool)

	xClient := social.NewXClient(social.Config{
		ClientID:     cfg.XClientID,
		ClientSecret: cfg.XClientSecret,
		RedirectURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/") + social.CallbackPath,
	})

	var renderStates handlers.RenderStateStore
	var closeRenderStates func()
	if cfg.RenderStateAddr == "" {
		// Local mode without a render pipeline: every job reads as unknown.
		renderStates = render.NewMemoryStore()
	} else {
		valkeyStore, err := render.NewValkeyStore(cfg.RenderStateAddr)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		renderStates = valkeyStore
		closeRenderStates = valkeyStore.Close
	}

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore, cfg.PresignTTL)
	if err != nil {
		if closeRenderStates != nil {
			closeRenderStates()
		}
		return handlers.Dependencies{}, nil, err
	}

	cleanup := func(context.Context) error {
		if closeRenderStates != nil {
			closeRenderStates()
		}
		return nil
	}

	return handlers.Dependencies{
		Users:        repositories.NewPostgresUserRepository(pool),
		Sessions:     auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		OAuthStates:  repositories.NewPostgresOAuthStateRepository(pool),
		Connections:  repositories.NewPostgresConnectionRepository(pool),
		Social:       xClient,
		RenderStates: renderStates,
		Uploads:      store,

		WebBaseURL:          cfg.WebBaseURL,
		RenderRetryDelay:    cfg.RenderRetryDelay,
		RenderRetryAttempts: cfg.RenderRetryAttempts,

		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 3, 10*time.Minute),
		UploadLimiter: middleware.NewIPRateLimiter(30, time.Minute, 10, 10*time.Minute),
	}, cleanup, nil
}
