package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipforge/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		PublicBaseURL: "https://api.clipforge.dev",
		WebBaseURL:    "https://app.clipforge.dev",
		XClientID:     "client-123",
		ObjectStore:   config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
		PresignTTL:    15 * time.Minute,

		// Leave RenderStateAddr empty so wiring succeeds without a running
		// render-state store.
		RenderRetryDelay:    50 * time.Millisecond,
		RenderRetryAttempts: 1,
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.OAuthStates == nil {
		t.Fatal("expected oauth state repository to be configured")
	}
	if deps.Connections == nil {
		t.Fatal("expected connection repository to be configured")
	}
	if deps.Social == nil {
		t.Fatal("expected social connector to be configured")
	}
	if deps.RenderStates == nil {
		t.Fatal("expected render state store to be configured")
	}
	if deps.Uploads == nil {
		t.Fatal("expected upload signer to be configured")
	}
	if deps.AuthLimiter == nil || deps.UploadLimiter == nil {
		t.Fatal("expected rate limiters to be configured")
	}

	if deps.WebBaseURL != cfg.WebBaseURL {
		t.Fatalf("expected web base url %q, got %q", cfg.WebBaseURL, deps.WebBaseURL)
	}
	if deps.RenderRetryDelay != cfg.RenderRetryDelay || deps.RenderRetryAttempts != cfg.RenderRetryAttempts {
		t.Fatalf("expected render retry settings to pass through, got %v/%d", deps.RenderRetryDelay, deps.RenderRetryAttempts)
	}

	url := deps.Social.AuthCodeURL("state-token", "verifier-value")
	if url == "" {
		t.Fatal("expected social connector to produce an authorization URL")
	}
}
