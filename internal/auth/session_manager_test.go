package auth

import (
	"context"
	"testing"
	"time"
)

func TestManagerIssueAndRefresh(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore())
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Millisecond, store)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerResolve(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := manager.Resolve(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("expected user-42 got %s", userID)
	}

	if _, err := manager.Resolve(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found for empty token got %v", err)
	}
	if _, err := manager.Resolve(context.Background(), "bogus"); err != ErrSessionNotFound {
		t.Fatalf("expected session not found for unknown token got %v", err)
	}
}

func TestManagerResolveExpiredAccessToken(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Millisecond, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Resolve(context.Background(), tokens.AccessToken); err != ErrAccessTokenExpired {
		t.Fatalf("expected access token expired got %v", err)
	}
}

func TestStoreDeleteExpired(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Millisecond, store)

	if _, err := manager.Issue(context.Background(), "user-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	removed, err := manager.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed session got %d", removed)
	}
}
