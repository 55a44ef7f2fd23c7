package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipforge/backend/internal/auth"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.users[user.Email]; exists {
		return repositories.ErrConflict
	}
	s.users[user.Email] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func newTestManager() *auth.Manager {
	return auth.NewManager(time.Minute, time.Hour, auth.NewInMemorySessionStore())
}

func sessionCookieValue(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	manager := newTestManager()
	handler := AuthHandler{Users: store, Sessions: manager}

	body, err := json.Marshal(signUpRequest{Email: "test@example.com", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	if cookie := sessionCookieValue(t, rec); cookie != resp.Tokens.AccessToken {
		t.Fatalf("expected session cookie to carry access token, got %q", cookie)
	}

	stored, err := store.FindByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	manager := newTestManager()
	handler := AuthHandler{Users: store, Sessions: manager}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store.users["login@example.com"] = models.User{ID: "user-1", Email: "login@example.com", Password: string(hashed)}

	body, err := json.Marshal(loginRequest{Email: "login@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	if userID, err := manager.Resolve(context.Background(), resp.Tokens.AccessToken); err != nil || userID != "user-1" {
		t.Fatalf("expected issued token to resolve to user-1, got %q (%v)", userID, err)
	}
}

func TestAuthHandlerLoginRejectsBadPassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestManager()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["login@example.com"] = models.User{ID: "user-1", Email: "login@example.com", Password: string(hashed)}

	body, err := json.Marshal(loginRequest{Email: "login@example.com", Password: "wrong"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	manager := newTestManager()
	tokens, err := manager.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: manager}

	body, err := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected old refresh token to be invalid after rotation")
	}
}

func TestAuthHandlerLogout(t *testing.T) {
	manager := newTestManager()
	tokens, err := manager.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: manager}

	body, err := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected refresh token to be revoked")
	}

	found := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			found = true
			if cookie.MaxAge >= 0 {
				t.Fatalf("expected session cookie to be expired, got MaxAge %d", cookie.MaxAge)
			}
		}
	}
	if !found {
		t.Fatal("expected session cookie to be cleared")
	}
}

func TestAuthHandlerMethodGuards(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newTestManager()}

	for name, fn := range map[string]http.HandlerFunc{
		"login":  handler.Login,
		"signup": handler.SignUp,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/"+name, nil)
		rec := httptest.NewRecorder()
		fn(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected status %d got %d", name, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
