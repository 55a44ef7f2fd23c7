package social

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestS256Challenge(t *testing.T) {
	// Test vector from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := S256Challenge(verifier); got != want {
		t.Fatalf("expected challenge %s got %s", want, got)
	}
}

func TestNewStateToken(t *testing.T) {
	state, err := NewStateToken()
	if err != nil {
		t.Fatalf("state token: %v", err)
	}
	if len(state) != 32 {
		t.Fatalf("expected 32 hex characters got %d (%s)", len(state), state)
	}
	if _, err := hex.DecodeString(state); err != nil {
		t.Fatalf("state token is not hex: %v", err)
	}

	other, err := NewStateToken()
	if err != nil {
		t.Fatalf("state token: %v", err)
	}
	if other == state {
		t.Fatal("expected state tokens to differ between calls")
	}
}

func TestAuthCodeURL(t *testing.T) {
	client := NewXClient(Config{
		ClientID:    "client-123",
		RedirectURL: "http://localhost:8080/auth/x/callback",
	})

	verifier := NewVerifier()
	authURL := client.AuthCodeURL("state-abc", verifier)

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}

	query := parsed.Query()
	checks := map[string]string{
		"response_type":         "code",
		"client_id":             "client-123",
		"redirect_uri":          "http://localhost:8080/auth/x/callback",
		"state":                 "state-abc",
		"code_challenge":        S256Challenge(verifier),
		"code_challenge_method": "S256",
	}
	for key, want := range checks {
		if got := query.Get(key); got != want {
			t.Fatalf("expected %s=%q got %q", key, want, got)
		}
	}

	if query.Get("scope") == "" {
		t.Fatal("expected scope parameter to be set")
	}
	if query.Get("code_verifier") != "" {
		t.Fatal("verifier must never appear in the authorization URL")
	}
}

func TestExchangeSendsVerifier(t *testing.T) {
	var gotVerifier, gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotVerifier = r.FormValue("code_verifier")
		gotCode = r.FormValue("code")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "token-xyz",
			"token_type":    "bearer",
			"refresh_token": "refresh-xyz",
			"expires_in":    7200,
		})
	}))
	defer server.Close()

	client := NewXClient(Config{ClientID: "client-123"})
	client.OAuth.Endpoint.TokenURL = server.URL

	token, err := client.Exchange(context.Background(), "code-abc", "verifier-abc")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if token.AccessToken != "token-xyz" {
		t.Fatalf("unexpected access token %q", token.AccessToken)
	}
	if gotCode != "code-abc" {
		t.Fatalf("expected code to be forwarded, got %q", gotCode)
	}
	if gotVerifier != "verifier-abc" {
		t.Fatalf("expected verifier to be forwarded, got %q", gotVerifier)
	}
}

func TestMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/users/me" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-xyz" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "99", "username": "clipper", "name": "Clip Person"},
		})
	}))
	defer server.Close()

	client := NewXClient(Config{ClientID: "client-123"})
	client.APIBaseURL = server.URL

	profile, err := client.Me(context.Background(), "token-xyz")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profile.Username != "clipper" || profile.ID != "99" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestMeSurfacesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewXClient(Config{ClientID: "client-123"})
	client.APIBaseURL = server.URL

	if _, err := client.Me(context.Background(), "stale"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
