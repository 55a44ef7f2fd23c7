package social

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// ProviderX tags records belonging to the X platform integration.
const ProviderX = "x"

const (
	xAuthURL    = "https://x.com/i/oauth2/authorize"
	xTokenURL   = "https://api.x.com/2/oauth2/token"
	xAPIBaseURL = "https://api.x.com"

	// CallbackPath is appended to the configured public base URL to form the
	// redirect URI registered with the provider.
	CallbackPath = "/auth/x/callback"
)

// xScopes is the fixed scope set requested on every authorization. offline.access
// is required for X to return a refresh token.
var xScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// Profile is the minimal identity ClipForge keeps for a linked X account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Config carries the registered OAuth client settings for X.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// XClient drives the authorization-code flow against X and reads the linked
// account profile. OAuth, APIBaseURL and HTTPClient are exported so tests can
// point the client at local servers.
type XClient struct {
	OAuth      oauth2.Config
	APIBaseURL string
	HTTPClient *http.Client
}

// NewXClient constructs a client against the public X endpoints.
func NewXClient(cfg Config) *XClient {
	authStyle := oauth2.AuthStyleInParams
	if cfg.ClientSecret != "" {
		authStyle = oauth2.AuthStyleInHeader
	}

	return &XClient{
		OAuth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   xAuthURL,
				TokenURL:  xTokenURL,
				AuthStyle: authStyle,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      xScopes,
		},
		APIBaseURL: xAPIBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL builds the authorization URL carrying the CSRF state and the
// S256 challenge derived from the verifier. The verifier itself stays on the
// backend.
func (c *XClient) AuthCodeURL(state, verifier string) string {
	return c.OAuth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange redeems an authorization code together with the stored verifier.
func (c *XClient) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}

	token, err := c.OAuth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// Me fetches the profile of the account the access token belongs to.
func (c *XClient) Me(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/2/users/me", nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data Profile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("parse profile response: %w", err)
	}

	if payload.Data.ID == "" {
		return Profile{}, fmt.Errorf("profile response missing account id")
	}

	return payload.Data, nil
}

// NewVerifier returns a fresh PKCE code verifier (32 random bytes, base64url).
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// NewStateToken returns the CSRF state token round-tripped through the
// authorization server: 16 random bytes, hex encoded.
func NewStateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// S256Challenge derives the code challenge sent to the authorization server:
// the unpadded base64url encoding of the verifier's SHA-256 digest.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
