package xoauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/util"
	log "github.com/sirupsen/logrus"
)

// OAuth configuration constants for the X API.
const (
	// AuthURL is the browser-navigated authorization endpoint.
	AuthURL = "https://x.com/i/oauth2/authorize"
	// TokenURL is the form-encoded token exchange endpoint.
	TokenURL = "https://api.x.com/2/oauth2/token"
	// Scopes are the permissions requested during authorization. offline.access
	// is required for a refresh token to be issued.
	Scopes = "tweet.read users.read bookmark.read bookmark.write offline.access"
)

// tokenResponse represents the response structure from the X OAuth token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// AuthSession carries the per-run authorization state: the CSRF state value
// and the PKCE pair. It lives only in process memory and is discarded after
// the exchange completes or the run times out.
type AuthSession struct {
	// State is the opaque random value echoed back on the callback.
	State string
	// PKCE is the verifier/challenge pair bound to this run.
	PKCE *PKCECodes
}

// NewAuthSession creates a fresh authorization session with a random state and
// PKCE pair.
func NewAuthSession(state string) (*AuthSession, error) {
	pkce, err := GeneratePKCECodes()
	if err != nil {
		return nil, err
	}
	return &AuthSession{State: state, PKCE: pkce}, nil
}

// XAuth handles the X API OAuth2 authentication flow.
// It provides methods for generating authorization URLs, exchanging codes for
// tokens, and refreshing expired tokens using PKCE for enhanced security.
type XAuth struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
}

// NewXAuth creates a new X authentication service. The HTTP client honors the
// configured outbound proxy.
func NewXAuth(cfg *config.Config, cc *ClientConfig) *XAuth {
	port := config.DefaultCallbackPort
	if cfg != nil && cfg.CallbackPort > 0 {
		port = cfg.CallbackPort
	}
	auth := &XAuth{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		redirectURI: fmt.Sprintf("http://localhost:%d/callback", port),
		tokenURL:    TokenURL,
	}
	if cfg != nil {
		auth.httpClient = util.SetProxy(cfg, auth.httpClient)
	}
	if cc != nil {
		auth.clientID = cc.ClientID
		auth.clientSecret = cc.ClientSecret
	}
	return auth
}

// GenerateAuthURL creates the OAuth authorization URL with PKCE.
// The returned URL embeds the client ID, redirect URI, requested scopes,
// CSRF state, and the S256 code challenge.
func (a *XAuth) GenerateAuthURL(session *AuthSession) (string, error) {
	if a.clientID == "" {
		return "", NewAuthenticationError(ErrMissingClientID, nil)
	}
	if session == nil || session.PKCE == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {a.clientID},
		"redirect_uri":          {a.redirectURI},
		"scope":                 {Scopes},
		"state":                 {session.State},
		"code_challenge":        {session.PKCE.CodeChallenge},
		"code_challenge_method": {"S256"},
	}

	return fmt.Sprintf("%s?%s", AuthURL, params.Encode()), nil
}

// ExchangeCodeForTokens exchanges an authorization code for access tokens.
// The callback state must equal the state issued for this session; a mismatch
// is treated as a tampering signal and no exchange request is made.
func (a *XAuth) ExchangeCodeForTokens(ctx context.Context, code, callbackState string, session *AuthSession) (*XTokenStorage, error) {
	if session == nil || session.PKCE == nil {
		return nil, fmt.Errorf("PKCE codes are required for token exchange")
	}
	if callbackState != session.State {
		return nil, NewAuthenticationError(ErrInvalidState,
			fmt.Errorf("callback state %q does not match issued state", callbackState))
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", a.redirectURI)
	data.Set("client_id", a.clientID)
	data.Set("code_verifier", session.PKCE.CodeVerifier)

	tokenResp, err := a.postTokenForm(ctx, data)
	if err != nil {
		return nil, NewAuthenticationError(ErrCodeExchangeFailed, err)
	}
	return a.storageFromResponse(tokenResp, ""), nil
}

// RefreshTokens refreshes the access token using the refresh token.
// On success the whole token record is replaced; if the vendor rotated the
// refresh token, the new one supersedes the old, which must not be reused.
func (a *XAuth) RefreshTokens(ctx context.Context, refreshToken string) (*XTokenStorage, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", a.clientID)

	tokenResp, err := a.postTokenForm(ctx, data)
	if err != nil {
		return nil, err
	}
	// Some deployments do not rotate the refresh token; keep the old one then.
	return a.storageFromResponse(tokenResp, refreshToken), nil
}

// postTokenForm performs a form-encoded POST against the token endpoint.
// Confidential clients additionally authenticate with HTTP Basic credentials.
func (a *XAuth) postTokenForm(ctx context.Context, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if a.clientSecret != "" {
		req.SetBasicAuth(a.clientID, a.clientSecret)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("failed to close response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr OAuthError
		if err = json.Unmarshal(body, &oauthErr); err == nil && oauthErr.Code != "" {
			oauthErr.StatusCode = resp.StatusCode
			return nil, &oauthErr
		}
		return nil, NewOAuthError("token_request_failed",
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err = json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &tokenResp, nil
}

// storageFromResponse converts a token response into the persisted record,
// deriving the absolute expiry from the declared lifetime at this moment.
func (a *XAuth) storageFromResponse(tokenResp *tokenResponse, previousRefreshToken string) *XTokenStorage {
	now := time.Now()
	refreshToken := tokenResp.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}
	var scope []string
	if tokenResp.Scope != "" {
		scope = strings.Fields(tokenResp.Scope)
	}
	return &XTokenStorage{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: refreshToken,
		Scope:        scope,
		LastRefresh:  now.Format(time.RFC3339),
		Expire:       now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second).Format(time.RFC3339),
	}
}
