package xoauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sharbelxyz/x-bookmarks/internal/misc"
)

// XTokenStorage stores OAuth2 token information for X API authentication.
// It is the single JSON document persisted to tokens.json and overwritten
// wholesale on every refresh.
type XTokenStorage struct {
	// AccessToken is the OAuth2 access token used for authenticating API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens when the current one expires.
	// It may be absent if the offline.access scope was not granted.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope lists the scopes granted by the authorization server.
	Scope []string `json:"scope,omitempty"`

	// LastRefresh is the timestamp of the last token exchange or refresh operation.
	LastRefresh string `json:"last_refresh"`

	// Type indicates the authentication provider type, always "x" for this storage.
	Type string `json:"type"`

	// Expire is the RFC3339 timestamp when the current access token expires.
	// It is computed from the token response's expires_in at exchange time and
	// never recomputed afterwards.
	Expire string `json:"expired"`
}

// ExpiresAt parses the stored expiry timestamp. A zero time is returned when
// the field is missing or malformed, which callers treat as already expired.
func (ts *XTokenStorage) ExpiresAt() time.Time {
	if ts == nil || ts.Expire == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts.Expire)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveTokenToFile serializes the token storage to a JSON file. The write is
// atomic: data goes to a temporary file in the same directory and is renamed
// over the destination, so a crash mid-write never corrupts an existing token
// file. The file is created with owner-only permissions since it holds bearer
// credentials.
func (ts *XTokenStorage) SaveTokenToFile(authFilePath string) error {
	misc.LogSavingCredentials(authFilePath)
	ts.Type = "x"

	// Create directory structure if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(authFilePath), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token storage: %w", err)
	}

	return writeFileAtomic(authFilePath, append(data, '\n'), 0o600)
}

// LoadTokenFromFile reads a persisted token storage from disk. A missing file
// is reported as ErrNoTokens so callers can distinguish "never authorized"
// from a corrupted file.
func LoadTokenFromFile(authFilePath string) (*XTokenStorage, error) {
	data, err := os.ReadFile(authFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewAuthenticationError(ErrNoTokens, err)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var ts XTokenStorage
	if err = json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &ts, nil
}

// ClientConfig holds the OAuth client credentials persisted alongside the
// tokens so refreshes after the initial login can rebuild the exchange client.
type ClientConfig struct {
	// ClientID is the X API application's OAuth2 client identifier.
	ClientID string `json:"client_id"`

	// ClientSecret is set only for confidential clients and enables HTTP Basic
	// authentication on the token endpoint.
	ClientSecret string `json:"client_secret,omitempty"`
}

// SaveClientConfig persists the client credentials to config.json in the auth
// directory with the same atomic-write and permission guarantees as tokens.
func SaveClientConfig(path string, cc *ClientConfig) error {
	if cc == nil || cc.ClientID == "" {
		return NewAuthenticationError(ErrMissingClientID, nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(cc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'), 0o600)
}

// LoadClientConfig reads the persisted client credentials.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewAuthenticationError(ErrNoTokens, err)
		}
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}
	var cc ClientConfig
	if err = json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cc.ClientID == "" {
		return nil, NewAuthenticationError(ErrMissingClientID, nil)
	}
	return &cc, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place. The rename keeps the previous file intact if anything fails.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return NewAuthenticationError(ErrTokenPersistFailed, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err = tmp.Chmod(perm); err != nil {
		cleanup()
		return NewAuthenticationError(ErrTokenPersistFailed, err)
	}
	if _, err = tmp.Write(data); err != nil {
		cleanup()
		return NewAuthenticationError(ErrTokenPersistFailed, err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return NewAuthenticationError(ErrTokenPersistFailed, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return NewAuthenticationError(ErrTokenPersistFailed, err)
	}
	return nil
}
