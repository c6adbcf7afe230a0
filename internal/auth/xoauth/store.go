package xoauth

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// TokenFileName is the JSON document holding the current token record.
	TokenFileName = "tokens.json"
	// ClientFileName holds the OAuth client credentials saved at login time.
	ClientFileName = "config.json"

	// ExpiryMargin is the safety window before the declared expiry at which a
	// token is considered stale and refreshed.
	ExpiryMargin = 60 * time.Second
)

// Refresher exchanges a refresh token for a fresh token record.
// *XAuth is the production implementation.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*XTokenStorage, error)
}

// FileTokenStore owns the persisted token record for one user. All reads and
// writes of tokens.json go through it, and concurrent expiry-triggered
// refreshes collapse into a single token-endpoint call.
type FileTokenStore struct {
	mu        sync.Mutex
	baseDir   string
	refresher Refresher
	group     singleflight.Group

	// now is swappable for tests.
	now func() time.Time
}

// NewFileTokenStore creates a token store rooted at the given auth directory.
func NewFileTokenStore(baseDir string) *FileTokenStore {
	return &FileTokenStore{
		baseDir: baseDir,
		now:     time.Now,
	}
}

// SetRefresher installs the refresh client used when the access token is stale.
func (s *FileTokenStore) SetRefresher(r Refresher) {
	s.mu.Lock()
	s.refresher = r
	s.mu.Unlock()
}

// TokenFilePath returns the absolute path of the persisted token record.
func (s *FileTokenStore) TokenFilePath() string {
	return filepath.Join(s.baseDir, TokenFileName)
}

// ClientFilePath returns the absolute path of the persisted client config.
func (s *FileTokenStore) ClientFilePath() string {
	return filepath.Join(s.baseDir, ClientFileName)
}

// Load returns the persisted token record, or an ErrNoTokens authentication
// error when no record exists yet.
func (s *FileTokenStore) Load() (*XTokenStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadTokenFromFile(s.TokenFilePath())
}

// Save atomically overwrites the token record on disk.
func (s *FileTokenStore) Save(ts *XTokenStorage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ts.SaveTokenToFile(s.TokenFilePath())
}

// SaveClient persists the OAuth client credentials next to the tokens.
func (s *FileTokenStore) SaveClient(cc *ClientConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SaveClientConfig(s.ClientFilePath(), cc)
}

// LoadClient returns the persisted OAuth client credentials.
func (s *FileTokenStore) LoadClient() (*ClientConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadClientConfig(s.ClientFilePath())
}

// GetValidAccessToken returns an access token that is valid for at least the
// expiry margin. A fresh token is returned without any network call; a stale
// one triggers exactly one refresh, persisted before returning. Concurrent
// callers share a single refresh via singleflight. When the refresh token is
// missing or rejected, a reauthorization-required error is returned and the
// stale record is left on disk untouched.
func (s *FileTokenStore) GetValidAccessToken(ctx context.Context) (string, error) {
	v, err, _ := s.group.Do("access-token", func() (interface{}, error) {
		record, errLoad := s.Load()
		if errLoad != nil {
			return "", errLoad
		}

		if s.now().Add(ExpiryMargin).Before(record.ExpiresAt()) {
			return record.AccessToken, nil
		}

		record, errLoad = s.refreshLocked(ctx, record)
		if errLoad != nil {
			return "", errLoad
		}
		return record.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ForceRefresh refreshes the stored record regardless of its expiry and
// persists the result. Used by the explicit -refresh mode.
func (s *FileTokenStore) ForceRefresh(ctx context.Context) (*XTokenStorage, error) {
	record, err := s.Load()
	if err != nil {
		return nil, err
	}
	return s.refreshLocked(ctx, record)
}

// refreshLocked performs one refresh attempt and persists the replacement
// record. It never retries; a vendor rejection means the user must re-run the
// login step.
func (s *FileTokenStore) refreshLocked(ctx context.Context, record *XTokenStorage) (*XTokenStorage, error) {
	s.mu.Lock()
	refresher := s.refresher
	s.mu.Unlock()

	if refresher == nil {
		return nil, NewAuthenticationError(ErrReauthorizationRequired, nil)
	}
	if record.RefreshToken == "" {
		log.Debug("stored record has no refresh token")
		return nil, NewAuthenticationError(ErrReauthorizationRequired, nil)
	}

	refreshed, err := refresher.RefreshTokens(ctx, record.RefreshToken)
	if err != nil {
		// The stale file stays on disk for inspection; only a successful
		// refresh may replace it.
		return nil, NewAuthenticationError(ErrReauthorizationRequired, err)
	}

	if err = s.Save(refreshed); err != nil {
		return nil, err
	}
	log.Debug("refreshed access token")
	return refreshed, nil
}
