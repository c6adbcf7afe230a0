package xoauth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRefresher counts refresh calls and returns either a fixed record or an error.
type fakeRefresher struct {
	calls  int64
	record *XTokenStorage
	err    error
}

func (f *fakeRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*XTokenStorage, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func newTestStore(t *testing.T, record *XTokenStorage) *FileTokenStore {
	t.Helper()
	store := NewFileTokenStore(t.TempDir())
	if record != nil {
		if err := store.Save(record); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return store
}

func TestGetValidAccessTokenFresh(t *testing.T) {
	t.Parallel()

	record := &XTokenStorage{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	refresher := &fakeRefresher{}
	store.SetRefresher(refresher)

	token, err := store.GetValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("GetValidAccessToken() error = %v", err)
	}
	if token != "fresh-token" {
		t.Errorf("token = %q, want stored value", token)
	}
	if n := atomic.LoadInt64(&refresher.calls); n != 0 {
		t.Errorf("refresh calls = %d, want 0 for a fresh token", n)
	}
}

func TestGetValidAccessTokenWithinMarginRefreshes(t *testing.T) {
	t.Parallel()

	// Expiry is in the future but inside the safety margin.
	record := &XTokenStorage{
		AccessToken:  "stale-token",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(30 * time.Second).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	refresher := &fakeRefresher{record: &XTokenStorage{
		AccessToken:  "new-token",
		RefreshToken: "new-refresh",
		Expire:       time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}}
	store.SetRefresher(refresher)

	token, err := store.GetValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("GetValidAccessToken() error = %v", err)
	}
	if token != "new-token" {
		t.Errorf("token = %q, want refreshed value", token)
	}
	if n := atomic.LoadInt64(&refresher.calls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}

	// The replacement record must have been persisted.
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "new-token" || loaded.RefreshToken != "new-refresh" {
		t.Errorf("persisted record = %+v, want refreshed tokens", loaded)
	}
}

func TestGetValidAccessTokenRefreshRejected(t *testing.T) {
	t.Parallel()

	record := &XTokenStorage{
		AccessToken:  "expired-token",
		RefreshToken: "revoked",
		Expire:       time.Now().Add(-time.Hour).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	store.SetRefresher(&fakeRefresher{err: NewOAuthError("invalid_grant", "refresh token revoked", 400)})

	_, err := store.GetValidAccessToken(context.Background())
	if !IsAuthErrorType(err, ErrReauthorizationRequired) {
		t.Fatalf("error = %v, want reauthorization_required", err)
	}

	// The stale file stays on disk untouched.
	loaded, errLoad := store.Load()
	if errLoad != nil {
		t.Fatalf("Load() error = %v", errLoad)
	}
	if loaded.AccessToken != "expired-token" {
		t.Errorf("stale record was modified: %+v", loaded)
	}
}

func TestGetValidAccessTokenNoRefreshToken(t *testing.T) {
	t.Parallel()

	record := &XTokenStorage{
		AccessToken: "expired-token",
		Expire:      time.Now().Add(-time.Hour).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	store.SetRefresher(&fakeRefresher{})

	_, err := store.GetValidAccessToken(context.Background())
	if !IsAuthErrorType(err, ErrReauthorizationRequired) {
		t.Errorf("error = %v, want reauthorization_required", err)
	}
}

func TestGetValidAccessTokenMissingFile(t *testing.T) {
	t.Parallel()

	store := NewFileTokenStore(t.TempDir())
	_, err := store.GetValidAccessToken(context.Background())
	if !IsAuthErrorType(err, ErrNoTokens) {
		t.Errorf("error = %v, want no_tokens", err)
	}
}

func TestConcurrentRefreshesCollapse(t *testing.T) {
	t.Parallel()

	record := &XTokenStorage{
		AccessToken:  "expired-token",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(-time.Minute).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	refresher := &fakeRefresher{record: &XTokenStorage{
		AccessToken:  "new-token",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}}
	store.SetRefresher(refresher)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := store.GetValidAccessToken(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if token != "new-token" {
				errs <- fmt.Errorf("unexpected token %q", token)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("worker error: %v", err)
	}

	// Overlapping callers share one in-flight refresh; stragglers load the
	// persisted fresh record and skip the refresh entirely.
	if n := atomic.LoadInt64(&refresher.calls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
}

func TestForceRefreshPersists(t *testing.T) {
	t.Parallel()

	record := &XTokenStorage{
		AccessToken:  "old",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	store := newTestStore(t, record)
	refresher := &fakeRefresher{record: &XTokenStorage{
		AccessToken:  "forced",
		RefreshToken: "refresh",
		Expire:       time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	}}
	store.SetRefresher(refresher)

	refreshed, err := store.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh() error = %v", err)
	}
	if refreshed.AccessToken != "forced" {
		t.Errorf("refreshed token = %q, want forced value", refreshed.AccessToken)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "forced" {
		t.Errorf("persisted token = %q, want forced value", loaded.AccessToken)
	}
	if _, err = os.Stat(store.TokenFilePath()); err != nil {
		t.Errorf("token file missing after refresh: %v", err)
	}
}
