package cmd

import (
	"context"
	"fmt"

	"github.com/sharbelxyz/x-bookmarks/internal/config"
)

// DoRefresh forces a refresh of the stored token record regardless of expiry.
func DoRefresh(cfg *config.Config) error {
	store, err := newTokenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	record, err := store.ForceRefresh(context.Background())
	if err != nil {
		return fmt.Errorf("refresh failed (re-run the login step to authorize again): %w", err)
	}

	fmt.Printf("Token refreshed successfully; expires at %s\n", record.Expire)
	return nil
}

// DoPrintToken prints the current valid access token to stdout, refreshing it
// first if it is stale. Useful for piping into other tools.
func DoPrintToken(cfg *config.Config) error {
	store, err := newTokenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	token, err := store.GetValidAccessToken(context.Background())
	if err != nil {
		return fmt.Errorf("no valid token (run the login step to authorize): %w", err)
	}

	fmt.Println(token)
	return nil
}
