// Package cmd implements the top-level operations of the x-bookmarks CLI:
// the OAuth login flow, token refresh, and bookmark fetching.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sharbelxyz/x-bookmarks/internal/auth/xoauth"
	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/util"
	log "github.com/sirupsen/logrus"
)

// BearerTokenEnv overrides the token store with a fixed bearer token.
const BearerTokenEnv = "X_API_BEARER_TOKEN"

// LoginOptions controls the OAuth authorization run.
type LoginOptions struct {
	// ClientID is the X API application's OAuth2 client ID. Required.
	ClientID string
	// ClientSecret enables confidential-client Basic auth on the token endpoint.
	ClientSecret string
	// NoBrowser suppresses opening the system browser; the URL is printed instead.
	NoBrowser bool
	// CallbackPort overrides the configured OAuth callback port.
	CallbackPort int
	// Prompt, when set, enables the manual paste-the-callback-URL fallback.
	// It asks the user for input and returns what they typed.
	Prompt func(message string) (string, error)
}

// FetchOptions controls a bookmark fetch run.
type FetchOptions struct {
	// Count limits how many bookmarks are returned.
	Count int
	// All fetches every bookmark, ignoring Count.
	All bool
	// SinceID only returns bookmarks newer than this tweet ID.
	SinceID string
	// Pretty indents the JSON output.
	Pretty bool
	// Source selects the acquisition path: "auto", "bird", or "api".
	Source string
}

// StdinPrompt reads one line from standard input for the manual callback
// fallback. A closed stdin yields an empty answer rather than an error, so
// piped runs fall back to waiting on the listener.
func StdinPrompt(message string) (string, error) {
	fmt.Print(message)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

// newTokenStore builds the file token store rooted at the resolved auth
// directory. When client credentials were persisted by a previous login, the
// refresh client is attached so stale tokens renew transparently.
func newTokenStore(cfg *config.Config) (*xoauth.FileTokenStore, error) {
	authDir, err := util.ResolveAuthDir(cfg.AuthDir)
	if err != nil {
		return nil, err
	}
	store := xoauth.NewFileTokenStore(authDir)

	cc, err := store.LoadClient()
	if err != nil {
		log.WithField("error", err).Debug("no stored client config, refresh disabled")
		return store, nil
	}
	store.SetRefresher(xoauth.NewXAuth(cfg, cc))
	return store, nil
}
