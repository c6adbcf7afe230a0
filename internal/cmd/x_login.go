package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharbelxyz/x-bookmarks/internal/auth/xoauth"
	"github.com/sharbelxyz/x-bookmarks/internal/browser"
	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/misc"
	"github.com/sharbelxyz/x-bookmarks/internal/util"
	log "github.com/sirupsen/logrus"
)

// manualPromptDelay is how long the flow waits for the browser redirect before
// offering the paste-the-callback-URL fallback. Headless runs are prompted
// immediately since no browser will ever deliver the redirect.
const manualPromptDelay = 15 * time.Second

// DoLogin runs the full OAuth 2.0 PKCE authorization flow: generate challenge,
// open browser, block on exactly one callback, exchange the code, persist the
// tokens. The callback port is released on every return path. A port-in-use
// error is returned typed so the caller can map it to its exit code.
func DoLogin(cfg *config.Config, options *LoginOptions) error {
	if options == nil {
		options = &LoginOptions{}
	}
	if options.ClientID == "" {
		// Configuration error: reported before any network activity.
		return errors.New(xoauth.GetUserFriendlyMessage(xoauth.ErrMissingClientID))
	}

	if options.CallbackPort > 0 {
		cfg.CallbackPort = options.CallbackPort
	}

	state, err := misc.GenerateRandomState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}
	session, err := xoauth.NewAuthSession(state)
	if err != nil {
		return fmt.Errorf("failed to prepare authorization session: %w", err)
	}

	clientConfig := &xoauth.ClientConfig{
		ClientID:     options.ClientID,
		ClientSecret: options.ClientSecret,
	}
	auth := xoauth.NewXAuth(cfg, clientConfig)

	authURL, err := auth.GenerateAuthURL(session)
	if err != nil {
		return fmt.Errorf("failed to build authorization URL: %w", err)
	}

	server := xoauth.NewOAuthServer(cfg.CallbackPort)
	if err = server.Start(); err != nil {
		if xoauth.IsAuthErrorType(err, xoauth.ErrPortInUse) {
			return err
		}
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		_ = server.Stop(context.Background())
	}()

	fmt.Println("Opening browser for X authorization...")
	fmt.Printf("If it doesn't open, visit:\n  %s\n", authURL)
	if !options.NoBrowser {
		if !browser.IsAvailable() {
			log.Warn("No browser opener found; open the URL above manually")
		} else if errOpen := browser.OpenURL(authURL); errOpen != nil {
			log.Warnf("Failed to open browser automatically: %v", errOpen)
		}
	}

	result, err := waitForAuthorization(server, options)
	if err != nil {
		if xoauth.IsAuthenticationError(err) {
			return errors.New(xoauth.GetUserFriendlyMessage(err))
		}
		return err
	}

	if result.Error != "" {
		// The user declined consent (or the vendor reported another error).
		// No token file is written or modified.
		if result.Error == "access_denied" {
			return errors.New(xoauth.GetUserFriendlyMessage(xoauth.ErrAuthorizationDenied))
		}
		reason := result.Error
		if result.ErrorDescription != "" {
			reason = fmt.Sprintf("%s (%s)", reason, result.ErrorDescription)
		}
		return fmt.Errorf("authorization failed: %s", reason)
	}

	fmt.Println("Exchanging code for tokens...")
	record, err := auth.ExchangeCodeForTokens(context.Background(), result.Code, result.State, session)
	if err != nil {
		if xoauth.IsAuthErrorType(err, xoauth.ErrInvalidState) {
			// Potential tampering or replay; always fatal.
			return errors.New(xoauth.GetUserFriendlyMessage(err))
		}
		return fmt.Errorf("token exchange failed: %w", err)
	}

	authDir, err := util.ResolveAuthDir(cfg.AuthDir)
	if err != nil {
		return fmt.Errorf("failed to resolve auth directory: %w", err)
	}
	store := xoauth.NewFileTokenStore(authDir)
	if err = store.Save(record); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	if err = store.SaveClient(clientConfig); err != nil {
		return fmt.Errorf("failed to save client config: %w", err)
	}

	fmt.Printf("Authenticated! Access token expires at %s\n", record.Expire)
	if record.RefreshToken != "" {
		fmt.Println("Refresh token saved; tokens will auto-refresh.")
	} else {
		fmt.Println("No refresh token granted. Re-run login when the access token expires, or request the offline.access scope.")
	}
	return nil
}

// waitForAuthorization blocks until the redirect arrives on the local
// listener. When a prompt is configured, it additionally offers a manual
// fallback: the user may paste the full callback URL from the browser address
// bar, which produces the same result the listener would have captured.
func waitForAuthorization(server *xoauth.OAuthServer, options *LoginOptions) (*xoauth.OAuthResult, error) {
	if options.Prompt == nil {
		return server.WaitForCallback(xoauth.CallbackTimeout)
	}

	type outcome struct {
		result *xoauth.OAuthResult
		err    error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		r, errWait := server.WaitForCallback(xoauth.CallbackTimeout)
		outcomeCh <- outcome{result: r, err: errWait}
	}()

	delay := manualPromptDelay
	if options.NoBrowser {
		delay = 0
	}
	promptTimer := time.NewTimer(delay)
	defer promptTimer.Stop()
	promptC := promptTimer.C

	for {
		select {
		case o := <-outcomeCh:
			return o.result, o.err
		case <-promptC:
			promptC = nil
			input, errPrompt := options.Prompt("Paste the callback URL (or press Enter to keep waiting): ")
			if errPrompt != nil {
				return nil, errPrompt
			}
			parsed, errParse := misc.ParseOAuthCallback(input)
			if errParse != nil {
				return nil, errParse
			}
			if parsed == nil {
				continue
			}
			return &xoauth.OAuthResult{
				Code:             parsed.Code,
				State:            parsed.State,
				Error:            parsed.Error,
				ErrorDescription: parsed.ErrorDescription,
			}, nil
		}
	}
}
