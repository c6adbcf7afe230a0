// Package main provides the entry point for the x-bookmarks CLI.
// The tool fetches a user's X/Twitter bookmarks through either the external
// bird CLI (cookie auth) or the X API v2 (OAuth 2.0 PKCE), and manages the
// OAuth tokens the API path depends on.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sharbelxyz/x-bookmarks/internal/auth/xoauth"
	"github.com/sharbelxyz/x-bookmarks/internal/buildinfo"
	"github.com/sharbelxyz/x-bookmarks/internal/cmd"
	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads configuration, and dispatches to the
// selected mode: OAuth login, token refresh, token printing, or the default
// bookmark fetch.
func main() {
	var login bool
	var refresh bool
	var printToken bool
	var fetch bool
	var clientID string
	var clientSecret string
	var noBrowser bool
	var oauthCallbackPort int
	var count int
	var all bool
	var sinceID string
	var prettyOut bool
	var source string
	var configPath string
	var showVersion bool

	flag.BoolVar(&login, "login", false, "Authorize with the X API using OAuth 2.0 PKCE")
	flag.BoolVar(&refresh, "refresh", false, "Force a refresh of the stored access token")
	flag.BoolVar(&printToken, "print-token", false, "Print the current valid access token")
	flag.BoolVar(&fetch, "fetch", false, "Fetch bookmarks (default mode)")
	flag.StringVar(&clientID, "client-id", "", "X API application client ID (required for -login)")
	flag.StringVar(&clientSecret, "client-secret", "", "Client secret for confidential clients")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.IntVar(&oauthCallbackPort, "oauth-callback-port", 0, "Override OAuth callback port")
	flag.IntVar(&count, "count", 0, "Number of bookmarks to fetch")
	flag.BoolVar(&all, "all", false, "Fetch all bookmarks")
	flag.StringVar(&sinceID, "since-id", "", "Only return bookmarks newer than this tweet ID")
	flag.BoolVar(&prettyOut, "pretty", false, "Pretty-print JSON output")
	flag.StringVar(&source, "source", "auto", "Bookmark source: auto, bird, or api")
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Parse()

	if showVersion {
		fmt.Printf("x-bookmarks Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	// Load environment variables from .env if present.
	if wd, errWd := os.Getwd(); errWd == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
			if !errors.Is(errLoad, os.ErrNotExist) {
				log.WithError(errLoad).Warn("failed to load .env file")
			}
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure logging: %v", err)
		os.Exit(1)
	}
	logging.InstallRunID()

	fetchOptions := &cmd.FetchOptions{
		Count:   count,
		All:     all,
		SinceID: sinceID,
		Pretty:  prettyOut,
		Source:  source,
	}

	switch {
	case login:
		err = cmd.DoLogin(cfg, &cmd.LoginOptions{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			NoBrowser:    noBrowser,
			CallbackPort: oauthCallbackPort,
			Prompt:       cmd.StdinPrompt,
		})
	case refresh:
		err = cmd.DoRefresh(cfg)
	case printToken:
		err = cmd.DoPrintToken(cfg)
	case fetch:
		err = cmd.DoFetch(cfg, fetchOptions)
	default:
		// No mode flag given; fetch is the default.
		err = cmd.DoFetch(cfg, fetchOptions)
	}

	if err != nil {
		if xoauth.IsAuthErrorType(err, xoauth.ErrPortInUse) {
			log.Error(xoauth.GetUserFriendlyMessage(err))
			os.Exit(xoauth.ErrPortInUse.Code)
		}
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
