package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sharbelxyz/x-bookmarks/internal/bird"
	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/xapi"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/pretty"
)

// DoFetch retrieves bookmarks and writes them as a JSON array to stdout.
// The bird CLI (cookie auth) is preferred when present; the X API path is the
// fallback, fed by the token store or the bearer-token environment override.
func DoFetch(cfg *config.Config, options *FetchOptions) error {
	if options == nil {
		options = &FetchOptions{}
	}
	if options.Count <= 0 {
		options.Count = cfg.FetchCount
	}

	source := options.Source
	if source == "" {
		source = "auto"
	}

	birdClient := bird.NewClient(cfg.BirdBinary)
	if source == "auto" {
		if birdClient.Available() {
			source = "bird"
		} else {
			log.Debug("bird CLI not found, falling back to the X API")
			source = "api"
		}
	}

	var out []byte
	switch source {
	case "bird":
		// The bird CLI only understands a result count; the API-path filters
		// don't translate.
		if options.All || options.SinceID != "" {
			log.Warn("-all and -since-id only apply to the api source; ignoring them for bird")
		}
		raw, err := birdClient.Bookmarks(context.Background(), options.Count)
		if err != nil {
			return fmt.Errorf("fetch via bird CLI failed: %w", err)
		}
		out = raw
	case "api":
		raw, err := fetchViaAPI(cfg, options)
		if err != nil {
			return err
		}
		out = raw
	default:
		return fmt.Errorf("unknown source %q (want auto, bird, or api)", source)
	}

	if options.Pretty {
		out = pretty.Pretty(out)
	}
	_, _ = os.Stdout.Write(out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// fetchViaAPI runs the OAuth-token path and returns the normalized JSON array.
func fetchViaAPI(cfg *config.Config, options *FetchOptions) ([]byte, error) {
	var tokens xapi.TokenSource
	if bearer := strings.TrimSpace(os.Getenv(BearerTokenEnv)); bearer != "" {
		log.Debugf("using bearer token from %s, bypassing the token store", BearerTokenEnv)
		tokens = xapi.StaticToken(bearer)
	} else {
		store, err := newTokenStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		tokens = store
	}

	client := xapi.NewClient(cfg, tokens)
	records, err := client.FetchBookmarks(context.Background(), xapi.FetchOptions{
		Count:   options.Count,
		All:     options.All,
		SinceID: options.SinceID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch via X API failed (if credentials expired, re-run the login step or set %s): %w", BearerTokenEnv, err)
	}

	return []byte("[" + strings.Join(records, ",") + "]"), nil
}
