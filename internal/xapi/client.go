// Package xapi is the OAuth-auth acquisition path for bookmarks. It calls the
// X API v2 bookmarks endpoint with a bearer token supplied by the token store
// (or an environment override) and normalizes responses into the same JSON
// shape the bird CLI emits.
package xapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sharbelxyz/x-bookmarks/internal/auth/xoauth"
	"github.com/sharbelxyz/x-bookmarks/internal/config"
	"github.com/sharbelxyz/x-bookmarks/internal/util"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the X API v2 root.
	DefaultBaseURL = "https://api.x.com/2"

	// MaxResultsPerPage is the X API page-size ceiling for bookmarks.
	MaxResultsPerPage = 100
)

// Request field sets kept in sync with what the normalizer consumes.
const (
	tweetFields = "created_at,public_metrics,entities,conversation_id,referenced_tweets"
	userFields  = "username,name,profile_image_url,verified"
	mediaFields = "type,url,preview_image_url"
	expansions  = "author_id,attachments.media_keys,referenced_tweets.id"
)

// TokenSource supplies a bearer token for each request. The file token store
// is the production implementation; StaticToken serves the env override.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed bearer token, bypassing the
// token store entirely.
type StaticToken string

// GetValidAccessToken returns the fixed token.
func (t StaticToken) GetValidAccessToken(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("bearer token is empty")
	}
	return string(t), nil
}

// RateLimitError indicates the API returned 429 for a bookmarks page.
type RateLimitError struct {
	// Body is the vendor's response body, kept for diagnostics.
	Body string
}

func (e *RateLimitError) Error() string {
	return "rate limited by the X API, try again later"
}

// FetchOptions controls a bookmarks fetch.
type FetchOptions struct {
	// Count is the number of bookmarks to return. Ignored when All is set.
	Count int
	// All fetches every page until the API reports no more.
	All bool
	// SinceID limits results to bookmarks newer than the given tweet ID.
	SinceID string
}

// Client talks to the X API v2.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

// NewClient creates an API client using the configured proxy and token source.
func NewClient(cfg *config.Config, tokens TokenSource) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg != nil {
		httpClient = util.SetProxy(cfg, httpClient)
	}
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		baseURL:    DefaultBaseURL,
	}
}

// Me returns the authenticated user's ID.
func (c *Client) Me(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.baseURL+"/users/me")
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "data.id").String()
	if id == "" {
		return "", fmt.Errorf("users/me response missing data.id")
	}
	return id, nil
}

// FetchBookmarks retrieves bookmarks for the authenticated user, following
// pagination until the requested count (or the last page) is reached. Records
// come back normalized to the bird-compatible shape. A mid-pagination rate
// limit returns the bookmarks collected so far.
func (c *Client) FetchBookmarks(ctx context.Context, opts FetchOptions) ([]string, error) {
	userID, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}

	remaining := opts.Count
	if opts.All {
		remaining = -1
	} else if remaining <= 0 {
		remaining = config.DefaultFetchCount
	}

	var bookmarks []string
	paginationToken := ""
	page := 0

	for opts.All || remaining > 0 {
		pageSize := MaxResultsPerPage
		if !opts.All && remaining < pageSize {
			pageSize = remaining
		}

		body, errPage := c.bookmarksPage(ctx, userID, pageSize, paginationToken, opts.SinceID)
		if errPage != nil {
			var rateErr *RateLimitError
			if len(bookmarks) > 0 && errors.As(errPage, &rateErr) {
				log.Warn("rate limited mid-pagination, returning partial results")
				break
			}
			return nil, errPage
		}
		page++

		records := NormalizeBookmarksPage(body)
		if len(records) == 0 {
			break
		}
		bookmarks = append(bookmarks, records...)
		remaining -= len(records)

		log.WithFields(log.Fields{"page": page, "count": len(bookmarks)}).Debug("fetched bookmarks page")

		paginationToken = gjson.GetBytes(body, "meta.next_token").String()
		if paginationToken == "" {
			break
		}
	}

	if !opts.All && opts.Count > 0 && len(bookmarks) > opts.Count {
		bookmarks = bookmarks[:opts.Count]
	}
	return bookmarks, nil
}

// bookmarksPage fetches a single page of bookmarks.
func (c *Client) bookmarksPage(ctx context.Context, userID string, maxResults int, paginationToken, sinceID string) ([]byte, error) {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", tweetFields)
	params.Set("user.fields", userFields)
	params.Set("media.fields", mediaFields)
	params.Set("expansions", expansions)
	if paginationToken != "" {
		params.Set("pagination_token", paginationToken)
	}
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	endpoint := fmt.Sprintf("%s/users/%s/bookmarks?%s", c.baseURL, userID, params.Encode())
	return c.get(ctx, endpoint)
}

// get performs an authenticated GET. An authorization failure response is a
// signal to re-authorize, never a reason to retry with the same token.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, xoauth.NewAuthenticationError(xoauth.ErrReauthorizationRequired,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Body: string(body)}
	default:
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}
