// Package bird wraps the external bird CLI, the cookie-auth acquisition path
// for bookmarks. The CLI is an opaque collaborator: it extracts browser session
// cookies and talks to the bookmarks endpoint itself. This package only invokes
// it and passes its JSON output through untouched.
package bird

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Client invokes the bird binary.
type Client struct {
	binary string
}

// NewClient creates a wrapper around the given bird binary path or name.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = "bird"
	}
	return &Client{binary: binary}
}

// Available reports whether the bird binary can be found on PATH.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Bookmarks runs `bird bookmarks --json -n <count>` and returns its stdout.
// The output is validated as JSON but otherwise passed through verbatim; field
// semantics belong to the CLI, not to this wrapper.
func (c *Client) Bookmarks(ctx context.Context, count int) ([]byte, error) {
	args := []string{"bookmarks", "--json"}
	if count > 0 {
		args = append(args, "-n", strconv.Itoa(count))
	}

	log.WithField("count", count).Debugf("running %s %s", c.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("bird CLI failed: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("bird CLI failed: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("bird CLI produced invalid JSON")
	}
	return out, nil
}
