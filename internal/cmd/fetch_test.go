package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sharbelxyz/x-bookmarks/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFetchBirdSourceWarnsAboutAPIOnlyFlags(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	cfg := config.Default()
	cfg.AuthDir = t.TempDir()
	// A binary that cannot exist, so the run fails after the flag check.
	cfg.BirdBinary = filepath.Join(t.TempDir(), "no-such-bird")

	err := DoFetch(cfg, &FetchOptions{Source: "bird", All: true, SinceID: "123"})
	if err == nil {
		t.Fatal("DoFetch() returned nil with a missing bird binary")
	}

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel && strings.Contains(entry.Message, "since-id") {
			warned = true
		}
	}
	if !warned {
		t.Error("no warning logged for -all/-since-id on the bird source")
	}
}

func TestFetchRejectsUnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.AuthDir = t.TempDir()

	err := DoFetch(cfg, &FetchOptions{Source: "carrier-pigeon"})
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Fatalf("error = %v, want unknown source rejection", err)
	}
}
