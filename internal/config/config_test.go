package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AuthDir != DefaultAuthDir {
		t.Errorf("AuthDir = %q, want %q", cfg.AuthDir, DefaultAuthDir)
	}
	if cfg.CallbackPort != DefaultCallbackPort {
		t.Errorf("CallbackPort = %d, want %d", cfg.CallbackPort, DefaultCallbackPort)
	}
	if cfg.BirdBinary != DefaultBirdBinary {
		t.Errorf("BirdBinary = %q, want %q", cfg.BirdBinary, DefaultBirdBinary)
	}
	if cfg.FetchCount != DefaultFetchCount {
		t.Errorf("FetchCount = %d, want %d", cfg.FetchCount, DefaultFetchCount)
	}
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CallbackPort != DefaultCallbackPort {
		t.Errorf("CallbackPort = %d, want %d", cfg.CallbackPort, DefaultCallbackPort)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
auth-dir: "/tmp/x-auth"
proxy-url: "socks5://127.0.0.1:1080"
callback-port: 9001
bird-binary: "/usr/local/bin/bird"
fetch-count: 50
logging-to-file: true
debug: true
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AuthDir != "/tmp/x-auth" {
		t.Errorf("AuthDir = %q", cfg.AuthDir)
	}
	if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
	if cfg.CallbackPort != 9001 {
		t.Errorf("CallbackPort = %d", cfg.CallbackPort)
	}
	if cfg.BirdBinary != "/usr/local/bin/bird" {
		t.Errorf("BirdBinary = %q", cfg.BirdBinary)
	}
	if cfg.FetchCount != 50 {
		t.Errorf("FetchCount = %d", cfg.FetchCount)
	}
	if !cfg.LoggingToFile || !cfg.Debug {
		t.Errorf("LoggingToFile = %v, Debug = %v, want both true", cfg.LoggingToFile, cfg.Debug)
	}
}

func TestLoadConfigPartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.AuthDir != DefaultAuthDir || cfg.CallbackPort != DefaultCallbackPort {
		t.Errorf("defaults not applied: AuthDir=%q CallbackPort=%d", cfg.AuthDir, cfg.CallbackPort)
	}
	if cfg.FetchCount != DefaultFetchCount {
		t.Errorf("FetchCount = %d, want %d", cfg.FetchCount, DefaultFetchCount)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth-dir: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}
