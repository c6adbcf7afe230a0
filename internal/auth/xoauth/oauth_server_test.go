package xoauth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// freePort asks the kernel for an unused localhost port.
func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}

func startCallbackServer(t *testing.T) (*OAuthServer, int) {
	t.Helper()
	port := freePort(t)
	server := NewOAuthServer(port)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = server.Stop(context.Background()) })
	return server, port
}

func TestCallbackDeliversCodeAndState(t *testing.T) {
	t.Parallel()

	server, port := startCallbackServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?code=abc123&state=xyz", port))
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Authorization successful") {
		t.Errorf("success page missing confirmation text: %q", body)
	}

	result, err := server.WaitForCallback(5 * time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback() error = %v", err)
	}
	if result.Code != "abc123" || result.State != "xyz" {
		t.Errorf("result = %+v, want code abc123 and state xyz", result)
	}
}

func TestCallbackErrorParamReportedToFlow(t *testing.T) {
	t.Parallel()

	server, port := startCallbackServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?error=access_denied&error_description=user+said+no", port))
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	_ = resp.Body.Close()

	result, err := server.WaitForCallback(5 * time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback() error = %v", err)
	}
	if result.Error != "access_denied" {
		t.Errorf("result error = %q, want access_denied", result.Error)
	}
	if result.ErrorDescription != "user said no" {
		t.Errorf("result description = %q, want the vendor reason", result.ErrorDescription)
	}
}

func TestCallbackMissingCode(t *testing.T) {
	t.Parallel()

	server, port := startCallbackServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?state=xyz", port))
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	result, err := server.WaitForCallback(5 * time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback() error = %v", err)
	}
	if result.Error != "no_code" {
		t.Errorf("result error = %q, want no_code", result.Error)
	}
}

func TestWaitForCallbackTimeout(t *testing.T) {
	t.Parallel()

	server, _ := startCallbackServer(t)

	_, err := server.WaitForCallback(50 * time.Millisecond)
	if !IsAuthErrorType(err, ErrCallbackTimeout) {
		t.Errorf("error = %v, want callback timeout", err)
	}
}

func TestStartOnBusyPort(t *testing.T) {
	t.Parallel()

	_, port := startCallbackServer(t)

	second := NewOAuthServer(port)
	err := second.Start()
	if !IsAuthErrorType(err, ErrPortInUse) {
		t.Fatalf("error = %v, want port in use", err)
	}
}

func TestStopReleasesPort(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	server := NewOAuthServer(port)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := server.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if server.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// The port must be bindable again for the next run.
	reuse := NewOAuthServer(port)
	if err := reuse.Start(); err != nil {
		t.Fatalf("Start() after Stop error = %v", err)
	}
	_ = reuse.Stop(context.Background())
}
