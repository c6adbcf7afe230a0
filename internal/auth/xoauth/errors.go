package xoauth

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuthError represents an OAuth-specific error returned by the vendor.
type OAuthError struct {
	// Code is the OAuth error code.
	Code string `json:"error"`
	// Description is a human-readable description of the error.
	Description string `json:"error_description,omitempty"`
	// StatusCode is the HTTP status code associated with the error.
	StatusCode int `json:"-"`
}

// Error returns a string representation of the OAuth error.
func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("OAuth error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("OAuth error: %s", e.Code)
}

// NewOAuthError creates a new OAuth error with the specified code, description, and status code.
func NewOAuthError(code, description string, statusCode int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		StatusCode:  statusCode,
	}
}

// AuthenticationError represents authentication-related errors.
type AuthenticationError struct {
	// Type is the type of authentication error.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Code is the exit or HTTP status code associated with the error.
	Code int `json:"code"`
	// Cause is the underlying error that caused this authentication error.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Common authentication error types.
var (
	// ErrMissingClientID represents a configuration error when no client ID was supplied.
	ErrMissingClientID = &AuthenticationError{
		Type:    "missing_client_id",
		Message: "A client ID is required; pass -client-id",
		Code:    http.StatusBadRequest,
	}

	// ErrInvalidState represents an error for invalid OAuth state parameter.
	ErrInvalidState = &AuthenticationError{
		Type:    "invalid_state",
		Message: "OAuth state parameter is invalid",
		Code:    http.StatusBadRequest,
	}

	// ErrAuthorizationDenied represents the user declining consent in the browser.
	ErrAuthorizationDenied = &AuthenticationError{
		Type:    "authorization_denied",
		Message: "Authorization was denied in the browser",
		Code:    http.StatusForbidden,
	}

	// ErrCodeExchangeFailed represents an error when exchanging authorization code for tokens fails.
	ErrCodeExchangeFailed = &AuthenticationError{
		Type:    "code_exchange_failed",
		Message: "Failed to exchange authorization code for tokens",
		Code:    http.StatusBadRequest,
	}

	// ErrServerStartFailed represents an error when starting the OAuth callback server fails.
	ErrServerStartFailed = &AuthenticationError{
		Type:    "server_start_failed",
		Message: "Failed to start OAuth callback server",
		Code:    http.StatusInternalServerError,
	}

	// ErrPortInUse represents an error when the OAuth callback port is already in use.
	ErrPortInUse = &AuthenticationError{
		Type:    "port_in_use",
		Message: "OAuth callback port is already in use",
		Code:    13, // Special exit code for port-in-use
	}

	// ErrCallbackTimeout represents an error when waiting for OAuth callback times out.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "Timeout waiting for OAuth callback",
		Code:    http.StatusRequestTimeout,
	}

	// ErrNoTokens represents a missing token file; a full authorization run is needed.
	ErrNoTokens = &AuthenticationError{
		Type:    "no_tokens",
		Message: "No stored tokens found",
		Code:    http.StatusUnauthorized,
	}

	// ErrReauthorizationRequired represents a rejected or missing refresh token.
	ErrReauthorizationRequired = &AuthenticationError{
		Type:    "reauthorization_required",
		Message: "Stored credentials can no longer be refreshed",
		Code:    http.StatusUnauthorized,
	}

	// ErrTokenPersistFailed represents a disk write failure while saving tokens.
	ErrTokenPersistFailed = &AuthenticationError{
		Type:    "token_persist_failed",
		Message: "Failed to persist tokens to disk",
		Code:    http.StatusInternalServerError,
	}
)

// NewAuthenticationError creates a new authentication error with a cause based on a base error.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	return errors.As(err, &authenticationError)
}

// IsOAuthError checks if an error is an OAuth error.
func IsOAuthError(err error) bool {
	var oAuthError *OAuthError
	return errors.As(err, &oAuthError)
}

// IsAuthErrorType reports whether err is an AuthenticationError of the same
// type as the given base error.
func IsAuthErrorType(err error, baseErr *AuthenticationError) bool {
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		return false
	}
	return authErr.Type == baseErr.Type
}

// GetUserFriendlyMessage returns a user-friendly error message based on the error type.
func GetUserFriendlyMessage(err error) string {
	switch {
	case IsAuthenticationError(err):
		var authErr *AuthenticationError
		errors.As(err, &authErr)
		switch authErr.Type {
		case "missing_client_id":
			return "A client ID is required. Pass -client-id with your X API application's client ID."
		case "invalid_state":
			return "The authorization callback did not match this login attempt. Please re-run the login step."
		case "authorization_denied":
			return "Authorization was cancelled or denied in the browser."
		case "port_in_use":
			return "The OAuth callback port is already in use. Is another login already running?"
		case "callback_timeout":
			return "Authorization timed out. Please re-run the login step."
		case "no_tokens", "reauthorization_required":
			return "Stored credentials are missing or expired. Please re-run the login step."
		case "token_persist_failed":
			return "Tokens could not be saved to disk. Check permissions on the auth directory."
		default:
			return "Authentication failed. Please try again."
		}
	case IsOAuthError(err):
		var oauthErr *OAuthError
		errors.As(err, &oauthErr)
		switch oauthErr.Code {
		case "access_denied":
			return "Authorization was cancelled or denied."
		case "invalid_request":
			return "Invalid authorization request. Please try again."
		case "server_error":
			return "Authorization server error. Please try again later."
		default:
			return fmt.Sprintf("Authorization failed: %s", oauthErr.Description)
		}
	default:
		return "An unexpected error occurred. Please try again."
	}
}
