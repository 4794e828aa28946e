package oauth

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError indicates the redirect URL does not carry a usable port.
type ConfigError struct {
	// RedirectURL is the configured value that could not be used.
	RedirectURL string
	// Message describes what is wrong with it.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid redirect URL %q: %s", e.RedirectURL, e.Message)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// BindError indicates the loopback listener could not bind its port.
type BindError struct {
	Addr   string
	Reason error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("failed to start callback listener on %s: %v", e.Addr, e.Reason)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *BindError) Is(target error) bool {
	_, ok := target.(*BindError)
	return ok
}

// ReadError indicates an inbound connection could not be read as an HTTP request.
// The listener logs these and keeps accepting; they never end a login attempt.
type ReadError struct {
	RemoteAddr string
	Reason     error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read callback request from %s: %v", e.RemoteAddr, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ReadError) Is(target error) bool {
	_, ok := target.(*ReadError)
	return ok
}

// InvalidCallbackError indicates the captured redirect did not carry an
// authorization code and state.
type InvalidCallbackError struct {
	// Missing lists the required query parameters that were absent or empty.
	Missing []string
	// ProviderError and ProviderErrorDescription are set when the identity
	// provider redirected back with an error instead of a code.
	ProviderError            string
	ProviderErrorDescription string
	// Reason is set when the query string itself could not be decoded.
	Reason error
}

// Error implements the error interface.
func (e *InvalidCallbackError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("invalid callback: %v", e.Reason)
	}
	if e.ProviderError != "" {
		if e.ProviderErrorDescription != "" {
			return fmt.Sprintf("authorization failed: %s - %s", e.ProviderError, e.ProviderErrorDescription)
		}
		return fmt.Sprintf("authorization failed: %s", e.ProviderError)
	}
	return fmt.Sprintf("invalid callback: missing %s", strings.Join(e.Missing, ", "))
}

// Unwrap returns the decoding error, if any.
func (e *InvalidCallbackError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *InvalidCallbackError) Is(target error) bool {
	_, ok := target.(*InvalidCallbackError)
	return ok
}

// ExchangeError indicates the remote service rejected the code/state pair.
type ExchangeError struct {
	StatusCode int
	// Body is the remote's error body, shown to the operator as-is.
	Body string
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Body)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *ExchangeError) Is(target error) bool {
	_, ok := target.(*ExchangeError)
	return ok
}

// LoginError indicates the service's token endpoint refused the username and
// password, or answered without a usable token.
type LoginError struct {
	// StatusCode is the token endpoint's HTTP status, zero when no answer was received.
	StatusCode int
	// Body is the endpoint's error body, shown to the operator as-is.
	Body   string
	Reason error
}

// Error implements the error interface.
func (e *LoginError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("login failed (status %d): %s", e.StatusCode, e.Body)
	case e.Reason != nil:
		return fmt.Sprintf("login failed: %v", e.Reason)
	default:
		return "login failed"
	}
}

// Unwrap returns the underlying error.
func (e *LoginError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *LoginError) Is(target error) bool {
	_, ok := target.(*LoginError)
	return ok
}

// StorageError indicates the credential file exists but could not be read,
// decoded or written. A missing file is not a StorageError.
type StorageError struct {
	// Op is one of "load", "save" or "delete".
	Op     string
	Path   string
	Reason error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s credentials at %s: %v", e.Op, e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)
	return ok
}

// AuthTimeoutError indicates nobody completed the browser sign-in in time.
type AuthTimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *AuthTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for the browser sign-in to complete", e.Timeout)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthTimeoutError) Is(target error) bool {
	_, ok := target.(*AuthTimeoutError)
	return ok
}
