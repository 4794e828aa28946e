package cli

import (
	"errors"
	"fmt"

	"auditctl/internal/api"
	"auditctl/internal/config"
	"auditctl/internal/oauth"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration is unusable.
	ExitCodeConfig = 2
	// ExitCodeAuthFailed indicates the login or the browser sign-in failed.
	ExitCodeAuthFailed = 3
	// ExitCodeStorage indicates the credential file could not be read or written.
	ExitCodeStorage = 4
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var validationErrs config.ValidationErrors
	switch {
	case errors.Is(err, &oauth.ConfigError{}),
		errors.Is(err, &config.ConfigurationError{}),
		errors.As(err, &validationErrs):
		return ExitCodeConfig
	case errors.Is(err, &oauth.LoginError{}),
		errors.Is(err, &oauth.ExchangeError{}),
		errors.Is(err, &oauth.InvalidCallbackError{}),
		errors.Is(err, &oauth.AuthTimeoutError{}),
		errors.Is(err, &oauth.BindError{}),
		errors.Is(err, &AuthFailedError{}):
		return ExitCodeAuthFailed
	case errors.Is(err, &oauth.StorageError{}):
		return ExitCodeStorage
	default:
		return ExitCodeError
	}
}

// AuthFailedError is a login or sign-in failure with guidance for the operator.
type AuthFailedError struct {
	// Reason is the underlying error.
	Reason error
	// Retry is the command that retries; defaults to "auditctl auth login".
	Retry string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	retry := e.Retry
	if retry == "" {
		retry = "auditctl auth login"
	}
	return fmt.Sprintf(`Sign-in failed: %v

To retry, run:
  %s`, e.Reason, retry)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// AuthExpiredError indicates the service rejected the cached credential.
type AuthExpiredError struct {
	// Path is where the rejected credential is stored.
	Path string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`The audit service rejected the stored credential at %s

To log in again, run:
  auditctl auth login`, e.Path)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// Describe adds operator guidance to errors that commonly need it.
func Describe(err error, tokenPath string) error {
	if err == nil {
		return nil
	}
	var storageErr *oauth.StorageError
	if errors.As(err, &storageErr) && storageErr.Op == "load" {
		return fmt.Errorf("%w\n\nTo discard the stored credential, run:\n  auditctl auth logout", err)
	}
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%w: %w", &AuthExpiredError{Path: tokenPath}, err)
	}
	return err
}
