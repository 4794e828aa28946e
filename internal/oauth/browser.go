package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserLauncher starts the command that opens the browser.
// Tests replace it to avoid opening a real browser.
var browserLauncher = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// browserCommand returns the platform command that opens target in the default browser.
func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", target), nil
	case "darwin":
		return exec.Command("open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// validateSignInURL only lets http(s) URLs reach the platform opener.
func validateSignInURL(raw string) error {
	if raw == "" {
		return errors.New("sign-in URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host in %q", raw)
	}
	return nil
}

// OpenBrowser opens the sign-in URL in the default web browser.
// It does not wait for the browser to start.
func OpenBrowser(signInURL string) error {
	if err := validateSignInURL(signInURL); err != nil {
		return err
	}

	cmd, err := browserCommand(runtime.GOOS, signInURL)
	if err != nil {
		return err
	}

	if err := browserLauncher(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
