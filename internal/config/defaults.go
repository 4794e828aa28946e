package config

import "time"

const (
	// DefaultAPIVersion is the REST API version prefix.
	DefaultAPIVersion = "v7"

	// DefaultRedirectURL is where the identity provider sends the browser back to.
	DefaultRedirectURL = "http://localhost:8080/callback"

	// DefaultSubject is the notification subject template.
	DefaultSubject = `Audit notification {{ now | date "2006-01-02" }}`

	// DefaultTimeout bounds each request to the audit service.
	DefaultTimeout = 60 * time.Second

	// DefaultCallbackTimeout bounds the wait for the browser redirect.
	DefaultCallbackTimeout = 10 * time.Minute
)

// GetDefaultConfig returns the configuration used when no file overrides it.
func GetDefaultConfig() AuditctlConfig {
	return AuditctlConfig{
		Server: ServerConfig{
			APIVersion:         DefaultAPIVersion,
			InsecureSkipVerify: false,
			Timeout:            DefaultTimeout,
		},
		Azure: AzureConfig{
			RedirectURL: DefaultRedirectURL,
		},
		Notification: NotificationConfig{
			Subject: DefaultSubject,
		},
		Auth: AuthConfig{
			CallbackTimeout: DefaultCallbackTimeout,
		},
	}
}
