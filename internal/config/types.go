package config

import "time"

// AuditctlConfig is the top-level configuration structure for auditctl.
type AuditctlConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Azure        AzureConfig        `yaml:"azure"`
	Notification NotificationConfig `yaml:"notification"`
	Auth         AuthConfig         `yaml:"auth"`
}

// ServerConfig locates the audit service's REST API.
type ServerConfig struct {
	Address            string        `yaml:"address"`                      // e.g. https://vb365:4443
	APIVersion         string        `yaml:"apiVersion,omitempty"`         // path prefix (default: v7)
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify,omitempty"` // accept self-signed certificates
	Timeout            time.Duration `yaml:"timeout,omitempty"`            // per request (default: 60s)
	Username           string        `yaml:"username"`                     // service account, e.g. CONTOSO\audit

	// Password is only read from the AUDITCTL_PASSWORD environment variable.
	Password string `yaml:"-"`
}

// AzureConfig is the Entra ID application the service signs in with.
type AzureConfig struct {
	TenantID     string `yaml:"tenantId"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	// RedirectURL must carry an explicit port; the loopback listener binds it.
	RedirectURL string `yaml:"redirectUrl"`
}

// NotificationConfig is applied by "notifications setup".
type NotificationConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	// Subject is a text/template with sprig functions, see cli.RenderSubject.
	Subject string `yaml:"subject"`
	UserID  string `yaml:"userId"`
}

// AuthConfig controls the credential cache and the browser sign-in.
type AuthConfig struct {
	TokenFile       string        `yaml:"tokenFile,omitempty"`       // default: ~/.config/auditctl/token.json
	CallbackTimeout time.Duration `yaml:"callbackTimeout,omitempty"` // default: 10m
	OpenBrowser     *bool         `yaml:"openBrowser,omitempty"`     // default: true
}

// ShouldOpenBrowser reports whether the sign-in URL is opened automatically.
func (a AuthConfig) ShouldOpenBrowser() bool {
	return a.OpenBrowser == nil || *a.OpenBrowser
}
