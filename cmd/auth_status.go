package cmd

import (
	"fmt"
	"time"

	"auditctl/internal/oauth"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// authStatus is the machine-readable form of "auth status".
type authStatus struct {
	Path            string     `json:"path"`
	Present         bool       `json:"present"`
	Valid           bool       `json:"valid"`
	TokenType       string     `json:"tokenType,omitempty"`
	ExpiresOn       *time.Time `json:"expiresOn,omitempty"`
	HasRefreshToken bool       `json:"hasRefreshToken"`
}

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached credential",
	Long: `Show whether a credential is cached, when it expires and whether it is
still valid. Token values are never printed.

Examples:
  auditctl auth status
  auditctl auth status -o json`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuthStatus),
}

func runAuthStatus(_ *cobra.Command, env *environment, _ []string) error {
	record, err := env.store.Load()
	if err != nil {
		return env.describe(err)
	}

	status := newAuthStatus(env.store.Path(), record, time.Now())
	return env.printer.Object(statusPairs(status, time.Now()), status)
}

func newAuthStatus(path string, record *oauth.TokenRecord, now time.Time) authStatus {
	status := authStatus{Path: path}
	if record == nil {
		return status
	}
	expires := record.ExpiresOn
	status.Present = true
	status.Valid = oauth.IsValid(record, now)
	status.TokenType = record.TokenType
	status.ExpiresOn = &expires
	status.HasRefreshToken = record.RefreshToken != ""
	return status
}

func statusPairs(s authStatus, now time.Time) [][2]string {
	pairs := [][2]string{{"Credential file", s.Path}}
	if !s.Present {
		return append(pairs, [2]string{"Status", text.FgYellow.Sprint("Not signed in")})
	}

	state := text.FgGreen.Sprint("Valid")
	if !s.Valid {
		state = text.FgRed.Sprint("Expired")
	}
	return append(pairs,
		[2]string{"Status", state},
		[2]string{"Token type", s.TokenType},
		[2]string{"Expires", fmt.Sprintf("%s (%s)", s.ExpiresOn.Local().Format(time.RFC1123), formatRemaining(s.ExpiresOn.Sub(now)))},
	)
}

// formatRemaining renders the time left until expiry in a human-friendly way.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	switch {
	case d < time.Minute:
		return "in less than a minute"
	case d < time.Hour:
		return fmt.Sprintf("in %d minutes", int(d.Minutes()))
	default:
		return fmt.Sprintf("in %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
