package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the audit service",
	Long: `Log in to the audit service with server.username and the password in
AUDITCTL_PASSWORD and cache the resulting bearer token. The token replaces
any cached one, valid or not.

Examples:
  AUDITCTL_PASSWORD=... auditctl auth login
  auditctl auth login --debug   # Log every login step`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuthLogin),
}

func runAuthLogin(cmd *cobra.Command, env *environment, _ []string) error {
	_, session, err := env.login(cmd.Context())
	if err != nil {
		return err
	}

	env.printer.Successf("Logged in, credential valid until %s", session.Token.ExpiresOn.Local().Format(time.RFC1123))
	env.printer.Infof("Credential saved to %s\n", env.store.Path())
	return nil
}
