package cmd

import (
	"github.com/spf13/cobra"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the cached login credential",
	Long: `Manage the credential auditctl uses to call the audit service.

Commands that talk to the service reuse the cached credential while it is
valid and log in with server.username and AUDITCTL_PASSWORD when it is
missing or expired.

Examples:
  auditctl auth login     # Log in now
  auditctl auth status    # Show the cached credential and its expiry
  auditctl auth logout    # Delete the cached credential`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the cached credential",
	Long: `Delete the cached credential file. The next command that talks to the
audit service logs in again.

Also use this when the credential file cannot be read.`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuthLogout),
}

func runAuthLogout(_ *cobra.Command, env *environment, _ []string) error {
	if err := env.sessions.Logout(); err != nil {
		return err
	}
	env.printer.Successf("Removed cached credential %s", env.store.Path())
	return nil
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)

	rootCmd.AddCommand(authCmd)
}
