package cmd

import (
	"context"
	"os"

	"auditctl/internal/cli"
	"auditctl/pkg/logging"

	"github.com/spf13/cobra"
)

// commonFlags holds the persistent flags shared by every command.
var commonFlags cli.CommandFlags

// rootCmd represents the base command for the auditctl application.
// Without a subcommand it opens the interactive menu.
var rootCmd = &cobra.Command{
	Use:   "auditctl",
	Short: "Manage audit accounts and audit notifications of a backup server",
	Long: `auditctl manages the audit items and the audit e-mail notifications of a
Microsoft 365 backup server through its REST API.

It logs in with the configured service account, caches the resulting
bearer token and reuses it until it expires. Enabling notifications also
opens a browser sign-in for the mail account.

Examples:
  auditctl                              # Interactive menu
  auditctl audit list                   # List audit items
  auditctl directory export --all       # Save users.json and groups.json
  auditctl audit add --users            # Audit every exported user
  auditctl notifications setup          # (Re)authorize audit e-mails`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: initLogging,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command with ctx and exits with a code describing
// the failure, if any. This function is called by main.main().
func Execute(ctx context.Context) {
	rootCmd.SetVersionTemplate(`{{printf "auditctl version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	return cli.ExitCode(err)
}

func initLogging(cmd *cobra.Command, _ []string) error {
	level := logging.LevelWarn
	if commonFlags.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &commonFlags)
	rootCmd.RunE = runMenu

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
