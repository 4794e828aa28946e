package cli

import (
	"auditctl/internal/config"

	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by every command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// Yes answers confirmation prompts with yes
	Yes bool
	// ConfigPath specifies a custom configuration directory path
	ConfigPath string
}

// RegisterCommonFlags registers the persistent flags on the root command.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --yes/-y: Do not ask for confirmation
//   - --config-path: Configuration directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	defaultConfigPath, err := config.GetDefaultConfigPath()
	if err != nil {
		defaultConfigPath = ""
	}

	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", defaultConfigPath, "Configuration directory")
}
