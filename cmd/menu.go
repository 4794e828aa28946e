package cmd

import (
	"github.com/spf13/cobra"
)

// menuAction is one entry of the interactive menu.
type menuAction struct {
	title string
	run   func(cmd *cobra.Command, env *environment, args []string) error
}

var menuActions = []menuAction{
	{title: "Get audit items", run: runAuditList},
	{title: "Add audit items", run: runAuditAdd},
	{title: "Remove audit items", run: runAuditRemove},
	{title: "Get users/groups", run: runDirectoryExport},
	{title: "Setup/reauthorize notifications", run: runNotificationsSetup},
	{title: "Send test email", run: runNotificationsTest},
}

// menuCmd represents the menu command
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick an action from a numbered menu",
	Long: `Show a numbered menu of the common actions and run the chosen one.
This is also what auditctl does when started without a command.`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

var runMenu = withEnvironment(func(cmd *cobra.Command, env *environment, args []string) error {
	p, err := env.prompt()
	if err != nil {
		return err
	}

	titles := make([]string, len(menuActions))
	for i, a := range menuActions {
		titles[i] = a.title
	}
	idx, err := p.Select("Select action:", titles, 0)
	if err != nil {
		return err
	}
	return menuActions[idx].run(cmd, env, args)
})

func init() {
	rootCmd.AddCommand(menuCmd)
}
