package cmd

import (
	"fmt"
	"time"

	"auditctl/internal/api"
	"auditctl/internal/cli"
	"auditctl/internal/config"

	"github.com/spf13/cobra"
)

// notificationsCmd represents the notifications command group
var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Configure audit e-mail notifications",
	Long: `Configure the e-mails the audit service sends for audited mailboxes.

Examples:
  auditctl notifications setup   # Sign in and enable notifications
  auditctl notifications test    # Ask the service for a test e-mail`,
}

// notificationsSetupCmd represents the notifications setup command
var notificationsSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Sign in and enable audit e-mail notifications",
	Long: `Sign in through the browser and store the notification settings from
the notification section of the configuration.

The mail account authorizes the service to send as it, so this always runs
a new browser sign-in. The service login itself reuses the cached credential
while it is valid. Use it again to re-authorize the mail account.

The subject is a Go template with sprig functions, for example:
  subject: 'Mailbox audit {{ now | date "2006-01-02" }}'`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runNotificationsSetup),
}

// notificationsTestCmd represents the notifications test command
var notificationsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification e-mail",
	Args:  cobra.NoArgs,
	RunE:  withEnvironment(runNotificationsTest),
}

func runNotificationsSetup(cmd *cobra.Command, env *environment, _ []string) error {
	ctx := cmd.Context()
	n := env.cfg.Notification
	if err := env.cfg.ValidateNotification(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", config.ConfigFilePath(env.configDir), err)
	}

	subject, err := cli.RenderSubject(n.Subject, cli.SubjectData{From: n.From, To: n.To, UserID: n.UserID, Now: time.Now()})
	if err != nil {
		return err
	}

	client, _, err := env.session(ctx)
	if err != nil {
		return err
	}

	signIn, err := env.authorizeMailbox(ctx, client)
	if err != nil {
		return err
	}
	env.printer.Infof("Logged in successfully!\n")

	data := api.NewNotificationData(n.From, n.To, subject, n.UserID, signIn.RequestID)
	if err := client.UpdateNotificationSettings(ctx, data); err != nil {
		env.printer.Failuref("Notification settings update failed!")
		return env.describe(err)
	}
	env.printer.Successf("Notification settings updated successfully!")
	return nil
}

func runNotificationsTest(cmd *cobra.Command, env *environment, _ []string) error {
	ctx := cmd.Context()
	client, _, err := env.session(ctx)
	if err != nil {
		return err
	}

	if err := client.SendTestEmail(ctx); err != nil {
		env.printer.Failuref("Test email failed to send!")
		return env.describe(err)
	}
	env.printer.Successf("Test email sent successfully!")
	return nil
}

func init() {
	notificationsCmd.AddCommand(notificationsSetupCmd)
	notificationsCmd.AddCommand(notificationsTestCmd)
	rootCmd.AddCommand(notificationsCmd)
}
