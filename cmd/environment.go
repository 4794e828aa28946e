package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"auditctl/internal/api"
	"auditctl/internal/cli"
	"auditctl/internal/config"
	"auditctl/internal/oauth"
	"auditctl/pkg/logging"

	"github.com/spf13/cobra"
)

// tokenFileName is the credential file inside the configuration directory.
const tokenFileName = "token.json"

// Seams replaced by tests.
var (
	newPrompter = func(out io.Writer) (*cli.Prompter, error) { return cli.NewPrompter(out) }
	openBrowser = oauth.OpenBrowser
)

// environment is everything a command needs to talk to the audit service.
type environment struct {
	cfg       config.AuditctlConfig
	configDir string

	out        io.Writer
	errOut     io.Writer
	printer    *cli.Printer
	httpClient *http.Client
	api        *api.Client
	store      *oauth.FileCredentialStore
	sessions   *oauth.SessionManager

	prompter *cli.Prompter
}

// loadEnvironment reads the configuration, validates what every remote
// command needs and wires the API client and session manager.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	format, err := cli.ParseOutputFormat(commonFlags.OutputFormat)
	if err != nil {
		return nil, err
	}

	configDir := commonFlags.ConfigPath
	if configDir == "" {
		if configDir, err = config.GetDefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	tokenFile := cfg.Auth.TokenFile
	if tokenFile == "" {
		tokenFile = filepath.Join(configDir, tokenFileName)
	}
	store, err := oauth.NewFileCredentialStore(tokenFile)
	if err != nil {
		return nil, err
	}

	httpClient := api.NewHTTPClient(cfg.Server.Timeout, cfg.Server.InsecureSkipVerify)
	client := api.NewClient(api.BaseURL(cfg.Server.Address, cfg.Server.APIVersion))

	printer := cli.NewPrinter(cmd.OutOrStdout(), format)
	printer.NoHeaders = commonFlags.NoHeaders
	printer.Quiet = commonFlags.Quiet

	env := &environment{
		cfg:        cfg,
		configDir:  configDir,
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
		printer:    printer,
		httpClient: httpClient,
		api:        client,
		store:      store,
	}
	env.sessions = &oauth.SessionManager{
		Store:            store,
		NewAuthenticator: env.newAuthenticator,
		BaseClient:       httpClient,
	}

	logging.Debug("CLI", "Using %s with credentials at %s", client.BaseURL(), store.Path())
	return env, nil
}

// newAuthenticator returns a fresh username and password login. The
// credentials are checked when it runs, so commands that reuse a cached
// credential do not need them.
func (e *environment) newAuthenticator() oauth.Authenticator {
	return oauth.AuthenticatorFunc(func(ctx context.Context) (*oauth.TokenRecord, error) {
		if err := e.cfg.ValidateLogin(); err != nil {
			return nil, fmt.Errorf("cannot log in, invalid configuration in %s: %w", config.ConfigFilePath(e.configDir), err)
		}

		login := &oauth.PasswordLogin{
			TokenURL:   e.api.TokenURL(),
			Username:   e.cfg.Server.Username,
			Password:   e.cfg.Server.Password,
			HTTPClient: e.httpClient,
		}

		progress := cli.StartProgress(e.errOut, commonFlags.Quiet, fmt.Sprintf("Logging in to %s as %s...", e.cfg.Server.Address, e.cfg.Server.Username))
		record, err := login.Run(ctx)
		if err != nil {
			progress.Fail("Login failed")
			return nil, err
		}
		progress.Succeed("Logged in")
		return record, nil
	})
}

// authorizeMailbox runs the browser sign-in that lets the service send mail
// as the notification account. client must carry a session.
func (e *environment) authorizeMailbox(ctx context.Context, client *api.Client) (*oauth.SignInResult, error) {
	if err := e.cfg.ValidateSignIn(); err != nil {
		return nil, fmt.Errorf("cannot sign in, invalid configuration in %s: %w", config.ConfigFilePath(e.configDir), err)
	}

	browser := openBrowser
	if !e.cfg.Auth.ShouldOpenBrowser() {
		browser = func(string) error { return fmt.Errorf("opening a browser is disabled") }
	}

	var progress *cli.Progress
	flow := oauth.NewAuthFlow(oauth.AuthFlowConfig{
		Service: client,
		Request: oauth.SignInRequest{
			AuthenticationServiceKind: oauth.AuthenticationServiceKind,
			ClientID:                  e.cfg.Azure.ClientID,
			ClientSecret:              e.cfg.Azure.ClientSecret,
			TenantID:                  e.cfg.Azure.TenantID,
			RedirectURL:               e.cfg.Azure.RedirectURL,
		},
		OpenBrowser:     browser,
		CallbackTimeout: e.cfg.Auth.CallbackTimeout,
		Output:          e.errOut,
		OnStateChange: func(s oauth.FlowState) {
			switch s {
			case oauth.FlowStateAwaitingBrowserCallback:
				progress = cli.StartProgress(e.errOut, commonFlags.Quiet, "Waiting for browser sign-in...")
			case oauth.FlowStateExchangingCode:
				progress.Stop()
				progress = cli.StartProgress(e.errOut, commonFlags.Quiet, "Completing sign-in...")
			case oauth.FlowStateComplete:
				progress.Succeed("Signed in")
			case oauth.FlowStateFailed:
				progress.Fail("Sign-in failed")
			}
		},
	})

	result, err := flow.Run(ctx)
	if err != nil {
		if cli.ExitCode(err) == cli.ExitCodeAuthFailed {
			return nil, &cli.AuthFailedError{Reason: err, Retry: "auditctl notifications setup"}
		}
		return nil, cli.Describe(err, e.store.Path())
	}
	logging.Audit(logging.AuditEvent{
		Event:   "mailbox_sign_in_completed",
		Outcome: "success",
		Attrs:   []any{"request_id", result.RequestID, "user_id", result.UserID},
	})
	return result, nil
}

// session returns an API client authorized by the cached credential, or by
// a new sign-in when there is none.
func (e *environment) session(ctx context.Context) (*api.Client, *oauth.Session, error) {
	if err := e.validateServer(); err != nil {
		return nil, nil, err
	}
	s, err := e.sessions.Session(ctx)
	if err != nil {
		return nil, nil, e.describe(err)
	}
	if s.Reused {
		logging.Debug("CLI", "Reusing cached credential valid until %s", s.Token.ExpiresOn)
	}
	return e.api.WithSession(s.Client), s, nil
}

// login always logs in with the configured account and replaces the cached credential.
func (e *environment) login(ctx context.Context) (*api.Client, *oauth.Session, error) {
	if err := e.validateServer(); err != nil {
		return nil, nil, err
	}
	s, err := e.sessions.Login(ctx)
	if err != nil {
		return nil, nil, e.describe(err)
	}
	return e.api.WithSession(s.Client), s, nil
}

func (e *environment) validateServer() error {
	if err := e.cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", config.ConfigFilePath(e.configDir), err)
	}
	return nil
}

func (e *environment) describe(err error) error {
	if cli.ExitCode(err) == cli.ExitCodeAuthFailed {
		return &cli.AuthFailedError{Reason: err}
	}
	return cli.Describe(err, e.store.Path())
}

// prompt returns the interactive prompter, opening it on first use.
func (e *environment) prompt() (*cli.Prompter, error) {
	if e.prompter != nil {
		return e.prompter, nil
	}
	p, err := newPrompter(e.out)
	if err != nil {
		return nil, err
	}
	p.AssumeYes = commonFlags.Yes
	e.prompter = p
	return p, nil
}

func (e *environment) close() {
	if e.prompter != nil {
		_ = e.prompter.Close()
	}
}

// confirm asks before a change; declining aborts the command.
func (e *environment) confirm(question string) error {
	if commonFlags.Yes {
		return nil
	}
	p, err := e.prompt()
	if err != nil {
		return err
	}
	ok, err := p.Confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		return cli.ErrAborted
	}
	return nil
}

// selectOrganization resolves --org by id or name, or asks when the
// service hosts more than one organization.
func (e *environment) selectOrganization(ctx context.Context, client *api.Client, want string) (api.Organization, error) {
	orgs, err := client.ListOrganizations(ctx)
	if err != nil {
		return api.Organization{}, e.describe(fmt.Errorf("failed to list organizations: %w", err))
	}
	if len(orgs) == 0 {
		return api.Organization{}, fmt.Errorf("no organizations found on %s", client.BaseURL())
	}

	if want != "" {
		for _, org := range orgs {
			if org.ID == want || strings.EqualFold(org.Name, want) {
				return org, nil
			}
		}
		return api.Organization{}, fmt.Errorf("organization %q not found", want)
	}

	if len(orgs) == 1 {
		return orgs[0], nil
	}

	names := make([]string, len(orgs))
	for i, org := range orgs {
		names[i] = org.Name
	}
	p, err := e.prompt()
	if err != nil {
		return api.Organization{}, err
	}
	idx, err := p.Select("Select organization:", names, 0)
	if err != nil {
		return api.Organization{}, err
	}
	return orgs[idx], nil
}

// withEnvironment adapts a command body that needs an environment to cobra.
func withEnvironment(run func(cmd *cobra.Command, env *environment, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		err = run(cmd, env, args)
		if errors.Is(err, cli.ErrAborted) {
			fmt.Fprintln(env.out, "Exiting...")
			return nil
		}
		return err
	}
}
