package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"auditctl/pkg/logging"
)

// Session is an authenticated connection to the remote service.
type Session struct {
	// Client attaches the bearer token to every request.
	Client *http.Client
	// Token is the credential backing Client.
	Token *TokenRecord
	// Reused reports whether Token came from the credential store.
	Reused bool
}

// Authenticator obtains a new bearer credential.
type Authenticator interface {
	Run(ctx context.Context) (*TokenRecord, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) (*TokenRecord, error)

// Run implements Authenticator.
func (f AuthenticatorFunc) Run(ctx context.Context) (*TokenRecord, error) {
	return f(ctx)
}

// SessionManager decides between the cached credential and a new sign-in.
type SessionManager struct {
	// Store holds the cached credential.
	Store CredentialStore
	// NewAuthenticator returns a fresh login for every attempt.
	NewAuthenticator func() Authenticator
	// BaseClient carries transport settings such as TLS and timeouts.
	// Defaults to http.DefaultClient.
	BaseClient *http.Client
	// Now defaults to time.Now.
	Now func() time.Time
}

func (m *SessionManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Session returns a client backed by the stored credential while it is
// valid, and logs in again otherwise. A storage failure on load is
// returned as is rather than silently replaced by a new sign-in.
func (m *SessionManager) Session(ctx context.Context) (*Session, error) {
	record, err := m.Store.Load()
	if err != nil {
		return nil, err
	}

	if IsValid(record, m.now()) {
		logging.Debug("Session", "Reusing cached credential from %s", m.Store.Path())
		return &Session{
			Client: m.client(ctx, record),
			Token:  record,
			Reused: true,
		}, nil
	}

	if record != nil {
		logging.Info("Session", "Cached credential expired at %s, logging in again", record.ExpiresOn.Format(time.RFC3339))
	}
	return m.Login(ctx)
}

// Login always obtains a new credential and stores it.
func (m *SessionManager) Login(ctx context.Context) (*Session, error) {
	record, err := m.NewAuthenticator().Run(ctx)
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Event:   "login_failed",
			Outcome: "failure",
			Attrs:   []any{"error", err.Error()},
		})
		return nil, err
	}
	if record == nil || record.AccessToken == "" {
		return nil, &LoginError{Reason: errors.New("login returned no access token")}
	}

	if err := m.Store.Save(record); err != nil {
		return nil, err
	}

	logging.Audit(logging.AuditEvent{
		Event:   "login_completed",
		Outcome: "success",
		Attrs:   []any{"expires_on", record.ExpiresOn.Format(time.RFC3339)},
	})

	return &Session{
		Client: m.client(ctx, record),
		Token:  record,
	}, nil
}

// Logout forgets the stored credential.
func (m *SessionManager) Logout() error {
	return m.Store.Delete()
}

func (m *SessionManager) client(ctx context.Context, record *TokenRecord) *http.Client {
	base := m.BaseClient
	if base == nil {
		base = http.DefaultClient
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(record.OAuth2Token()))
	client.Timeout = base.Timeout
	return client
}
