package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"auditctl/pkg/logging"
)

// AuthenticationServiceKind identifies the identity provider to the remote service.
const AuthenticationServiceKind = "Microsoft365"

// FlowState is the position of an AuthFlow in its state machine.
type FlowState int

const (
	// FlowStateIdle means Run has not been called.
	FlowStateIdle FlowState = iota

	// FlowStateAwaitingSignInURL means the sign-in URL was requested from the remote service.
	FlowStateAwaitingSignInURL

	// FlowStateAwaitingBrowserCallback means the browser was opened and the listener is waiting.
	FlowStateAwaitingBrowserCallback

	// FlowStateExchangingCode means the authorization code is being exchanged.
	FlowStateExchangingCode

	// FlowStateComplete means sign-in finished successfully.
	FlowStateComplete

	// FlowStateFailed means a step failed; the flow cannot be reused.
	FlowStateFailed
)

// String returns the string representation of the flow state.
func (s FlowState) String() string {
	switch s {
	case FlowStateIdle:
		return "idle"
	case FlowStateAwaitingSignInURL:
		return "awaiting_sign_in_url"
	case FlowStateAwaitingBrowserCallback:
		return "awaiting_browser_callback"
	case FlowStateExchangingCode:
		return "exchanging_code"
	case FlowStateComplete:
		return "complete"
	case FlowStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SignInRequest is sent to the remote service to prepare a sign-in.
type SignInRequest struct {
	AuthenticationServiceKind string `json:"authenticationServiceKind"`
	ClientID                  string `json:"clientId"`
	ClientSecret              string `json:"clientSecret"`
	TenantID                  string `json:"tenantId"`
	RedirectURL               string `json:"redirectUrl"`
}

// PreparedSignIn is the remote service's answer to a SignInRequest.
type PreparedSignIn struct {
	SignInURL string `json:"signInUrl"`
	RequestID string `json:"requestId"`
}

// CompletedSignIn is the remote service's answer to an exchanged AuthCode.
// It identifies the authorized mail account; it carries no bearer token.
type CompletedSignIn struct {
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
}

// SignInService is the remote side of the sign-in: it hands out sign-in URLs
// and exchanges authorization codes. Both calls are made on behalf of an
// already authenticated session. Non-2xx answers to CompleteSignIn must be
// reported as *ExchangeError.
type SignInService interface {
	PrepareSignIn(ctx context.Context, req SignInRequest) (*PreparedSignIn, error)
	CompleteSignIn(ctx context.Context, code AuthCode) (*CompletedSignIn, error)
}

// SignInResult is what a completed flow yields: the sign-in request the
// service now holds a Microsoft 365 grant for.
type SignInResult struct {
	RequestID string
	UserID    string
}

// AuthFlowConfig configures an AuthFlow.
type AuthFlowConfig struct {
	// Service performs the two remote calls.
	Service SignInService

	// Request is sent as-is to PrepareSignIn; its RedirectURL also selects
	// the loopback port.
	Request SignInRequest

	// OpenBrowser opens the sign-in URL. Defaults to OpenBrowser.
	OpenBrowser func(url string) error

	// CallbackTimeout bounds the wait for the browser redirect.
	// Zero selects CallbackTimeout; a negative value waits forever.
	CallbackTimeout time.Duration

	// Output receives operator instructions. Defaults to io.Discard.
	Output io.Writer

	// OnStateChange, if set, is called after every transition.
	OnStateChange func(FlowState)
}

// AuthFlow runs one browser sign-in that authorizes the service to act as a
// Microsoft 365 mail account: request a sign-in URL, open the browser,
// capture the redirect on a loopback listener and exchange the code.
// Every step is fatal on failure and nothing is retried.
type AuthFlow struct {
	cfg AuthFlowConfig

	mu      sync.RWMutex
	state   FlowState
	started bool
}

// NewAuthFlow creates a flow in FlowStateIdle.
func NewAuthFlow(cfg AuthFlowConfig) *AuthFlow {
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = OpenBrowser
	}
	if cfg.CallbackTimeout == 0 {
		cfg.CallbackTimeout = CallbackTimeout
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	return &AuthFlow{cfg: cfg, state: FlowStateIdle}
}

// State returns the current state.
func (f *AuthFlow) State() FlowState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

func (f *AuthFlow) setState(s FlowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()

	logging.Debug("AuthFlow", "State changed to %s", s)
	if f.cfg.OnStateChange != nil {
		f.cfg.OnStateChange(s)
	}
}

func (f *AuthFlow) fail(err error) (*SignInResult, error) {
	f.setState(FlowStateFailed)
	return nil, err
}

// Run executes the flow. A flow runs at most once.
func (f *AuthFlow) Run(ctx context.Context) (*SignInResult, error) {
	f.mu.Lock()
	if f.started {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("cannot run auth flow in state: %s", state)
	}
	f.started = true
	f.mu.Unlock()

	if f.cfg.Service == nil {
		return f.fail(errors.New("no sign-in service configured"))
	}

	target, err := ParseRedirectTarget(f.cfg.Request.RedirectURL)
	if err != nil {
		return f.fail(err)
	}

	// RequestSignIn
	f.setState(FlowStateAwaitingSignInURL)
	prepared, err := f.cfg.Service.PrepareSignIn(ctx, f.cfg.Request)
	if err != nil {
		return f.fail(fmt.Errorf("failed to prepare sign-in: %w", err))
	}
	if prepared.SignInURL == "" {
		return f.fail(errors.New("remote service returned an empty sign-in URL"))
	}

	// CaptureCallback starts before the browser so the redirect cannot beat the bind.
	listener, err := Listen(target)
	if err != nil {
		return f.fail(err)
	}
	defer listener.Close()

	// BrowserHandoff
	f.setState(FlowStateAwaitingBrowserCallback)
	fmt.Fprintln(f.cfg.Output, "Opening browser to sign in...")
	if err := f.cfg.OpenBrowser(prepared.SignInURL); err != nil {
		logging.Warn("AuthFlow", "Could not open browser: %v", err)
		fmt.Fprintf(f.cfg.Output, "Could not open a browser. Open this URL to sign in:\n\n  %s\n\n", prepared.SignInURL)
	}
	fmt.Fprintf(f.cfg.Output, "Waiting for the sign-in redirect on %s...\n", listener.Addr())

	timeout := f.cfg.CallbackTimeout
	if timeout < 0 {
		timeout = 0
	}
	raw, err := listener.Wait(ctx, timeout)
	if err != nil {
		return f.fail(err)
	}

	code, err := ParseCallback(raw)
	if err != nil {
		return f.fail(err)
	}

	// CompleteSignIn
	f.setState(FlowStateExchangingCode)
	completed, err := f.cfg.Service.CompleteSignIn(ctx, *code)
	if err != nil {
		return f.fail(err)
	}
	if completed.RequestID == "" {
		completed.RequestID = prepared.RequestID
	}

	result := &SignInResult{
		RequestID: completed.RequestID,
		UserID:    completed.UserID,
	}

	f.setState(FlowStateComplete)
	logging.Info("AuthFlow", "Sign-in complete for request %s", result.RequestID)
	return result, nil
}
