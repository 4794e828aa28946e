// Package oauth implements the operator-side sign-in for auditctl.
//
// Two credentials are involved. The bearer token that authorizes every REST
// call comes from the service's token endpoint (PasswordLogin) and is cached
// on disk. The Microsoft 365 grant used for notification e-mail is brokered
// by the service: it hands out a sign-in URL and later trades the
// authorization code for a sign-in request id. This package owns the local
// half of both.
//
// # Browser flow
//
//	ParseRedirectTarget -> PrepareSignIn -> Listen -> OpenBrowser
//	  -> CallbackListener.Wait -> ParseCallback -> CompleteSignIn
//
// AuthFlow drives those steps once. Every failure is terminal.
//
// # Callback listener
//
// CallbackListener binds 127.0.0.1 on the port taken from the redirect URL
// and waits for the first GET with a non-empty path. That connection is
// answered with a fixed plain-text page and the listener stops. Other
// connections are dropped without a reply.
//
// # Token storage
//
// FileCredentialStore keeps a single TokenRecord at
//
//	~/.config/auditctl/token.json
//
// written atomically with 0600 permissions. SessionManager reuses a stored
// record while IsValid holds and otherwise runs a fresh PasswordLogin.
package oauth
