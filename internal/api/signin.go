package api

import (
	"context"
	"errors"
	"net/http"

	"auditctl/internal/oauth"
)

const (
	tokenPath          = "Token"
	prepareSignInPath  = "AuditEmailSettings/PrepareOAuthSignIn"
	completeSignInPath = "AuditEmailSettings/CompleteOAuthSignIn"
)

var _ oauth.SignInService = (*Client)(nil)

// TokenURL is the endpoint that issues bearer tokens for a username and password.
func (c *Client) TokenURL() string {
	return c.baseURL + "/" + tokenPath
}

// PrepareSignIn asks the service for a Microsoft 365 sign-in URL.
func (c *Client) PrepareSignIn(ctx context.Context, req oauth.SignInRequest) (*oauth.PreparedSignIn, error) {
	var prepared oauth.PreparedSignIn
	if err := c.authed(ctx, http.MethodPost, prepareSignInPath, req, &prepared); err != nil {
		return nil, err
	}
	return &prepared, nil
}

// CompleteSignIn exchanges the captured code and state. A rejection is
// reported as *oauth.ExchangeError carrying the service's body.
func (c *Client) CompleteSignIn(ctx context.Context, code oauth.AuthCode) (*oauth.CompletedSignIn, error) {
	var completed oauth.CompletedSignIn
	err := c.authed(ctx, http.MethodPost, completeSignInPath, code, &completed)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &oauth.ExchangeError{StatusCode: apiErr.StatusCode, Body: apiErr.Body}
		}
		return nil, err
	}
	return &completed, nil
}
