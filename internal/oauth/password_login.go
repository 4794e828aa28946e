package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"auditctl/pkg/logging"
)

// PasswordLogin obtains a bearer token from the service's token endpoint
// with the resource owner password grant.
type PasswordLogin struct {
	// TokenURL is the service's token endpoint, e.g. https://vb365:4443/v7/Token.
	TokenURL string
	Username string
	Password string

	// HTTPClient carries TLS and timeout settings. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Now defaults to time.Now.
	Now func() time.Time
}

var _ Authenticator = (*PasswordLogin)(nil)

// Run implements Authenticator. The record's expiry is computed from the
// moment the request was sent.
func (p *PasswordLogin) Run(ctx context.Context) (*TokenRecord, error) {
	if p.Username == "" || p.Password == "" {
		return nil, &LoginError{Reason: errors.New("username and password are required")}
	}

	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if p.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	}

	issuedAt := time.Now()
	if p.Now != nil {
		issuedAt = p.Now()
	}

	logging.Debug("PasswordLogin", "Requesting token for %s from %s", p.Username, p.TokenURL)
	tok, err := cfg.PasswordCredentialsToken(ctx, p.Username, p.Password)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &LoginError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       strings.TrimSpace(string(retrieveErr.Body)),
				Reason:     err,
			}
		}
		return nil, &LoginError{Reason: fmt.Errorf("token request to %s: %w", p.TokenURL, err)}
	}

	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 && !tok.Expiry.IsZero() {
		expiresIn = int64(tok.Expiry.Sub(issuedAt) / time.Second)
	}

	return NewTokenRecord(tok.AccessToken, tok.TokenType, tok.RefreshToken, expiresIn, issuedAt), nil
}
