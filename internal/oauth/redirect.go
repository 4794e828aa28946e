package oauth

import (
	"net"
	"net/url"
	"strconv"
)

// LoopbackHost is the only interface the callback listener binds to.
const LoopbackHost = "127.0.0.1"

// RedirectTarget is the local address the identity provider redirects the browser to.
type RedirectTarget struct {
	Host string
	Port string
}

// Addr returns the host:port pair to bind.
func (t RedirectTarget) Addr() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// ExtractRedirectPort returns the decimal port of a redirect URL of the form
// scheme://host:port/path. The URL must have a path after the port. Only the
// authority is inspected, so ports in the path or query are ignored.
func ExtractRedirectPort(redirectURL string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Host == "" {
		return "", &ConfigError{RedirectURL: redirectURL, Message: "expected scheme://host:port/path"}
	}

	port := u.Port()
	if port == "" {
		return "", &ConfigError{RedirectURL: redirectURL, Message: "no port after the host"}
	}
	if n, err := strconv.Atoi(port); err != nil || n > 65535 {
		return "", &ConfigError{RedirectURL: redirectURL, Message: "port out of range"}
	}
	if u.Path == "" {
		return "", &ConfigError{RedirectURL: redirectURL, Message: "expected a path after the port"}
	}
	return port, nil
}

// ParseRedirectTarget derives the loopback bind target for a redirect URL.
func ParseRedirectTarget(redirectURL string) (RedirectTarget, error) {
	port, err := ExtractRedirectPort(redirectURL)
	if err != nil {
		return RedirectTarget{}, err
	}
	return RedirectTarget{Host: LoopbackHost, Port: port}, nil
}
