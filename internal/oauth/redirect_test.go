package oauth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRedirectPort(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"localhost with path", "http://localhost:8080/callback", "8080"},
		{"loopback ip", "http://127.0.0.1:3000/", "3000"},
		{"https scheme", "https://example.com:4443/oauth/redirect", "4443"},
		{"userinfo skipped", "http://user:pw@localhost:9999/cb", "9999"},
		{"nested path", "http://localhost:5000/a/b/c?x=1", "5000"},
		{"port in query ignored", "http://localhost:8080/cb?next=http://x:9/y", "8080"},
		{"port in path ignored", "http://localhost:8080/a:9/b", "8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractRedirectPort(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRedirectPort_ConfigError(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no port", "http://localhost/callback"},
		{"port without path", "http://localhost:8080"},
		{"non numeric port", "http://localhost:abc/callback"},
		{"port too large", "http://localhost:70000/callback"},
		{"port only in query", "http://localhost/cb?next=http://x:9/y"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractRedirectPort(tt.url)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
			assert.Equal(t, tt.url, cfgErr.RedirectURL)
		})
	}
}

func TestParseRedirectTarget(t *testing.T) {
	target, err := ParseRedirectTarget("http://localhost:8080/callback")
	require.NoError(t, err)

	assert.Equal(t, LoopbackHost, target.Host)
	assert.Equal(t, "8080", target.Port)
	assert.Equal(t, "127.0.0.1:8080", target.Addr())
}
