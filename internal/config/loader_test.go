package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0600))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvClientSecret, "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvClientSecret, "")

	dir := t.TempDir()
	writeConfigFile(t, dir, `
server:
  address: https://vb365:4443
  insecureSkipVerify: true
  timeout: 30s
azure:
  tenantId: tenant
  clientId: client
  clientSecret: secret
notification:
  from: audit@contoso.com
  to: ops@contoso.com
  userId: audit@contoso.com
auth:
  callbackTimeout: 2m
  openBrowser: false
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://vb365:4443", cfg.Server.Address)
	assert.Equal(t, DefaultAPIVersion, cfg.Server.APIVersion, "unset keys keep their defaults")
	assert.True(t, cfg.Server.InsecureSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "secret", cfg.Azure.ClientSecret)
	assert.Equal(t, DefaultRedirectURL, cfg.Azure.RedirectURL)
	assert.Equal(t, DefaultSubject, cfg.Notification.Subject)
	assert.Equal(t, 2*time.Minute, cfg.Auth.CallbackTimeout)
	assert.False(t, cfg.Auth.ShouldOpenBrowser())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "server:\n  address: https://from-file\nazure:\n  clientSecret: from-file\n")

	t.Setenv(EnvAddress, "https://from-env:4443")
	t.Setenv(EnvClientSecret, "env-secret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env:4443", cfg.Server.Address)
	assert.Equal(t, "env-secret", cfg.Azure.ClientSecret)
}

func TestLoadConfig_PasswordOnlyFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "server:\n  username: file-user\n  password: from-file\n")
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-user", cfg.Server.Username)
	assert.Empty(t, cfg.Server.Password)

	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-password")
	cfg, err = LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Server.Username)
	assert.Equal(t, "env-password", cfg.Server.Password)

	require.NoError(t, SaveConfig(dir, cfg))
	data, err := os.ReadFile(ConfigFilePath(dir))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env-password")
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "server: [not: a map")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected *ConfigurationError, got %T", err)
	assert.Equal(t, "parse", cfgErr.ErrorType)
	assert.Equal(t, ConfigFilePath(dir), cfgErr.FilePath)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvClientSecret, "")
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	dir := filepath.Join(t.TempDir(), "auditctl")
	original := GetDefaultConfig()
	original.Server.Address = "https://vb365:4443"
	original.Server.Username = `CONTOSO\audit`
	original.Azure.ClientSecret = "secret"

	require.NoError(t, SaveConfig(dir, original))

	info, err := os.Stat(ConfigFilePath(dir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestConfig_DurationsAreHumanReadable(t *testing.T) {
	data, err := yaml.Marshal(GetDefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 1m0s")
	assert.Contains(t, string(data), "callbackTimeout: 10m0s")
}

func TestGetDefaultConfigPath(t *testing.T) {
	original := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = original })

	osUserHomeDir = func() (string, error) { return "/home/op", nil }
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/op", ".config/auditctl"), path)

	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }
	_, err = GetDefaultConfigPath()
	assert.Error(t, err)
}
