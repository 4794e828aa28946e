package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"auditctl/internal/cli"
	"auditctl/internal/config"
	"auditctl/internal/oauth"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

// fakeAuditService is an in-memory audit service for the command tests.
type fakeAuditService struct {
	mu       sync.Mutex
	requests []seenRequest
	handlers map[string]http.HandlerFunc
}

func newFakeAuditService(t *testing.T) (*fakeAuditService, *httptest.Server) {
	t.Helper()
	svc := &fakeAuditService{handlers: map[string]http.HandlerFunc{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		svc.mu.Lock()
		svc.requests = append(svc.requests, seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(body),
			Auth:   r.Header.Get("Authorization"),
		})
		h, ok := svc.handlers[r.Method+" "+r.URL.Path]
		svc.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(server.Close)
	return svc, server
}

func (s *fakeAuditService) handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" /v7/"+path] = h
}

func (s *fakeAuditService) json(method, path string, v interface{}) {
	s.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (s *fakeAuditService) status(method, path string, code int, body string) {
	s.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	})
}

// issueTokens makes the token endpoint accept the test account and answer
// with token. Any other credentials get an invalid_grant error.
func (s *fakeAuditService) issueTokens(token string) {
	s.handle(http.MethodPost, "Token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != testUsername || r.PostForm.Get("password") != testPassword {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"The user name or password is incorrect."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  token,
			"token_type":    "bearer",
			"refresh_token": "refresh-" + token,
			"expires_in":    3600,
		})
	})
}

// find returns the requests for method and path below /v7/.
func (s *fakeAuditService) find(method, path string) []seenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []seenRequest
	for _, r := range s.requests {
		if r.Method == method && r.Path == "/v7/"+path {
			out = append(out, r)
		}
	}
	return out
}

const (
	testUsername = `ACME\audit`
	testPassword = "s3cret"
)

// withPassword provides the service account password the way operators do.
func withPassword(t *testing.T, password string) {
	t.Helper()
	t.Setenv(config.EnvPassword, password)
}

// testConfig returns a complete configuration for address.
func testConfig(address string, callbackPort int) config.AuditctlConfig {
	cfg := config.GetDefaultConfig()
	cfg.Server.Address = address
	cfg.Server.Username = testUsername
	cfg.Azure = config.AzureConfig{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:" + strconv.Itoa(callbackPort) + "/callback",
	}
	cfg.Notification = config.NotificationConfig{
		From:    "audit@acme.test",
		To:      "secops@acme.test",
		Subject: "Mailbox audit",
		UserID:  "user-1",
	}
	cfg.Auth.CallbackTimeout = 5 * time.Second
	return cfg
}

func writeConfig(t *testing.T, dir string, cfg config.AuditctlConfig) {
	t.Helper()
	require.NoError(t, config.SaveConfig(dir, cfg))
}

// seedToken caches a credential that stays valid for an hour.
func seedToken(t *testing.T, dir, token string) *oauth.FileCredentialStore {
	t.Helper()
	store, err := oauth.NewFileCredentialStore(filepath.Join(dir, tokenFileName))
	require.NoError(t, err)
	require.NoError(t, store.Save(oauth.NewTokenRecord(token, "Bearer", "", 3600, time.Now())))
	return store
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// scriptedReader answers prompts from a fixed list of lines.
type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) SetPrompt(string) {}

func (r *scriptedReader) Close() error { return nil }

// answerPrompts makes every prompt of the next command read from lines.
func answerPrompts(t *testing.T, lines ...string) {
	t.Helper()
	original := newPrompter
	reader := &scriptedReader{lines: lines}
	newPrompter = func(out io.Writer) (*cli.Prompter, error) {
		return cli.NewPrompterWithReader(reader, out), nil
	}
	t.Cleanup(func() { newPrompter = original })
}

// browserRedirect replaces the browser with a GET of the loopback callback.
func browserRedirect(t *testing.T, port int, query string) {
	t.Helper()
	original := openBrowser
	openBrowser = func(string) error {
		go func() {
			resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/callback?" + query)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
	t.Cleanup(func() { openBrowser = original })
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command against configDir and returns stdout and stderr.
func runCLI(t *testing.T, configDir string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--config-path", configDir))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
