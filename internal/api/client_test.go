package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditctl/internal/oauth"
)

// recordedRequest is what the fake service saw.
type recordedRequest struct {
	Method    string
	Path      string
	Body      string
	Auth      string
	RequestID string
	Length    int64
}

type fakeService struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{handlers: map[string]http.HandlerFunc{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		svc.mu.Lock()
		svc.requests = append(svc.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Body:      string(body),
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get(RequestIDHeader),
			Length:    r.ContentLength,
		})
		handler, ok := svc.handlers[r.Method+" "+r.URL.Path]
		svc.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return svc, server
}

func (s *fakeService) on(method, path string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+path] = handler
}

func (s *fakeService) last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func jsonHandler(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func bearerClient(token string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.Header.Set("Authorization", "Bearer "+token)
		return http.DefaultTransport.RoundTrip(r)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://vb365:4443/v7", BaseURL("https://vb365:4443", ""))
	assert.Equal(t, "https://vb365:4443/v8", BaseURL("https://vb365:4443/", "/v8/"))
}

func TestClient_PrepareSignIn(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodPost, "/v7/AuditEmailSettings/PrepareOAuthSignIn",
		jsonHandler(http.StatusOK, map[string]string{"signInUrl": "https://login.example.com", "requestId": "req-1"}))

	client := NewClient(BaseURL(server.URL, "v7"), WithRequestIDFunc(func() string { return "corr-1" })).WithSession(bearerClient("tok"))
	prepared, err := client.PrepareSignIn(context.Background(), oauth.SignInRequest{
		AuthenticationServiceKind: oauth.AuthenticationServiceKind,
		ClientID:                  "client",
		ClientSecret:              "secret",
		TenantID:                  "tenant",
		RedirectURL:               "http://localhost:8080/callback",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://login.example.com", prepared.SignInURL)
	assert.Equal(t, "req-1", prepared.RequestID)

	req := svc.last()
	assert.Equal(t, "Bearer tok", req.Auth)
	assert.Equal(t, "corr-1", req.RequestID)
	assert.JSONEq(t, `{
		"authenticationServiceKind": "Microsoft365",
		"clientId": "client",
		"clientSecret": "secret",
		"tenantId": "tenant",
		"redirectUrl": "http://localhost:8080/callback"
	}`, req.Body)
}

func TestClient_CompleteSignIn(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodPost, "/v7/AuditEmailSettings/CompleteOAuthSignIn", jsonHandler(http.StatusOK, map[string]interface{}{
		"requestId": "req-1",
		"userId":    "user-1",
	}))

	completed, err := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok")).
		CompleteSignIn(context.Background(), oauth.AuthCode{Code: "ABC", State: "XYZ"})
	require.NoError(t, err)
	assert.Equal(t, &oauth.CompletedSignIn{RequestID: "req-1", UserID: "user-1"}, completed)

	req := svc.last()
	assert.Equal(t, "Bearer tok", req.Auth)
	assert.JSONEq(t, `{"code":"ABC","state":"XYZ"}`, req.Body)
}

func TestClient_SignInNeedsSession(t *testing.T) {
	svc, server := newFakeService(t)
	client := NewClient(BaseURL(server.URL, ""))

	_, err := client.PrepareSignIn(context.Background(), oauth.SignInRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an authenticated session")

	_, err = client.CompleteSignIn(context.Background(), oauth.AuthCode{Code: "A", State: "B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an authenticated session")

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.requests)
}

func TestClient_TokenURL(t *testing.T) {
	assert.Equal(t, "https://vb365:4443/v7/Token", NewClient(BaseURL("https://vb365:4443", "")).TokenURL())
}

func TestClient_CompleteSignInRejected(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodPost, "/v7/AuditEmailSettings/CompleteOAuthSignIn", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"state mismatch"}`, http.StatusBadRequest)
	})

	_, err := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok")).
		CompleteSignIn(context.Background(), oauth.AuthCode{Code: "A", State: "B"})

	var exchangeErr *oauth.ExchangeError
	require.True(t, errors.As(err, &exchangeErr), "expected *oauth.ExchangeError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Equal(t, `{"message":"state mismatch"}`, exchangeErr.Body)
}

func TestClient_AuthenticatedCallsNeedSession(t *testing.T) {
	_, server := newFakeService(t)

	_, err := NewClient(BaseURL(server.URL, "")).ListOrganizations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an authenticated session")
}

func TestClient_ListOrganizations(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodGet, "/v7/Organizations", jsonHandler(http.StatusOK, []Organization{
		{ID: "org-1", Name: "contoso.onmicrosoft.com"},
		{ID: "org-2", Name: "fabrikam.onmicrosoft.com"},
	}))

	client := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok"))
	orgs, err := client.ListOrganizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "fabrikam.onmicrosoft.com", orgs[1].Name)
	assert.Equal(t, "Bearer tok", svc.last().Auth)
	assert.NotEmpty(t, svc.last().RequestID)
}

func TestClient_AuditItems(t *testing.T) {
	svc, server := newFakeService(t)
	items := []AuditItem{
		{ID: "item-1", Type: AuditItemTypeUser, User: &User{ID: "a:b:c:u1", DisplayName: "Alice"}},
		{ID: "item-2", Type: AuditItemTypeGroup, Group: &Group{ID: "a:b:c:g1", DisplayName: "Admins"}},
	}
	svc.on(http.MethodGet, "/v7/Organizations/org-1/AuditItems", jsonHandler(http.StatusOK, items))
	svc.on(http.MethodPost, "/v7/Organizations/org-1/AuditItems", jsonHandler(http.StatusOK, nil))
	svc.on(http.MethodPost, "/v7/Organizations/org-1/AuditItems/remove", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok"))
	ctx := context.Background()

	got, err := client.ListAuditItems(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, items, got)

	require.NoError(t, client.AddAuditItems(ctx, "org-1", []AuditItem{AuditItemFromUser(User{ID: "u2", DisplayName: "Bob", Type: "User"})}))
	assert.JSONEq(t, `[{"type":"user","user":{"id":"u2","displayName":"Bob","type":"User"}}]`, svc.last().Body)

	require.NoError(t, client.RemoveAuditItems(ctx, "org-1", []string{"item-1"}))
	assert.JSONEq(t, `{"itemIds":["item-1"]}`, svc.last().Body)

	assert.Error(t, client.AddAuditItems(ctx, "org-1", nil))
	assert.Error(t, client.RemoveAuditItems(ctx, "org-1", nil))
}

func TestClient_Directory(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodGet, "/v7/Organizations/org-1/Users", jsonHandler(http.StatusOK, UserPage{
		Limit: 2, Results: []User{{ID: "u1", DisplayName: "Alice", Type: "User"}},
	}))
	svc.on(http.MethodGet, "/v7/Organizations/org-1/Groups", jsonHandler(http.StatusOK, GroupPage{
		Results: []Group{{ID: "g1", DisplayName: "Admins", Type: "Security"}},
	}))

	client := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok"))

	users, err := client.ListUsers(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, users.Results, 1)
	assert.Equal(t, "Alice", users.Results[0].DisplayName)

	groups, err := client.ListGroups(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, groups.Results, 1)
	assert.Equal(t, "Security", groups.Results[0].Type)
}

func TestClient_Notifications(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodPut, "/v7/AuditEmailSettings", jsonHandler(http.StatusOK, nil))
	svc.on(http.MethodPost, "/v7/AuditEmailSettings/SendTest", jsonHandler(http.StatusOK, nil))

	client := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok"))

	data := NewNotificationData("audit@contoso.com", "ops@contoso.com", "Audit", "user-1", "req-1")
	require.NoError(t, client.UpdateNotificationSettings(context.Background(), data))
	assert.JSONEq(t, `{
		"enableNotification": true,
		"authenticationType": "Microsoft365",
		"useAuthentication": true,
		"username": "user-1",
		"useSSL": true,
		"from": "audit@contoso.com",
		"to": "ops@contoso.com",
		"subject": "Audit",
		"userId": "user-1",
		"requestId": "req-1"
	}`, svc.last().Body)

	require.NoError(t, client.SendTestEmail(context.Background()))
	assert.Empty(t, svc.last().Body)
	assert.Equal(t, int64(0), svc.last().Length)
}

func TestClient_APIErrorKeepsBody(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodPost, "/v7/AuditEmailSettings/SendTest", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "SMTP not configured", http.StatusInternalServerError)
	})

	err := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok")).SendTestEmail(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "SMTP not configured", apiErr.Body)
	assert.Contains(t, err.Error(), "SMTP not configured")
}

func TestClient_Unauthorized(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodGet, "/v7/Organizations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("stale")).ListOrganizations(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	_, err := NewClient(BaseURL(addr, "")).WithSession(bearerClient("tok")).PrepareSignIn(context.Background(), oauth.SignInRequest{})

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr), "expected *ConnectionError, got %T", err)
	assert.Equal(t, ConnectionErrorNetwork, connErr.Type)
}

func TestClient_ContextCanceled(t *testing.T) {
	svc, server := newFakeService(t)
	svc.on(http.MethodGet, "/v7/Organizations", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(BaseURL(server.URL, "")).WithSession(bearerClient("tok")).ListOrganizations(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(0, true)
	assert.Equal(t, DefaultHTTPTimeout, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	strict := NewHTTPClient(5*time.Second, false).Transport.(*http.Transport)
	if strict.TLSClientConfig != nil {
		assert.False(t, strict.TLSClientConfig.InsecureSkipVerify)
	}
}
