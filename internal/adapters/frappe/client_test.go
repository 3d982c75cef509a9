package frappe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestClient_Login_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/method/login", r.URL.Path)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice@example.com", r.PostFormValue("usr"))
		assert.Equal(t, "secret", r.PostFormValue("pwd"))

		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, client.Login(context.Background(), "alice@example.com", "secret"))
}

func TestClient_Login_RejectedCredentials(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		err := client.Login(context.Background(), "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ports.ErrInvalidCredentials, "status %d", status)
	}
}

func TestClient_Login_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	err := client.Login(context.Background(), "alice@example.com", "secret")
	assert.ErrorIs(t, err, ports.ErrUpstream)
	assert.NotErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestClient_Login_UpstreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = client.Login(context.Background(), "alice@example.com", "secret")
	assert.ErrorIs(t, err, ports.ErrUpstreamUnavailable)
}

func TestClient_GetProfile_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resource/User/alice@example.com", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"name": "alice@example.com",
				"email": "alice@example.com",
				"roles": [
					{"role": "Accounts User"},
					{"role": "Accounts Manager"},
					{"role": ""}
				]
			}
		}`))
	})

	profile, err := client.GetProfile(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Username)
	assert.Equal(t, []domainauth.Role{"Accounts User", "Accounts Manager"}, profile.Roles)
}

func TestClient_GetProfile_FallsBackToRequestedUsername(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"email": "alice@example.com"}}`))
	})

	profile, err := client.GetProfile(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Username)
	assert.Empty(t, profile.Roles)
}

func TestClient_GetProfile_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.GetProfile(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ports.ErrUpstream)
}

func TestClient_GetProfile_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.GetProfile(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ports.ErrUpstream)
}

func TestClient_Logout(t *testing.T) {
	var called bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/api/method/logout", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, client.Logout(context.Background()))
	assert.True(t, called)
}

func TestClient_Logout_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	assert.ErrorIs(t, client.Logout(context.Background()), ports.ErrUpstream)
}
