package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ledgerline/invoice-api/internal/domain/auth"
	"github.com/ledgerline/invoice-api/internal/ports"
)

func TestNewProvider_RequiresCredentials(t *testing.T) {
	_, err := NewProvider(Config{Password: "pw"})
	require.Error(t, err)

	_, err = NewProvider(Config{Username: "dev"})
	require.Error(t, err)
}

func TestProvider_Login(t *testing.T) {
	prov, err := NewProvider(Config{
		Username: "dev-user",
		Password: "dev-password",
		Email:    "dev@example.com",
		Roles:    []string{"Accounts User"},
	})
	require.NoError(t, err)

	assert.NoError(t, prov.Login(context.Background(), "dev-user", "dev-password"))

	err = prov.Login(context.Background(), "dev-user", "wrong")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	err = prov.Login(context.Background(), "other-user", "dev-password")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestProvider_GetProfile(t *testing.T) {
	prov, err := NewProvider(Config{
		Username: "dev-user",
		Password: "dev-password",
		Email:    "dev@example.com",
		Roles:    []string{"Accounts User", "Accounts Manager"},
	})
	require.NoError(t, err)

	profile, err := prov.GetProfile(context.Background(), "dev-user")

	require.NoError(t, err)
	assert.Equal(t, "dev-user", profile.Username)
	assert.Equal(t, "dev@example.com", profile.Email)
	assert.Equal(t, []domainauth.Role{"Accounts User", "Accounts Manager"}, profile.Roles)
}

func TestProvider_Logout(t *testing.T) {
	prov, err := NewProvider(Config{Username: "dev-user", Password: "dev-password"})
	require.NoError(t, err)

	assert.NoError(t, prov.Logout(context.Background()))
}
