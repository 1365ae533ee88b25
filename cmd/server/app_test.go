package main

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/identity"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/config"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

func testConfig(values map[string]any) config.Config {
	v := viper.New()
	for key, value := range values {
		v.Set(key, value)
	}
	return config.New(v)
}

func TestOpenStorage_Drivers(t *testing.T) {
	ctx := context.Background()

	st, err := openStorage(ctx, testConfig(nil))
	require.NoError(t, err)
	require.NotNil(t, st.accounts)
	require.NotNil(t, st.credentials)
	require.Empty(t, st.options)
	st.Close()

	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "unknown storage", values: map[string]any{config.StorageDriverKey: "sqlite"}},
		{name: "unknown cache", values: map[string]any{config.CacheDriverKey: "memcached"}},
		{name: "postgres without url", values: map[string]any{config.StorageDriverKey: config.DriverPostgres}},
		{name: "redis without url", values: map[string]any{config.CacheDriverKey: config.DriverRedis}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := openStorage(ctx, testConfig(tc.values))
			require.Error(t, err)
		})
	}
}

func TestNewVerifier_StrictMode(t *testing.T) {
	ctx := context.Background()
	// base58 but no valid checksum
	loose := identity.Assertion{PublicKey: "BC1YLadminKey"}

	require.NoError(t, newVerifier(testConfig(nil)).Verify(ctx, loose))

	err := newVerifier(testConfig(map[string]any{config.StrictKeyValidationKey: true})).Verify(ctx, loose)
	require.True(t, errors.Is(err, errors.ErrInvalidIdentity))
}

func TestBuildServices_BootstrapsAdmin(t *testing.T) {
	ctx := context.Background()
	c := testConfig(map[string]any{
		config.IssuerKey:        "https://bridge.example.com",
		config.AdminPasswordKey: "Configured-Pass-123",
	})
	st, err := openStorage(ctx, c)
	require.NoError(t, err)
	defer st.Close()

	services, err := buildServices(ctx, c, st)
	require.NoError(t, err)
	require.Equal(t, "https://bridge.example.com", services.Issuer.Issuer())

	admin, err := services.Admins.Authenticate(ctx, "admin", "Configured-Pass-123")
	require.NoError(t, err)
	require.True(t, admin.PasswordChangeRequired)
}

func TestBuildServices_RequiresClientSecret(t *testing.T) {
	ctx := context.Background()
	c := testConfig(map[string]any{config.ClientSecretKey: ""})
	st, err := openStorage(ctx, c)
	require.NoError(t, err)
	defer st.Close()

	_, err = buildServices(ctx, c, st)
	require.Error(t, err)
}
