//go:build integration

package admins_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/admins"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/testutil/containers"
)

func TestPostgresRepo(t *testing.T) {
	ctx := context.Background()
	repo := admins.NewPostgresRepo(containers.NewPostgres(t))
	service, err := admins.NewService(repo, testSecret)
	require.NoError(t, err)

	generated, err := service.Bootstrap(ctx, testUsername, "")
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	// a second replica starting later finds the admin already there
	again, err := service.Bootstrap(ctx, testUsername, "")
	require.NoError(t, err)
	require.Empty(t, again)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	admin, err := repo.GetByUsername(ctx, testUsername)
	require.NoError(t, err)
	require.True(t, admin.PasswordChangeRequired)
	require.True(t, errors.Is(repo.Create(ctx, admin), errors.ErrConflict))

	updated, err := service.ChangePassword(ctx, testUsername, generated, strongPass)
	require.NoError(t, err)
	require.False(t, updated.PasswordChangeRequired)

	stored, err := repo.GetByUsername(ctx, testUsername)
	require.NoError(t, err)
	require.False(t, stored.PasswordChangeRequired)
	require.True(t, stored.CheckPassword(strongPass))

	_, err = repo.GetByUsername(ctx, "nobody")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
