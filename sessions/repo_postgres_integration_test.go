//go:build integration

package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/identity"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/testutil/containers"
	"github.com/jrsteele09/wallet-oidc-bridge/sessions"
)

func TestPostgresRepo(t *testing.T) {
	ctx := context.Background()
	pool := containers.NewPostgres(t)

	registry, err := accounts.NewRegistry(accounts.NewPostgresRepo(pool))
	require.NoError(t, err)
	repo := sessions.NewPostgresRepo(pool)

	now := time.Now().UTC()
	clock := func() time.Time { return now }
	manager, err := sessions.NewManager(repo, registry, identity.NewFormatVerifier(), sessions.WithNowTime(clock))
	require.NoError(t, err)

	session, account, err := manager.Login(ctx, identity.Assertion{PublicKey: testPublicKey, DisplayNameHint: "alice"})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, stored.AccountID)
	require.WithinDuration(t, session.ExpiresAt, stored.ExpiresAt, time.Microsecond)

	resolved, err := manager.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, resolved.ID)

	require.True(t, errors.Is(repo.Create(ctx, stored), errors.ErrConflict))

	// expiry is the manager's call
	now = now.Add(sessions.DefaultTTL)
	resolved, err = manager.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Nil(t, resolved)

	require.NoError(t, manager.Destroy(ctx, session.Token))
	_, err = repo.Get(ctx, session.Token)
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.NoError(t, repo.Delete(ctx, session.Token), "deleting twice is a no-op")
}
