package accounts_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

const (
	testPublicKey  = "BC1YLgMy2bPZGtSM6PA89sGyggNUyRWRrP6S4WFJ5U6YDFxH4moWMyi"
	testPublicKey2 = "BC1YLhWXeLVmBmxhKBLwuNVhRiExFnWJzQnM1PJcwzqw9LhD2RyUwBu"
	testAdmin      = "admin"
)

type testFixture struct {
	repo     *accounts.InMemoryRepo
	registry *accounts.Registry
	now      time.Time
	mu       sync.Mutex
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		repo: accounts.NewInMemoryRepo(),
		now:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	registry, err := accounts.NewRegistry(f.repo, accounts.WithNowTime(f.clock))
	require.NoError(t, err)
	f.registry = registry
	return f
}

func (f *testFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *testFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestNewRegistry_RequiresRepo(t *testing.T) {
	_, err := accounts.NewRegistry(nil)
	require.Error(t, err)
}

func TestGetOrCreate_CreatesPendingAccount(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, account.ID)
	require.Equal(t, accounts.StatusPending, account.Status)
	require.Equal(t, "alice", account.DisplayName)
	require.Equal(t, f.now, account.CreatedAt)
	require.False(t, account.IsApproved())

	again, err := f.registry.GetOrCreate(ctx, testPublicKey, "someone-else")
	require.NoError(t, err)
	require.Equal(t, account.ID, again.ID)
	require.Equal(t, "alice", again.DisplayName)
}

func TestGetOrCreate_EmptyKey(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.registry.GetOrCreate(context.Background(), "  ", "")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestGetOrCreate_ConcurrentFirstLogin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	ids := make([]string, 16)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
			if err != nil {
				return err
			}
			ids[i] = account.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}

	list, err := f.registry.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDecide_Approve(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)

	f.advance(time.Hour)
	approved, err := f.registry.Decide(ctx, account.ID, accounts.StatusApproved, testAdmin)
	require.NoError(t, err)
	require.True(t, approved.IsApproved())
	require.Equal(t, testAdmin, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	require.Equal(t, f.now, *approved.ApprovedAt)

	stored, err := f.registry.Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, accounts.StatusApproved, stored.Status)
}

func TestDecide_RejectDoesNotSetApproval(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)

	rejected, err := f.registry.Decide(ctx, account.ID, accounts.StatusRejected, testAdmin)
	require.NoError(t, err)
	require.Equal(t, accounts.StatusRejected, rejected.Status)
	require.Nil(t, rejected.ApprovedAt)
	require.Empty(t, rejected.ApprovedBy)
	require.Equal(t, testAdmin, rejected.DecidedBy)
}

func TestDecide_LastWriteWins(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)

	_, err = f.registry.Decide(ctx, account.ID, accounts.StatusApproved, "first-admin")
	require.NoError(t, err)
	flipped, err := f.registry.Decide(ctx, account.ID, accounts.StatusRejected, "second-admin")
	require.NoError(t, err)
	require.Equal(t, accounts.StatusRejected, flipped.Status)
	require.Equal(t, "second-admin", flipped.DecidedBy)
	require.Nil(t, flipped.ApprovedAt)

	again, err := f.registry.Decide(ctx, account.ID, accounts.StatusRejected, "second-admin")
	require.NoError(t, err)
	require.Equal(t, accounts.StatusRejected, again.Status)
}

func TestDecide_Errors(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.registry.Decide(ctx, "missing", accounts.StatusApproved, testAdmin)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)

	_, err = f.registry.Decide(ctx, account.ID, accounts.StatusPending, testAdmin)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = f.registry.Decide(ctx, account.ID, accounts.StatusApproved, "")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestList_NewestFirstAndFiltered(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	older, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)
	f.advance(time.Minute)
	newer, err := f.registry.GetOrCreate(ctx, testPublicKey2, "")
	require.NoError(t, err)

	list, err := f.registry.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)
	require.Equal(t, older.ID, list[1].ID)

	_, err = f.registry.Decide(ctx, older.ID, accounts.StatusApproved, testAdmin)
	require.NoError(t, err)

	pending, err := f.registry.List(ctx, accounts.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, newer.ID, pending[0].ID)

	_, err = f.registry.List(ctx, "bogus")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestClaims(t *testing.T) {
	account := &accounts.Account{ID: "acc-1", PublicKey: testPublicKey}
	claims := account.Claims()
	require.Equal(t, "acc-1", claims.Subject())
	require.Equal(t, "BC1YLgMy", claims["name"])
	require.Equal(t, "BC1YLgMy", claims["preferred_username"])
	require.Equal(t, false, claims["email_verified"])
	require.Equal(t, testPublicKey, claims["wallet_public_key"])

	account.DisplayName = "alice"
	account.Email = "alice@example.com"
	claims = account.Claims()
	require.Equal(t, "alice", claims["name"])
	require.Equal(t, true, claims["email_verified"])

	clone := claims.Clone()
	clone["name"] = "changed"
	require.Equal(t, "alice", claims["name"])
}

func TestInMemoryRepo_ReturnsCopies(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	account, err := f.registry.GetOrCreate(ctx, testPublicKey, "")
	require.NoError(t, err)

	account.Status = accounts.StatusApproved
	stored, err := f.repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, accounts.StatusPending, stored.Status)

	err = f.repo.Update(ctx, &accounts.Account{ID: "missing"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
