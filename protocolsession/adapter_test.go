package protocolsession_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/protocolsession"
)

type adapterFactory func(options ...protocolsession.Option) protocolsession.Adapter

type testFixture struct {
	adapter protocolsession.Adapter
	mu      sync.Mutex
	now     time.Time
}

func setupTestFixture(t *testing.T, factory adapterFactory) *testFixture {
	t.Helper()
	f := &testFixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.adapter = factory(protocolsession.WithNowTime(f.clock))
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

func (f *testFixture) record(uid, grantID, payload string) *protocolsession.Record {
	return &protocolsession.Record{
		Kind:      protocolsession.KindInteraction,
		UID:       uid,
		GrantID:   grantID,
		Payload:   []byte(payload),
		ExpiresAt: f.clock().Add(10 * time.Minute),
	}
}

func runAdapterContract(t *testing.T, factory adapterFactory) {
	t.Run("upsert and find", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "g-1", `{"userCode":"ABCD1234"}`)))

		found, err := f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, "g-1", found.GrantID)
		require.JSONEq(t, `{"userCode":"ABCD1234"}`, string(found.Payload))
		require.False(t, found.Consumed())

		other, err := f.adapter.Find(ctx, protocolsession.KindGrant, "uid-1")
		require.NoError(t, err)
		require.Nil(t, other)

		updated := f.record("uid-1", "g-2", `{"userCode":"EFGH5678"}`)
		require.NoError(t, f.adapter.Upsert(ctx, updated))
		found, err = f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-1")
		require.NoError(t, err)
		require.Equal(t, "g-2", found.GrantID)
	})

	t.Run("upsert validation", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		err := f.adapter.Upsert(context.Background(), &protocolsession.Record{Kind: protocolsession.KindGrant})
		require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	})

	t.Run("expired is absent", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "", `{"userCode":"ABCD1234"}`)))
		f.advance(10 * time.Minute)

		found, err := f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-1")
		require.NoError(t, err)
		require.Nil(t, found)

		found, err = f.adapter.FindByUserCode(ctx, protocolsession.KindInteraction, "ABCD1234")
		require.NoError(t, err)
		require.Nil(t, found)

		err = f.adapter.Consume(ctx, protocolsession.KindInteraction, "uid-1")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("find by user code", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "", `{"userCode":"ABCD1234"}`)))
		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-2", "", `{"userCode":"WXYZ9876"}`)))

		found, err := f.adapter.FindByUserCode(ctx, protocolsession.KindInteraction, "WXYZ9876")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, "uid-2", found.UID)

		found, err = f.adapter.FindByUserCode(ctx, protocolsession.KindInteraction, "NOPE0000")
		require.NoError(t, err)
		require.Nil(t, found)

		found, err = f.adapter.FindByUserCode(ctx, protocolsession.KindInteraction, "")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("consume", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "", `{}`)))
		require.NoError(t, f.adapter.Consume(ctx, protocolsession.KindInteraction, "uid-1"))

		found, err := f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-1")
		require.NoError(t, err)
		require.True(t, found.Consumed())
		require.True(t, found.ConsumedAt.Equal(f.clock()))

		err = f.adapter.Consume(ctx, protocolsession.KindInteraction, "uid-1")
		require.True(t, errors.Is(err, errors.ErrNotFound), "second consume looks like a missing record")

		err = f.adapter.Consume(ctx, protocolsession.KindInteraction, "missing")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("concurrent consume succeeds once", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "", `{}`)))

		var wins atomic.Int32
		var g errgroup.Group
		for range 8 {
			g.Go(func() error {
				err := f.adapter.Consume(ctx, protocolsession.KindInteraction, "uid-1")
				if err == nil {
					wins.Add(1)
					return nil
				}
				if errors.Is(err, errors.ErrNotFound) {
					return nil
				}
				return err
			})
		}
		require.NoError(t, g.Wait())
		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("destroy is idempotent", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "", `{}`)))
		require.NoError(t, f.adapter.Destroy(ctx, protocolsession.KindInteraction, "uid-1"))
		require.NoError(t, f.adapter.Destroy(ctx, protocolsession.KindInteraction, "uid-1"))

		found, err := f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-1")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("revoke by grant removes the whole group", func(t *testing.T) {
		f := setupTestFixture(t, factory)
		ctx := context.Background()

		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-1", "g-1", `{}`)))
		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-2", "g-1", `{}`)))
		grant := f.record("uid-3", "g-1", `{}`)
		grant.Kind = protocolsession.KindGrant
		require.NoError(t, f.adapter.Upsert(ctx, grant))
		require.NoError(t, f.adapter.Upsert(ctx, f.record("uid-4", "g-2", `{}`)))

		require.NoError(t, f.adapter.RevokeByGrantID(ctx, "g-1"))
		require.NoError(t, f.adapter.RevokeByGrantID(ctx, ""))

		for _, uid := range []string{"uid-1", "uid-2"} {
			found, err := f.adapter.Find(ctx, protocolsession.KindInteraction, uid)
			require.NoError(t, err)
			require.Nil(t, found, uid)
		}
		found, err := f.adapter.Find(ctx, protocolsession.KindGrant, "uid-3")
		require.NoError(t, err)
		require.Nil(t, found)

		kept, err := f.adapter.Find(ctx, protocolsession.KindInteraction, "uid-4")
		require.NoError(t, err)
		require.NotNil(t, kept)
	})
}

func TestMemoryAdapter(t *testing.T) {
	runAdapterContract(t, func(options ...protocolsession.Option) protocolsession.Adapter {
		return protocolsession.NewMemoryAdapter(options...)
	})
}

func TestMemoryAdapter_ReturnsCopies(t *testing.T) {
	adapter := protocolsession.NewMemoryAdapter()
	ctx := context.Background()

	record := &protocolsession.Record{
		Kind: protocolsession.KindGrant, UID: "uid-1", Payload: []byte("abc"),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, adapter.Upsert(ctx, record))
	record.Payload[0] = 'z'

	found, err := adapter.Find(ctx, protocolsession.KindGrant, "uid-1")
	require.NoError(t, err)
	require.Equal(t, "abc", string(found.Payload))
}
