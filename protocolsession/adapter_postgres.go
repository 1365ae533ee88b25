package protocolsession

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/database"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

const recordColumns = `kind, uid, grant_id, payload, expires_at, consumed_at`

// PostgresAdapter stores records in the protocol_records table. Expiry is
// compared in SQL against the caller's clock.
type PostgresAdapter struct {
	settings
	pool *pgxpool.Pool
}

var _ Adapter = (*PostgresAdapter)(nil)

func NewPostgresAdapter(pool *pgxpool.Pool, options ...Option) *PostgresAdapter {
	return &PostgresAdapter{settings: newSettings(options), pool: pool}
}

func (a *PostgresAdapter) Upsert(ctx context.Context, record *Record) error {
	if err := validate(record); err != nil {
		return err
	}
	_, err := database.Exec(ctx, a.pool, `
		INSERT INTO protocol_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, uid) DO UPDATE SET
			grant_id = EXCLUDED.grant_id,
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at,
			consumed_at = EXCLUDED.consumed_at`,
		record.Kind, record.UID, record.GrantID, record.Payload, record.ExpiresAt, record.ConsumedAt)
	if err != nil {
		return errors.Wrap(err, "[PostgresAdapter.Upsert]")
	}
	return nil
}

func (a *PostgresAdapter) Find(ctx context.Context, kind Kind, uid string) (*Record, error) {
	return a.getOne(ctx, `SELECT `+recordColumns+` FROM protocol_records
		WHERE kind = $1 AND uid = $2 AND expires_at > $3`, kind, uid, a.nowTime())
}

func (a *PostgresAdapter) FindByUserCode(ctx context.Context, kind Kind, userCode string) (*Record, error) {
	if userCode == "" {
		return nil, nil
	}
	return a.getOne(ctx, `SELECT `+recordColumns+` FROM protocol_records
		WHERE kind = $1 AND expires_at > $2 AND position(convert_to($3, 'UTF8') in payload) > 0
		LIMIT 1`, kind, a.nowTime(), userCode)
}

func (a *PostgresAdapter) Consume(ctx context.Context, kind Kind, uid string) error {
	now := a.nowTime().UTC()
	tag, err := database.Exec(ctx, a.pool, `
		UPDATE protocol_records SET consumed_at = $3
		WHERE kind = $1 AND uid = $2 AND expires_at > $3 AND consumed_at IS NULL`, kind, uid, now)
	if err != nil {
		return errors.Wrap(err, "[PostgresAdapter.Consume]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(bridgeerrors.ErrNotFound, "%s %s", kind, uid)
	}
	return nil
}

func (a *PostgresAdapter) Destroy(ctx context.Context, kind Kind, uid string) error {
	if _, err := database.Exec(ctx, a.pool,
		`DELETE FROM protocol_records WHERE kind = $1 AND uid = $2`, kind, uid); err != nil {
		return errors.Wrap(err, "[PostgresAdapter.Destroy]")
	}
	return nil
}

func (a *PostgresAdapter) RevokeByGrantID(ctx context.Context, grantID string) error {
	if grantID == "" {
		return nil
	}
	if _, err := database.Exec(ctx, a.pool,
		`DELETE FROM protocol_records WHERE grant_id = $1`, grantID); err != nil {
		return errors.Wrap(err, "[PostgresAdapter.RevokeByGrantID]")
	}
	return nil
}

func (a *PostgresAdapter) getOne(ctx context.Context, query string, args ...any) (*Record, error) {
	var record Record
	err := database.Get(ctx, a.pool, &record, query, args...)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresAdapter]")
	}
	return &record, nil
}
