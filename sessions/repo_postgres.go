package sessions

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/database"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// PostgresRepo stores sessions in the sessions table
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (r *PostgresRepo) Create(ctx context.Context, session *Session) error {
	tag, err := database.Exec(ctx, r.pool, `
		INSERT INTO sessions (token, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		session.Token, session.AccountID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return errors.Wrap(err, "[sessions.PostgresRepo.Create]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(bridgeerrors.ErrConflict, "[sessions.PostgresRepo.Create] token already issued")
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, token string) (*Session, error) {
	var session Session
	err := database.Get(ctx, r.pool, &session,
		`SELECT token, account_id, created_at, expires_at FROM sessions WHERE token = $1`, token)
	if pgxscan.NotFound(err) {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "session")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[sessions.PostgresRepo.Get]")
	}
	return &session, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, token string) error {
	if _, err := database.Exec(ctx, r.pool, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return errors.Wrap(err, "[sessions.PostgresRepo.Delete]")
	}
	return nil
}
