package admins

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/database"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// PostgresRepo stores admin users in the admin_users table
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

const adminColumns = `id, username, password_hash, password_change_required, created_at, updated_at`

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (*AdminUser, error) {
	var admin AdminUser
	err := database.Get(ctx, r.pool, &admin, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username)
	if pgxscan.NotFound(err) {
		return nil, errors.Wrapf(bridgeerrors.ErrNotFound, "admin %s", username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[admins.PostgresRepo.GetByUsername]")
	}
	return &admin, nil
}

func (r *PostgresRepo) Create(ctx context.Context, admin *AdminUser) error {
	tag, err := database.Exec(ctx, r.pool, `
		INSERT INTO admin_users (`+adminColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		admin.ID, admin.Username, admin.PasswordHash, admin.PasswordChangeRequired, admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "[admins.PostgresRepo.Create]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(bridgeerrors.ErrConflict, "admin %s", admin.Username)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, admin *AdminUser) error {
	tag, err := database.Exec(ctx, r.pool, `
		UPDATE admin_users
		SET password_hash = $2, password_change_required = $3, updated_at = $4
		WHERE username = $1`,
		admin.Username, admin.PasswordHash, admin.PasswordChangeRequired, admin.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "[admins.PostgresRepo.Update]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(bridgeerrors.ErrNotFound, "admin %s", admin.Username)
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := database.Get(ctx, r.pool, &count, `SELECT count(*) FROM admin_users`); err != nil {
		return 0, errors.Wrap(err, "[admins.PostgresRepo.Count]")
	}
	return count, nil
}
