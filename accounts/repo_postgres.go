package accounts

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/database"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

const accountColumns = `id, public_key, display_name, email, status, created_at,
	decided_at, decided_by, approved_at, approved_by`

// PostgresRepo stores accounts in the accounts table
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := database.Get(ctx, r.pool, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if pgxscan.NotFound(err) {
		return nil, errors.Wrapf(bridgeerrors.ErrNotFound, "account %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[accounts.PostgresRepo.GetByID]")
	}
	return &account, nil
}

func (r *PostgresRepo) GetByPublicKey(ctx context.Context, publicKey string) (*Account, error) {
	var account Account
	err := database.Get(ctx, r.pool, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE public_key = $1`, publicKey)
	if pgxscan.NotFound(err) {
		return nil, errors.Wrapf(bridgeerrors.ErrNotFound, "account for key %s", publicKey)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[accounts.PostgresRepo.GetByPublicKey]")
	}
	return &account, nil
}

func (r *PostgresRepo) Create(ctx context.Context, account *Account) error {
	tag, err := database.Exec(ctx, r.pool, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING`,
		account.ID, account.PublicKey, account.DisplayName, account.Email, account.Status,
		account.CreatedAt, account.DecidedAt, account.DecidedBy, account.ApprovedAt, account.ApprovedBy)
	if err != nil {
		return errors.Wrap(err, "[accounts.PostgresRepo.Create]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(bridgeerrors.ErrConflict, "account for key %s", account.PublicKey)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, account *Account) error {
	tag, err := database.Exec(ctx, r.pool, `
		UPDATE accounts SET display_name = $2, email = $3, status = $4,
			decided_at = $5, decided_by = $6, approved_at = $7, approved_by = $8
		WHERE id = $1`,
		account.ID, account.DisplayName, account.Email, account.Status,
		account.DecidedAt, account.DecidedBy, account.ApprovedAt, account.ApprovedBy)
	if err != nil {
		return errors.Wrap(err, "[accounts.PostgresRepo.Update]")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(bridgeerrors.ErrNotFound, "account %s", account.ID)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, status Status) ([]*Account, error) {
	var list []*Account
	var err error
	if status == "" {
		err = database.Select(ctx, r.pool, &list,
			`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	} else {
		err = database.Select(ctx, r.pool, &list,
			`SELECT `+accountColumns+` FROM accounts WHERE status = $1 ORDER BY created_at DESC, id DESC`, status)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[accounts.PostgresRepo.List]")
	}
	return list, nil
}
