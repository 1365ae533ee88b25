package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id           uuid PRIMARY KEY,
			public_key   text NOT NULL UNIQUE,
			display_name text NOT NULL DEFAULT '',
			email        text NOT NULL DEFAULT '',
			status       text NOT NULL DEFAULT 'pending',
			created_at   timestamptz NOT NULL DEFAULT now(),
			decided_at   timestamptz,
			decided_by   text NOT NULL DEFAULT '',
			approved_at  timestamptz,
			approved_by  text NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS accounts_status_created_idx ON accounts (status, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token      text PRIMARY KEY,
			account_id uuid NOT NULL REFERENCES accounts (id),
			created_at timestamptz NOT NULL,
			expires_at timestamptz NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_account_idx ON sessions (account_id)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id                       uuid PRIMARY KEY,
			username                 text NOT NULL UNIQUE,
			password_hash            text NOT NULL,
			password_change_required boolean NOT NULL DEFAULT true,
			created_at               timestamptz NOT NULL DEFAULT now(),
			updated_at               timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS protocol_records (
			kind        text NOT NULL,
			uid         text NOT NULL,
			grant_id    text NOT NULL DEFAULT '',
			payload     bytea NOT NULL,
			expires_at  timestamptz NOT NULL,
			consumed_at timestamptz,
			PRIMARY KEY (kind, uid)
		)`,
		`CREATE INDEX IF NOT EXISTS protocol_records_grant_idx ON protocol_records (grant_id) WHERE grant_id <> ''`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"protocol_records", "admin_users", "sessions", "accounts"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}
