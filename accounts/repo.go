package accounts

import "context"

// Repo persists accounts. Each call is atomic on its own; callers get no
// multi-call transactions.
type Repo interface {
	// GetByID returns errors.ErrNotFound for unknown ids
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByPublicKey returns errors.ErrNotFound for unknown keys
	GetByPublicKey(ctx context.Context, publicKey string) (*Account, error)

	// Create stores a new account; a duplicate public key returns errors.ErrConflict
	Create(ctx context.Context, account *Account) error

	// Update overwrites an existing account; unknown ids return errors.ErrNotFound
	Update(ctx context.Context, account *Account) error

	// List returns accounts newest first, optionally filtered by status
	List(ctx context.Context, status Status) ([]*Account, error)
}
