package admins

import "context"

// Repo persists admin users. Lookups of unknown usernames return ErrNotFound.
type Repo interface {
	GetByUsername(ctx context.Context, username string) (*AdminUser, error)
	Create(ctx context.Context, admin *AdminUser) error
	Update(ctx context.Context, admin *AdminUser) error
	Count(ctx context.Context) (int, error)
}
