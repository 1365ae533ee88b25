package admins

import (
	"context"
	"sync"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.RWMutex
	admins map[string]*AdminUser // keyed by username
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{admins: make(map[string]*AdminUser)}
}

func (r *InMemoryRepo) GetByUsername(_ context.Context, username string) (*AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[username]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "admin %s", username)
	}
	return admin.clone(), nil
}

func (r *InMemoryRepo) Create(_ context.Context, admin *AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[admin.Username]; exists {
		return errors.Wrapf(errors.ErrConflict, "admin %s", admin.Username)
	}
	r.admins[admin.Username] = admin.clone()
	return nil
}

func (r *InMemoryRepo) Update(_ context.Context, admin *AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[admin.Username]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "admin %s", admin.Username)
	}
	r.admins[admin.Username] = admin.clone()
	return nil
}

func (r *InMemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins), nil
}
