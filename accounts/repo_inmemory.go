package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Account
	byKey map[string]string // publicKey -> id
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		byID:  make(map[string]*Account),
		byKey: make(map[string]string),
	}
}

func (r *InMemoryRepo) GetByID(_ context.Context, id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "account %s", id)
	}
	return account.clone(), nil
}

func (r *InMemoryRepo) GetByPublicKey(_ context.Context, publicKey string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[publicKey]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "account for key %s", publicKey)
	}
	return r.byID[id].clone(), nil
}

func (r *InMemoryRepo) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[account.PublicKey]; exists {
		return errors.Wrapf(errors.ErrConflict, "account for key %s", account.PublicKey)
	}
	if _, exists := r.byID[account.ID]; exists {
		return errors.Wrapf(errors.ErrConflict, "account %s", account.ID)
	}
	r.byID[account.ID] = account.clone()
	r.byKey[account.PublicKey] = account.ID
	return nil
}

func (r *InMemoryRepo) Update(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[account.ID]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "account %s", account.ID)
	}
	r.byID[account.ID] = account.clone()
	return nil
}

func (r *InMemoryRepo) List(_ context.Context, status Status) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Account, 0, len(r.byID))
	for _, account := range r.byID {
		if status != "" && account.Status != status {
			continue
		}
		list = append(list, account.clone())
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}
