package sessions

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// InMemoryRepo keeps sessions in process memory
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{sessions: make(map[string]Session)}
}

func (r *InMemoryRepo) Create(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "[sessions.InMemoryRepo.Create] token is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.Token]; exists {
		return errors.Wrap(bridgeerrors.ErrConflict, "[sessions.InMemoryRepo.Create] token already issued")
	}
	r.sessions[session.Token] = *session
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, token string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[token]
	if !ok {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "session")
	}
	return &session, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}
