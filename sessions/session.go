package sessions

import (
	"context"
	"time"
)

// Session binds an opaque browser token to an account. Sessions say who the
// caller is; whether the account may federate is the registry's call.
type Session struct {
	Token     string    `json:"token" db:"token"`
	AccountID string    `json:"accountId" db:"account_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its absolute expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Repo defines session storage. Get returns ErrNotFound for unknown tokens;
// expiry is judged by the Manager, not the repo.
type Repo interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	// Delete is a no-op when the token is unknown
	Delete(ctx context.Context, token string) error
}
