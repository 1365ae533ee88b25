package sessions

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/identity"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

const (
	DefaultTTL = 14 * 24 * time.Hour

	tokenBytes = 32
)

// Manager turns verified wallet assertions into browser sessions
type Manager struct {
	repo     Repo
	registry *accounts.Registry
	verifier identity.Verifier
	profiles identity.ProfileSource
	ttl      time.Duration
	nowTime  func() time.Time
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithTTL overrides the absolute session lifetime
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithProfileSource supplies display names when the login carries no hint
func WithProfileSource(profiles identity.ProfileSource) ManagerOption {
	return func(m *Manager) {
		m.profiles = profiles
	}
}

func NewManager(repo Repo, registry *accounts.Registry, verifier identity.Verifier, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] sessions repo is required")
	}
	if registry == nil {
		return nil, errors.New("[NewManager] accounts registry is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewManager] identity verifier is required")
	}
	m := &Manager{
		repo:     repo,
		registry: registry,
		verifier: verifier,
		ttl:      DefaultTTL,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Login verifies the assertion, provisions the account on first sight and
// opens a new session. Unapproved accounts still get a session.
func (m *Manager) Login(ctx context.Context, assertion identity.Assertion) (*Session, *accounts.Account, error) {
	assertion.PublicKey = strings.TrimSpace(assertion.PublicKey)
	if err := m.verifier.Verify(ctx, assertion); err != nil {
		return nil, nil, errors.Wrap(err, "[Manager.Login] Verify")
	}

	hint := strings.TrimSpace(assertion.DisplayNameHint)
	if hint == "" && m.profiles != nil {
		profile, err := m.profiles.Profile(ctx, assertion.PublicKey)
		if err != nil {
			// a missing profile never blocks login
			log.Warn().Err(err).Str("key", identity.ShortKey(assertion.PublicKey)).Msg("profile lookup failed")
		} else if profile != nil {
			hint = profile.Username
		}
	}

	account, err := m.registry.GetOrCreate(ctx, assertion.PublicKey, hint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Manager.Login] GetOrCreate")
	}

	token, err := utils.RandomToken(tokenBytes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Manager.Login] RandomToken")
	}

	now := m.nowTime().UTC()
	session := &Session{
		Token:     token,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.Create(ctx, session); err != nil {
		return nil, nil, errors.Wrap(err, "[Manager.Login] Create")
	}

	log.Info().Str("account_id", account.ID).Str("status", string(account.Status)).Msg("session created")
	return session, account, nil
}

// Resolve returns the account behind token with its current status, or nil
// when the token is unknown or expired.
func (m *Manager) Resolve(ctx context.Context, token string) (*accounts.Account, error) {
	if token == "" {
		return nil, nil
	}

	session, err := m.repo.Get(ctx, token)
	if errors.Is(err, bridgeerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Resolve] Get")
	}

	if session.Expired(m.nowTime()) {
		if err := m.repo.Delete(ctx, token); err != nil {
			log.Warn().Err(err).Msg("expired session cleanup failed")
		}
		return nil, nil
	}

	account, err := m.registry.Get(ctx, session.AccountID)
	if errors.Is(err, bridgeerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Resolve] registry.Get")
	}
	return account, nil
}

// Destroy ends the session. Unknown and expired tokens are ignored.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, token); err != nil {
		return errors.Wrap(err, "[Manager.Destroy] Delete")
	}
	return nil
}
