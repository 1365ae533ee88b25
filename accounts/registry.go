package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

// Registry is the approval gate: it owns every account and its status
type Registry struct {
	repo    Repo
	nowTime func() time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

func NewRegistry(repo Repo, options ...RegistryOption) (*Registry, error) {
	if repo == nil {
		return nil, errors.New("[NewRegistry] accounts repo is required")
	}
	r := &Registry{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// GetOrCreate returns the account for publicKey, creating a pending one on
// first sight. Concurrent first calls for one key converge on a single account.
func (r *Registry) GetOrCreate(ctx context.Context, publicKey, displayNameHint string) (*Account, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Registry.GetOrCreate] public key is required")
	}

	account, err := r.repo.GetByPublicKey(ctx, publicKey)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, bridgeerrors.ErrNotFound) {
		return nil, errors.Wrap(err, "[Registry.GetOrCreate] GetByPublicKey")
	}

	account = &Account{
		ID:          uuid.New().String(),
		PublicKey:   publicKey,
		DisplayName: strings.TrimSpace(displayNameHint),
		Status:      StatusPending,
		CreatedAt:   r.nowTime().UTC(),
	}
	if err := r.repo.Create(ctx, account); err != nil {
		if !errors.Is(err, bridgeerrors.ErrConflict) {
			return nil, errors.Wrap(err, "[Registry.GetOrCreate] Create")
		}
		// lost the race to another first login
		return r.repo.GetByPublicKey(ctx, publicKey)
	}

	log.Info().Str("account_id", account.ID).Str("key", account.PublicKey).Msg("pending account created")
	return account, nil
}

// Get returns the account by id
func (r *Registry) Get(ctx context.Context, id string) (*Account, error) {
	return r.repo.GetByID(ctx, id)
}

// Decide records an administrator decision. Re-deciding overwrites the
// previous decision (last write wins) and is logged for audit.
func (r *Registry) Decide(ctx context.Context, accountID string, decision Decision, actor string) (*Account, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, errors.Wrapf(bridgeerrors.ErrInvalidRequest, "[Registry.Decide] decision %q", decision)
	}
	if strings.TrimSpace(actor) == "" {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Registry.Decide] actor is required")
	}

	account, err := r.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "[Registry.Decide] GetByID")
	}

	previous, previousActor := account.Status, account.DecidedBy
	now := r.nowTime().UTC()

	account.Status = decision
	account.DecidedAt = utils.Ptr(now)
	account.DecidedBy = actor
	if decision == StatusApproved {
		account.ApprovedAt = utils.Ptr(now)
		account.ApprovedBy = actor
	} else {
		account.ApprovedAt = nil
		account.ApprovedBy = ""
	}

	if err := r.repo.Update(ctx, account); err != nil {
		return nil, errors.Wrap(err, "[Registry.Decide] Update")
	}

	event := log.Info()
	if previous != StatusPending {
		event = log.Warn().Str("previous_actor", previousActor)
	}
	event.Str("account_id", account.ID).
		Str("previous_status", string(previous)).
		Str("status", string(decision)).
		Str("actor", actor).
		Msg("account decision recorded")

	return account, nil
}

// List returns accounts newest first. An empty status lists everything.
func (r *Registry) List(ctx context.Context, status Status) ([]*Account, error) {
	if status != "" && !status.Valid() {
		return nil, errors.Wrapf(bridgeerrors.ErrInvalidRequest, "[Registry.List] status %q", status)
	}
	return r.repo.List(ctx, status)
}
