package admins

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

const (
	// DefaultTokenTTL is how long an admin login lasts
	DefaultTokenTTL = 8 * time.Hour

	tokenIssuer = "wallet-oidc-bridge/admin"
)

// ActorKind says how an admin proved who they are
type ActorKind string

const (
	ActorPassword ActorKind = "password"
	ActorWallet   ActorKind = "wallet"
)

// Actor is an authenticated administrator
type Actor struct {
	Name                   string
	Kind                   ActorKind
	PasswordChangeRequired bool
}

// TokenClaims are carried by the admin cookie
type TokenClaims struct {
	Name                   string `json:"name"`
	PasswordChangeRequired bool   `json:"pcr"`
	jwt.RegisteredClaims
}

// Service manages admin credentials and decides who may act as an admin
type Service struct {
	repo            Repo
	secret          []byte
	tokenTTL        time.Duration
	adminPublicKeys []string
	nowTime         func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithTokenTTL sets the admin token lifetime
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithAdminPublicKeys lists wallet public keys whose sessions act as admins
func WithAdminPublicKeys(keys []string) ServiceOption {
	return func(s *Service) {
		for _, key := range keys {
			if key = strings.TrimSpace(key); key != "" {
				s.adminPublicKeys = append(s.adminPublicKeys, key)
			}
		}
	}
}

// NewService creates the admin service. An empty secret gets a random
// per-process one, so admin cookies do not survive a restart.
func NewService(repo Repo, secret string, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] repo is required")
	}
	if secret == "" {
		generated, err := utils.RandomToken(32)
		if err != nil {
			return nil, errors.Wrap(err, "[NewService] generate secret")
		}
		secret = generated
		log.Warn().Msg("no session secret configured, admin logins will not survive a restart")
	}

	s := &Service{
		repo:     repo,
		secret:   []byte(secret),
		tokenTTL: DefaultTokenTTL,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Bootstrap creates the first admin when none exists. With no configured
// password one is generated; it is returned and logged exactly once. The
// bootstrap admin must rotate its password before deciding on accounts.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (generatedPassword string, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Service.Bootstrap] username is required")
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Bootstrap] Count")
	}
	if count > 0 {
		log.Debug().Int("admins", count).Msg("admin already provisioned")
		return "", nil
	}

	if password == "" {
		if generatedPassword, err = utils.RandomToken(18); err != nil {
			return "", errors.Wrap(err, "[Service.Bootstrap] generate password")
		}
		password = generatedPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Bootstrap] HashPassword")
	}
	now := s.nowTime().UTC()
	admin := &AdminUser{
		ID:                     uuid.New().String(),
		Username:               username,
		PasswordHash:           hash,
		PasswordChangeRequired: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, bridgeerrors.ErrConflict) {
			// another instance provisioned it first
			return "", nil
		}
		return "", errors.Wrap(err, "[Service.Bootstrap] Create")
	}

	event := log.Warn().Str("username", username)
	if generatedPassword != "" {
		event = event.Str("password", generatedPassword)
	}
	event.Msg("bootstrap admin created, password must be changed on first login")
	return generatedPassword, nil
}

// Authenticate checks an admin's password. Unknown users and wrong passwords
// are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*AdminUser, error) {
	admin, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, bridgeerrors.ErrNotFound) {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidCredentials, "[Service.Authenticate]")
		}
		return nil, errors.Wrap(err, "[Service.Authenticate] GetByUsername")
	}
	if !admin.CheckPassword(password) {
		log.Warn().Str("username", admin.Username).Msg("admin login failed")
		return nil, errors.Wrap(bridgeerrors.ErrInvalidCredentials, "[Service.Authenticate]")
	}
	return admin, nil
}

// ChangePassword rotates an admin password and clears the forced-rotation flag
func (s *Service) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) (*AdminUser, error) {
	admin, err := s.Authenticate(ctx, username, currentPassword)
	if err != nil {
		return nil, err
	}
	if newPassword == currentPassword {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "new password must differ from the current one")
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, err.Error())
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ChangePassword] HashPassword")
	}
	admin.PasswordHash = hash
	admin.PasswordChangeRequired = false
	admin.UpdatedAt = s.nowTime().UTC()
	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, errors.Wrap(err, "[Service.ChangePassword] Update")
	}

	log.Info().Str("username", admin.Username).Msg("admin password changed")
	return admin, nil
}

// IssueToken signs an admin token for the cookie
func (s *Service) IssueToken(admin *AdminUser) (string, error) {
	now := s.nowTime()
	claims := TokenClaims{
		Name:                   admin.Username,
		PasswordChangeRequired: admin.PasswordChangeRequired,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Service.IssueToken] SignedString")
	}
	return signed, nil
}

// ParseToken validates an admin token and returns its actor
func (s *Service) ParseToken(raw string) (*Actor, error) {
	if raw == "" {
		return nil, errors.Wrap(bridgeerrors.ErrUnauthorized, "admin token required")
	}
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowTime),
	)
	if err != nil {
		return nil, errors.Wrap(bridgeerrors.ErrUnauthorized, err.Error())
	}
	return &Actor{Name: claims.Name, Kind: ActorPassword, PasswordChangeRequired: claims.PasswordChangeRequired}, nil
}

// IsWalletAdmin reports whether publicKey is configured as an admin
func (s *Service) IsWalletAdmin(publicKey string) bool {
	return publicKey != "" && slices.Contains(s.adminPublicKeys, publicKey)
}

// WalletActor returns the admin actor for a wallet session, or ErrForbidden
func (s *Service) WalletActor(publicKey string) (*Actor, error) {
	if !s.IsWalletAdmin(publicKey) {
		return nil, errors.Wrap(bridgeerrors.ErrForbidden, "wallet is not an administrator")
	}
	return &Actor{Name: "wallet:" + publicKey, Kind: ActorWallet}, nil
}

// RequireDecisionRights refuses actors that still hold a bootstrap password
func RequireDecisionRights(actor *Actor) error {
	if actor == nil {
		return errors.Wrap(bridgeerrors.ErrUnauthorized, "admin credentials required")
	}
	if actor.PasswordChangeRequired {
		return errors.Wrap(bridgeerrors.ErrPasswordChangeRequired, "rotate the bootstrap password first")
	}
	return nil
}
