package credentials

import (
	"context"
	"time"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
)

const (
	DefaultCodeTTL        = 10 * time.Minute
	DefaultAccessTokenTTL = time.Hour

	// 32 bytes of entropy per identifier
	identifierBytes = 32
)

// CodeGrant is what an authorization code stands for
type CodeGrant struct {
	Claims      accounts.Claims `json:"claims"`
	ClientID    string          `json:"clientId"`
	RedirectURI string          `json:"redirectUri"`
	Scope       string          `json:"scope,omitempty"`
	Nonce       string          `json:"nonce,omitempty"`
}

// CodePayload is a consumed authorization code
type CodePayload struct {
	CodeGrant
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenGrant is what an access token stands for
type TokenGrant struct {
	Claims   accounts.Claims `json:"claims"`
	ClientID string          `json:"clientId"`
	Scope    string          `json:"scope,omitempty"`
}

// TokenPayload is a live access token
type TokenPayload struct {
	TokenGrant
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store holds authorization codes and access tokens. Absent, expired and
// already consumed entries all read as (nil, nil).
type Store interface {
	IssueCode(ctx context.Context, grant CodeGrant) (string, error)
	// ConsumeCode removes the code before judging it, so a code can be
	// redeemed at most once even under concurrent calls.
	ConsumeCode(ctx context.Context, code string) (*CodePayload, error)
	IssueAccessToken(ctx context.Context, grant TokenGrant) (string, error)
	// ReadAccessToken does not consume; expired tokens are deleted on read.
	ReadAccessToken(ctx context.Context, token string) (*TokenPayload, error)
}

type settings struct {
	codeTTL        time.Duration
	accessTokenTTL time.Duration
	nowTime        func() time.Time
}

// Option configures a Store implementation
type Option func(*settings)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *settings) {
		s.nowTime = nowFunc
	}
}

func WithCodeTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.codeTTL = ttl
		}
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.accessTokenTTL = ttl
		}
	}
}

func newSettings(options []Option) settings {
	s := settings{
		codeTTL:        DefaultCodeTTL,
		accessTokenTTL: DefaultAccessTokenTTL,
		nowTime:        time.Now,
	}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// live reports whether an entry expiring at expiresAt is still valid at now
func live(now, expiresAt time.Time) bool {
	return now.Before(expiresAt)
}
