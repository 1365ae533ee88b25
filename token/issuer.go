package token

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/token/keys"
)

const (
	DefaultKeyID      = "default"
	DefaultIDTokenTTL = time.Hour
	defaultRSAKeyBits = 2048
)

// reserved claims are always set by the issuer, never copied from a snapshot
var reservedClaims = map[string]struct{}{
	"iss": {}, "aud": {}, "azp": {}, "iat": {}, "exp": {}, "jti": {}, "nonce": {},
}

// KeyGenerator creates a fresh key pair for the given key id
type KeyGenerator func(keyID string) (*keys.KeyPair, error)

// Issuer signs identity tokens. Its key pair is created or loaded exactly
// once, on first use, and never changes afterwards.
type Issuer struct {
	issuer    string
	keyID     string
	keyFile   string
	ttl       time.Duration
	generate  KeyGenerator
	nowTime   func() time.Time
	once      sync.Once
	signer    *keys.Signer
	signerErr error
}

// IssuerOption configures an Issuer
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

func WithKeyID(keyID string) IssuerOption {
	return func(i *Issuer) {
		if keyID != "" {
			i.keyID = keyID
		}
	}
}

// WithKeyFile loads the signing key from a PEM file instead of generating one
func WithKeyFile(path string) IssuerOption {
	return func(i *Issuer) {
		i.keyFile = path
	}
}

func WithKeyGenerator(generate KeyGenerator) IssuerOption {
	return func(i *Issuer) {
		i.generate = generate
	}
}

func NewIssuer(issuer string, options ...IssuerOption) (*Issuer, error) {
	if issuer == "" {
		return nil, errors.New("[NewIssuer] issuer is required")
	}
	i := &Issuer{
		issuer:  issuer,
		keyID:   DefaultKeyID,
		ttl:     DefaultIDTokenTTL,
		nowTime: time.Now,
		generate: func(keyID string) (*keys.KeyPair, error) {
			return keys.GenerateRSAKeyPair(keyID, defaultRSAKeyBits)
		},
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issuer returns the iss value stamped on every token
func (i *Issuer) Issuer() string {
	return i.issuer
}

func (i *Issuer) loadSigner() (*keys.Signer, error) {
	i.once.Do(func() {
		var kp *keys.KeyPair
		var err error
		if i.keyFile != "" {
			kp, err = keys.LoadFile(i.keyID, i.keyFile)
		} else {
			kp, err = i.generate(i.keyID)
			if err == nil {
				log.Warn().Str("kid", i.keyID).Msg("generated ephemeral signing key; tokens will not verify after restart")
			}
		}
		if err != nil {
			i.signerErr = errors.Wrap(err, "[Issuer] signing key")
			return
		}
		i.signer = keys.NewSigner(kp)
	})
	return i.signer, i.signerErr
}

// Init forces key creation so a bad key file fails at startup rather than on
// the first token request.
func (i *Issuer) Init() error {
	_, err := i.loadSigner()
	return err
}

// JWKS returns the public key set
func (i *Issuer) JWKS() (*keys.JWKS, error) {
	signer, err := i.loadSigner()
	if err != nil {
		return nil, err
	}
	jwks := signer.JWKS()
	return &jwks, nil
}

// IssueIdentityToken signs the claims snapshot for audience. Every snapshot
// claim is carried verbatim; no per-scope filtering is applied.
func (i *Issuer) IssueIdentityToken(claims accounts.Claims, audience, nonce string) (string, error) {
	if claims.Subject() == "" {
		return "", errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Issuer.IssueIdentityToken] subject is required")
	}
	if audience == "" {
		return "", errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Issuer.IssueIdentityToken] audience is required")
	}

	signer, err := i.loadSigner()
	if err != nil {
		return "", err
	}

	now := i.nowTime()
	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		if _, reserved := reservedClaims[k]; !reserved {
			mapClaims[k] = v
		}
	}
	mapClaims["iss"] = i.issuer
	mapClaims["aud"] = audience
	mapClaims["azp"] = audience
	mapClaims["iat"] = now.Unix()
	mapClaims["exp"] = now.Add(i.ttl).Unix()
	mapClaims["jti"] = uuid.New().String()
	if nonce != "" {
		mapClaims["nonce"] = nonce
	}

	signed, err := signer.Sign(mapClaims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.IssueIdentityToken]")
	}
	return signed, nil
}

// Verify checks the signature, issuer, audience and expiry of raw
func (i *Issuer) Verify(raw, audience string) (jwt.MapClaims, error) {
	signer, err := i.loadSigner()
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, signer.VerificationKey,
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.nowTime),
	)
	if err != nil {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidToken, err.Error())
	}
	return claims, nil
}
