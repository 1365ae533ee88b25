package keys

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs and verifies RS256 tokens with one key pair
type Signer struct {
	keyPair *KeyPair
}

func NewSigner(keyPair *KeyPair) *Signer {
	return &Signer{keyPair: keyPair}
}

// Sign creates a compact JWT carrying the key id header
func (s *Signer) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyPair.KeyID

	signed, err := token.SignedString(s.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// VerificationKey is a jwt.Keyfunc accepting only RS256 tokens for this key id
func (s *Signer) VerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if kid, _ := token.Header["kid"].(string); kid != s.keyPair.KeyID {
		return nil, errors.Errorf("unknown key id %q", kid)
	}
	return s.keyPair.PublicKey(), nil
}

// JWKS returns the published key set
func (s *Signer) JWKS() JWKS {
	return JWKS{Keys: []JWK{s.keyPair.JWK()}}
}
