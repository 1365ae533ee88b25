package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"

	"github.com/pkg/errors"
)

// RS256 is the only algorithm the bridge signs with
const RS256 = "RS256"

const minRSABits = 2048

// KeyPair is an RSA signing key with its published key id
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// GenerateRSAKeyPair generates a new RSA key pair for RS256 signing
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < minRSABits {
		bits = minRSABits
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "generate RSA key")
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// PublicKey returns the verification half of the pair
func (kp *KeyPair) PublicKey() *rsa.PublicKey {
	return &kp.PrivateKey.PublicKey
}

// PrivateKeyPEM encodes the private key as a PKCS#1 PEM block
func (kp *KeyPair) PrivateKeyPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey),
	})
}

// PublicKeyPEM encodes the public key as a PKIX PEM block
func (kp *KeyPair) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(kp.PublicKey())
	if err != nil {
		return nil, errors.Wrap(err, "marshal public key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// JWK converts the public key to its JWK form
func (kp *KeyPair) JWK() JWK {
	pub := kp.PublicKey()
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: RS256,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// ParsePrivateKeyPEM accepts PKCS#1 and PKCS#8 encoded RSA private keys
func ParsePrivateKeyPEM(keyID string, data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "parse PKCS#1 key")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "parse PKCS#8 key")
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.Errorf("unsupported private key type %T", parsed)
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
	default:
		return nil, errors.Errorf("unsupported PEM block %q", block.Type)
	}
}

// LoadFile reads a PEM private key from path
func LoadFile(keyID, path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read signing key")
	}
	kp, err := ParsePrivateKeyPEM(keyID, data)
	if err != nil {
		return nil, errors.Wrapf(err, "signing key %s", path)
	}
	return kp, nil
}

// WriteFile stores the private key at path, readable by the owner only
func (kp *KeyPair) WriteFile(path string) error {
	if err := os.WriteFile(path, kp.PrivateKeyPEM(), 0o600); err != nil {
		return errors.Wrap(err, "write signing key")
	}
	return nil
}
