package identity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

const (
	// MainnetPrefix is the leading text of every mainnet wallet public key
	MainnetPrefix = "BC1YL"

	networkPrefixLength = 3
	compressedKeyLength = 33
	checksumLength      = 4
	decodedKeyLength    = networkPrefixLength + compressedKeyLength + checksumLength
)

// MainnetNetworkPrefix is the version prefix of a decoded mainnet key
var MainnetNetworkPrefix = []byte{0xcd, 0x14, 0x00}

// FormatVerifier validates the textual form of a wallet public key. It does
// not check signatures.
type FormatVerifier struct {
	textPrefix    string
	networkPrefix []byte
	checksum      bool
}

// FormatVerifierOption configures a FormatVerifier
type FormatVerifierOption func(*FormatVerifier)

// WithTextPrefix overrides the required leading text. Empty disables the check.
func WithTextPrefix(prefix string) FormatVerifierOption {
	return func(fv *FormatVerifier) {
		fv.textPrefix = prefix
	}
}

// WithChecksum requires the key to base58-decode to a network prefix,
// a compressed public key and a double SHA-256 checksum
func WithChecksum(networkPrefix []byte) FormatVerifierOption {
	return func(fv *FormatVerifier) {
		fv.checksum = true
		fv.networkPrefix = networkPrefix
	}
}

// NewFormatVerifier returns a verifier requiring the mainnet prefix by default
func NewFormatVerifier(options ...FormatVerifierOption) *FormatVerifier {
	fv := &FormatVerifier{textPrefix: MainnetPrefix}
	for _, opt := range options {
		opt(fv)
	}
	return fv
}

var _ Verifier = (*FormatVerifier)(nil)

func (fv *FormatVerifier) Verify(ctx context.Context, assertion Assertion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	publicKey := strings.TrimSpace(assertion.PublicKey)
	if publicKey == "" {
		return errors.Wrap(bridgeerrors.ErrInvalidIdentity, "public key is required")
	}
	if fv.textPrefix != "" && !strings.HasPrefix(publicKey, fv.textPrefix) {
		return errors.Wrapf(bridgeerrors.ErrInvalidIdentity, "public key must start with %s", fv.textPrefix)
	}

	// base58.Decode returns an empty slice for characters outside the alphabet
	decoded := base58.Decode(publicKey)
	if len(decoded) == 0 {
		return errors.Wrap(bridgeerrors.ErrInvalidIdentity, "public key is not base58")
	}
	if !fv.checksum {
		return nil
	}

	if len(decoded) != decodedKeyLength {
		return errors.Wrapf(bridgeerrors.ErrInvalidIdentity, "decoded public key has %d bytes", len(decoded))
	}
	if fv.networkPrefix != nil && !bytes.Equal(decoded[:networkPrefixLength], fv.networkPrefix) {
		return errors.Wrap(bridgeerrors.ErrInvalidIdentity, "public key network prefix mismatch")
	}
	payload := decoded[:len(decoded)-checksumLength]
	if !bytes.Equal(Checksum(payload), decoded[len(decoded)-checksumLength:]) {
		return errors.Wrap(bridgeerrors.ErrInvalidIdentity, "public key checksum mismatch")
	}
	return nil
}

// Checksum is the first four bytes of the double SHA-256 of payload
func Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// EncodePublicKey encodes a compressed public key with its network prefix and
// checksum, the inverse of the strict check.
func EncodePublicKey(networkPrefix, compressedKey []byte) string {
	payload := append(append([]byte{}, networkPrefix...), compressedKey...)
	return base58.Encode(append(payload, Checksum(payload)...))
}
