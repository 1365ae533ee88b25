package utils

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// RandomToken returns n bytes from crypto/rand encoded as unpadded base64url
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "RandomToken rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
