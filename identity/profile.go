package identity

import (
	"context"
	"fmt"
)

// StaticProfileSource derives a placeholder username from the key itself
type StaticProfileSource struct{}

var _ ProfileSource = StaticProfileSource{}

func (StaticProfileSource) Profile(_ context.Context, publicKey string) (*Profile, error) {
	return &Profile{
		PublicKey: publicKey,
		Username:  fmt.Sprintf("user_%s", ShortKey(publicKey)),
	}, nil
}

// ShortKey returns the first eight characters of a public key
func ShortKey(publicKey string) string {
	if len(publicKey) > 8 {
		return publicKey[:8]
	}
	return publicKey
}
