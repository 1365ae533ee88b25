package identity

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
)

// Assertion is a claimed wallet identity presented at login
type Assertion struct {
	PublicKey       string
	DisplayNameHint string
}

// Verifier decides whether a claimed public key identity is acceptable.
// Implementations return an error wrapping errors.ErrInvalidIdentity on
// rejection, errors.ErrVerificationTimeout when the deadline passes and
// errors.ErrUpstreamUnavailable when a remote verifier cannot be reached.
type Verifier interface {
	Verify(ctx context.Context, assertion Assertion) error
}

// Profile is public profile data for a wallet identity
type Profile struct {
	PublicKey string
	Username  string
}

// ProfileSource looks up a display profile for a public key
type ProfileSource interface {
	Profile(ctx context.Context, publicKey string) (*Profile, error)
}
