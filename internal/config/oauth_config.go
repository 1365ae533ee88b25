package config

import (
	"time"

	"github.com/spf13/viper"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURIs() []string
	GetAuthCodeTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultIDTokenExpiry() time.Duration
	GetInteractionTimeout() time.Duration
	GetSigningKeyFile() string
	GetSigningKeyID() string
}

type OAuth struct {
	v *viper.Viper
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.v.GetString(ClientIDKey)
}

func (o OAuth) GetClientSecret() string {
	return o.v.GetString(ClientSecretKey)
}

func (o OAuth) GetRedirectURIs() []string {
	return splitList(o.v.GetStringSlice(RedirectURIsKey))
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return o.v.GetDuration(AuthCodeTimeoutKey)
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return o.v.GetDuration(AccessTokenExpiryKey)
}

func (o OAuth) GetDefaultIDTokenExpiry() time.Duration {
	return o.v.GetDuration(IDTokenExpiryKey)
}

func (o OAuth) GetInteractionTimeout() time.Duration {
	return o.v.GetDuration(InteractionTimeoutKey)
}

// GetSigningKeyFile is an optional PKCS1 PEM file. When empty a key pair is
// generated on first use and lives for the process lifetime.
func (o OAuth) GetSigningKeyFile() string {
	return o.v.GetString(SigningKeyFileKey)
}

func (o OAuth) GetSigningKeyID() string {
	return o.v.GetString(SigningKeyIDKey)
}
