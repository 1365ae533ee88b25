package config

import (
	"time"

	"github.com/spf13/viper"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionSecret() string
	GetAdminPublicKeys() []string
	GetAdminUsername() string
	GetAdminPassword() string
	GetAdminTokenExpiry() time.Duration
	GetVerifierTimeout() time.Duration
	GetStrictKeyValidation() bool
	GetRequireClientSecret() bool
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxSessionAge() time.Duration {
	return s.v.GetDuration(SessionTTLKey)
}

// GetSessionSecret signs admin tokens. Empty means a random per-process secret.
func (s Security) GetSessionSecret() string {
	return s.v.GetString(SessionSecretKey)
}

func (s Security) GetAdminPublicKeys() []string {
	return splitList(s.v.GetStringSlice(AdminPublicKeysKey))
}

func (s Security) GetAdminUsername() string {
	return s.v.GetString(AdminUsernameKey)
}

// GetAdminPassword is the first-run admin password. Empty means one is generated.
func (s Security) GetAdminPassword() string {
	return s.v.GetString(AdminPasswordKey)
}

func (s Security) GetAdminTokenExpiry() time.Duration {
	return s.v.GetDuration(AdminTokenExpiryKey)
}

func (s Security) GetVerifierTimeout() time.Duration {
	return s.v.GetDuration(VerifierTimeoutKey)
}

func (s Security) GetStrictKeyValidation() bool {
	return s.v.GetBool(StrictKeyValidationKey)
}

func (s Security) GetRequireClientSecret() bool {
	return s.v.GetBool(RequireClientSecretKey)
}
