package config

import (
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. Environment variables are the upper-cased key with
// dots replaced by underscores and a BRIDGE_ prefix (e.g. BRIDGE_OAUTH_CLIENT_ID).
const (
	PortKey       = "port"
	AppNameKey    = "app_name"
	BaseURLKey    = "base_url"
	IssuerKey     = "issuer"
	LoginURLKey   = "login_url"
	EnvKey        = "env"
	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"

	AllowedOriginsKey = "cors.allowed_origins"

	ClientIDKey           = "oauth.client_id"
	ClientSecretKey       = "oauth.client_secret"
	RedirectURIsKey       = "oauth.redirect_uris"
	AuthCodeTimeoutKey    = "oauth.code_ttl"
	AccessTokenExpiryKey  = "oauth.access_token_ttl"
	IDTokenExpiryKey      = "oauth.id_token_ttl"
	InteractionTimeoutKey = "oauth.interaction_ttl"
	SigningKeyFileKey     = "oauth.signing_key_file"
	SigningKeyIDKey       = "oauth.signing_key_id"

	SessionTTLKey           = "security.session_ttl"
	SessionSecretKey        = "security.session_secret"
	AdminPublicKeysKey      = "security.admin_public_keys"
	AdminUsernameKey        = "security.admin_username"
	AdminPasswordKey        = "security.admin_password"
	AdminTokenExpiryKey     = "security.admin_token_ttl"
	VerifierTimeoutKey      = "security.verifier_timeout"
	StrictKeyValidationKey  = "security.strict_key_validation"
	RequireClientSecretKey  = "security.require_client_secret"
	StorageDriverKey        = "storage.driver"
	DatabaseURLKey          = "storage.database_url"
	CacheDriverKey          = "cache.driver"
	RedisURLKey             = "cache.redis_url"
	OTLPEndpointKey         = "telemetry.otlp_endpoint"
	MetricsEnabledKey       = "telemetry.metrics_enabled"
	TelemetryServiceNameKey = "telemetry.service_name"
)

const defaultBaseURL = "http://localhost:8080"

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(PortKey, "8080")
	v.SetDefault(AppNameKey, "Wallet OIDC Bridge")
	v.SetDefault(BaseURLKey, defaultBaseURL)
	v.SetDefault(EnvKey, "DEV")
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "console")
	v.SetDefault(LogNoColorKey, false)

	v.SetDefault(AllowedOriginsKey, []string{})

	v.SetDefault(ClientIDKey, "azure-ad-client")
	v.SetDefault(ClientSecretKey, "change-me")
	v.SetDefault(RedirectURIsKey, []string{
		"https://login.microsoftonline.com/common/federation/oauth2",
		"https://login.microsoftonline.com/common/oauth2/nativeclient",
		"http://localhost:3000/callback",
	})
	v.SetDefault(AuthCodeTimeoutKey, 10*time.Minute)
	v.SetDefault(AccessTokenExpiryKey, time.Hour)
	v.SetDefault(IDTokenExpiryKey, time.Hour)
	v.SetDefault(InteractionTimeoutKey, 10*time.Minute)
	v.SetDefault(SigningKeyIDKey, "default")

	v.SetDefault(SessionTTLKey, 14*24*time.Hour)
	v.SetDefault(AdminUsernameKey, "admin")
	v.SetDefault(AdminTokenExpiryKey, 8*time.Hour)
	v.SetDefault(VerifierTimeoutKey, 5*time.Second)
	v.SetDefault(StrictKeyValidationKey, false)
	v.SetDefault(RequireClientSecretKey, true)

	v.SetDefault(StorageDriverKey, "memory")
	v.SetDefault(CacheDriverKey, "memory")

	v.SetDefault(MetricsEnabledKey, true)
	v.SetDefault(TelemetryServiceNameKey, "wallet-oidc-bridge")
}
