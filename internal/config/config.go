package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BRIDGE"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StorageConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetIssuer() string
	GetLoginURL() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetLogNoColor() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Storage
	Telemetry
}

// New builds a Config over v. Defaults are registered on v so that unset
// keys resolve to the documented values.
func New(v *viper.Viper) Config {
	SetDefaults(v)
	return mainConfig{
		EnvVars:   EnvVars{v: v},
		Cors:      Cors{v: v},
		OAuth:     OAuth{v: v},
		Security:  Security{v: v},
		Storage:   Storage{v: v},
		Telemetry: Telemetry{v: v},
	}
}

// NewViper returns a viper instance bound to BRIDGE_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads configFile into v, or searches for bridge.yaml in the
// working directory when configFile is empty. A missing default file is not
// an error.
func ReadFile(v *viper.Viper, configFile string) (string, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("bridge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
		return "", nil
	}
	return v.ConfigFileUsed(), nil
}
