package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(PortKey)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(AppNameKey)
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(EnvKey)
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

// GetBaseURL returns the public base URL of the bridge (e.g., "https://id.example.com")
// without a trailing slash.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.v.GetString(BaseURLKey), "/")
}

// GetIssuer returns the OIDC issuer, defaulting to the base URL
func (e EnvVars) GetIssuer() string {
	if issuer := e.v.GetString(IssuerKey); issuer != "" {
		return strings.TrimRight(issuer, "/")
	}
	return e.GetBaseURL()
}

// GetLoginURL is where browsers are sent to present a wallet identity
func (e EnvVars) GetLoginURL() string {
	if loginURL := e.v.GetString(LoginURLKey); loginURL != "" {
		return loginURL
	}
	return e.GetBaseURL() + "/login"
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(LogLevelKey)
}

func (e EnvVars) GetLogFormat() string {
	return e.v.GetString(LogFormatKey)
}

func (e EnvVars) GetLogNoColor() bool {
	return e.v.GetBool(LogNoColorKey)
}
