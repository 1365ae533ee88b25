package oauthmodel

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// ResponseType represents the OAuth 2.0 response type.
type ResponseType string

// CodeResponseType is the only response type the bridge accepts.
const CodeResponseType ResponseType = "code"

// AuthorizationParameters holds parameters for the authorization request,
// received as query parameters at /authorize.
type AuthorizationParameters struct {
	// ClientID identifies the relying party.
	// Required: Yes
	// Validated against: the single configured client, exact match
	ClientID string `json:"clientId"`

	// RedirectURI is where the code is delivered.
	// Required: Yes
	// Security: must exactly match a registered URI; no trailing slash or case normalisation
	RedirectURI string `json:"redirectUri"`

	// ResponseType must be "code".
	ResponseType ResponseType `json:"responseType"`

	// Scope is echoed into the grant but does not filter claims.
	Scope string `json:"scope,omitempty"`

	// State is opaque to the bridge and echoed back on the redirect.
	State string `json:"state,omitempty"`

	// Nonce is copied into the identity token when present.
	Nonce string `json:"nonce,omitempty"`
}

// ParseAuthorizationParameters reads the authorize query
func ParseAuthorizationParameters(query url.Values) AuthorizationParameters {
	return AuthorizationParameters{
		ClientID:     query.Get("client_id"),
		RedirectURI:  query.Get("redirect_uri"),
		ResponseType: ResponseType(query.Get("response_type")),
		Scope:        query.Get("scope"),
		State:        query.Get("state"),
		Nonce:        query.Get("nonce"),
	}
}

// Validate checks the request shape. Client and redirect registration is
// checked by the flow controller.
func (p *AuthorizationParameters) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "client_id is required")
	}
	if strings.TrimSpace(p.RedirectURI) == "" {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "redirect_uri is required")
	}
	if p.ResponseType != CodeResponseType {
		return errors.Wrapf(bridgeerrors.ErrInvalidRequest, "unsupported response_type %q", p.ResponseType)
	}
	return nil
}

// Values is the inverse of ParseAuthorizationParameters, used to replay a
// pending request after login.
func (p *AuthorizationParameters) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("client_id", p.ClientID)
	set("redirect_uri", p.RedirectURI)
	set("response_type", string(p.ResponseType))
	set("scope", p.Scope)
	set("state", p.State)
	set("nonce", p.Nonce)
	return values
}
