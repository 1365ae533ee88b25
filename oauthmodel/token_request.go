package oauthmodel

import (
	"net/url"
)

// GrantType is the token endpoint grant_type
type GrantType string

// AuthorizationCodeGrant is the only grant the bridge supports
const AuthorizationCodeGrant GrantType = "authorization_code"

// TokenRequest holds the parameters of a token request. Client credentials
// may arrive in the form (client_secret_post) or in a Basic header
// (client_secret_basic); the header wins when both are present.
type TokenRequest struct {
	GrantType    GrantType
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// ParseTokenRequest reads the token form and optional Basic credentials
func ParseTokenRequest(form url.Values, basicUser, basicPassword string, hasBasic bool) TokenRequest {
	req := TokenRequest{
		GrantType:    GrantType(form.Get("grant_type")),
		Code:         form.Get("code"),
		ClientID:     form.Get("client_id"),
		ClientSecret: form.Get("client_secret"),
		RedirectURI:  form.Get("redirect_uri"),
	}
	if hasBasic {
		// RFC 6749 2.3.1: Basic credentials are form-encoded before base64
		if user, err := url.QueryUnescape(basicUser); err == nil {
			req.ClientID = user
		}
		if password, err := url.QueryUnescape(basicPassword); err == nil {
			req.ClientSecret = password
		}
	}
	return req
}
