package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/auth"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

const flowIDBytes = 16

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return s.protocol(func(_ context.Context, _ *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		issuer := s.services.Issuer.Issuer()

		resp := map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + RouteAuthorize,
			"token_endpoint":         issuer + RouteToken,
			"userinfo_endpoint":      issuer + RouteUserInfo,
			"jwks_uri":               issuer + RouteJWKS,

			"response_types_supported":              []string{string(oauthmodel.CodeResponseType)},
			"response_modes_supported":              []string{"query"},
			"grant_types_supported":                 []string{string(oauthmodel.AuthorizationCodeGrant)},
			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"RS256"},
			"scopes_supported":                      []string{"openid", "profile", "email"},
			"token_endpoint_auth_methods_supported": []string{"client_secret_post", "client_secret_basic"},
			"claims_supported": []string{
				"sub",
				"name",
				"preferred_username",
				"email",
				"email_verified",
				"wallet_public_key",
			},

			"claims_parameter_supported":      false,
			"request_parameter_supported":     false,
			"request_uri_parameter_supported": false,
		}

		return oauthmodel.JSONResponse(http.StatusOK, resp).
			WithHeader("Cache-Control", "public, max-age=3600"), nil
	})
}

// JWKS returns the JSON Web Key Set used to validate identity tokens
func (s *Server) JWKS() http.HandlerFunc {
	return s.protocol(func(_ context.Context, _ *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		jwks, err := s.services.Issuer.JWKS()
		if err != nil {
			return nil, errors.Wrap(err, "[Server JWKS]")
		}
		return oauthmodel.JSONResponse(http.StatusOK, jwks).
			WithHeader("Cache-Control", "public, max-age=3600"), nil
	})
}

// Authorize begins or completes the authorization flow
func (s *Server) Authorize() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		params := oauthmodel.ParseAuthorizationParameters(req.Form)

		var newFlowCookie *http.Cookie
		flowID := req.Cookie(flowCookieName)
		if flowID == "" {
			var err error
			if flowID, err = utils.RandomToken(flowIDBytes); err != nil {
				return nil, errors.Wrap(err, "[Server Authorize] flow id")
			}
			newFlowCookie = s.flowCookie(req.Secure, flowID)
		}

		var resp *oauthmodel.ProtocolResponse
		var redirectErr error

		// Define login redirect callback - the login page resumes the interaction
		loginRedirect := func(interactionUID string) {
			resp = oauthmodel.RedirectResponse(s.loginLocation(interactionUID))
		}

		// Define OAuth redirect callback
		oauthRedirect := func(redirectURI, authCode, state string) {
			location, err := auth.CodeRedirectURL(redirectURI, authCode, state)
			if err != nil {
				redirectErr = err
				return
			}
			resp = oauthmodel.RedirectResponse(location)
		}

		browser := auth.BrowserContext{SessionToken: req.Cookie(sessionCookieName), FlowID: flowID}
		if err := s.services.Auth.Authorize(ctx, &params, browser, loginRedirect, oauthRedirect); err != nil {
			return nil, err
		}
		if redirectErr != nil {
			return nil, redirectErr
		}
		if resp == nil {
			return nil, errors.New("[Server Authorize] no redirect produced")
		}

		if newFlowCookie != nil {
			resp.WithCookie(newFlowCookie)
		}
		return resp.WithHeader("Cache-Control", "no-store"), nil
	})
}

// loginLocation appends the interaction uid to the configured login URL
func (s *Server) loginLocation(interactionUID string) string {
	loginURL := s.config.GetLoginURL()
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL + "?interaction=" + url.QueryEscape(interactionUID)
	}
	query := u.Query()
	query.Set("interaction", interactionUID)
	u.RawQuery = query.Encode()
	return u.String()
}

// Token exchanges an authorization code for tokens
func (s *Server) Token() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		form := req.Form
		if req.IsJSON() {
			var body map[string]any
			if err := req.DecodeJSON(&body); err != nil {
				return nil, err
			}
			form = url.Values{}
			for key, value := range body {
				if str, ok := value.(string); ok {
					form.Set(key, str)
				}
			}
		}

		user, password, hasBasic := req.BasicAuth()
		tokenResponse, err := s.services.Auth.Token(ctx, oauthmodel.ParseTokenRequest(form, user, password, hasBasic))
		if err != nil {
			metrics.IncTokenExchange(bridgeerrors.OAuthCode(err))
			return nil, err
		}
		metrics.IncTokenExchange("ok")

		return oauthmodel.JSONResponse(http.StatusOK, tokenResponse).
			WithHeader("Cache-Control", "no-store").
			WithHeader("Pragma", "no-cache"), nil
	})
}

// UserInfo returns the claims behind a bearer token
func (s *Server) UserInfo() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		claims, err := s.services.Auth.UserInfo(ctx, auth.BearerToken(req.Header.Get("Authorization")))
		if err != nil {
			return nil, err
		}
		return oauthmodel.JSONResponse(http.StatusOK, claims).WithHeader("Cache-Control", "no-store"), nil
	})
}
