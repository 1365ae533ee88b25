package server_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/wallet-oidc-bridge/server"
)

// TestRelyingPartyFlow drives the bridge with an off-the-shelf OIDC client:
// a pending wallet is held at login until an administrator approves it.
func TestRelyingPartyFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	provider, err := oidc.NewProvider(ctx, f.url)
	require.NoError(t, err)
	rp := oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  testRedirectURI,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	authURL := rp.AuthCodeURL("state-1", oidc.Nonce("nonce-1"))

	browser := f.browser(t)
	authorize := func() *url.URL {
		t.Helper()
		resp, err := browser.Get(authURL)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		return location
	}

	// unknown browser goes to login
	location := authorize()
	require.True(t, strings.HasPrefix(location.String(), f.url+"/login"))
	interactionUID := location.Query().Get("interaction")
	require.NotEmpty(t, interactionUID)

	// first login provisions a pending account and does not resume the request
	resp, body := f.do(t, browser, http.MethodPost, server.RouteAuthLogin, map[string]string{
		"identity":        testPublicKey,
		"displayNameHint": "alice",
		"interaction":     interactionUID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pending", body["status"])
	require.Empty(t, body["redirect"])
	accountID := body["accountId"].(string)

	// pending accounts are never sent to the relying party
	location = authorize()
	require.True(t, strings.HasPrefix(location.String(), f.url+"/login"))

	// an administrator approves with a wallet session
	admin := f.browser(t)
	f.login(t, admin, testAdminKey)
	resp, body = f.do(t, admin, http.MethodPost, server.RouteAdminDecisions, map[string]string{
		"accountId": accountID,
		"decision":  "approved",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "approved", body["status"])
	require.Equal(t, "wallet:"+testAdminKey, body["approvedBy"])

	// the same session now gets a code without logging in again
	location = authorize()
	require.Equal(t, testRedirectURI, location.Scheme+"://"+location.Host+location.Path)
	require.Equal(t, "state-1", location.Query().Get("state"))
	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	tok, err := rp.Exchange(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	rawIDToken, ok := tok.Extra("id_token").(string)
	require.True(t, ok)

	idToken, err := provider.Verifier(&oidc.Config{ClientID: testClientID}).Verify(ctx, rawIDToken)
	require.NoError(t, err)
	require.Equal(t, accountID, idToken.Subject)
	require.Equal(t, "nonce-1", idToken.Nonce)

	var idClaims map[string]any
	require.NoError(t, idToken.Claims(&idClaims))
	require.Equal(t, "alice", idClaims["name"])
	require.Equal(t, testPublicKey, idClaims["wallet_public_key"])

	userInfo, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	require.NoError(t, err)
	require.Equal(t, accountID, userInfo.Subject)

	// the code was single use
	_, err = rp.Exchange(ctx, code)
	require.Error(t, err)
	var retrieveErr *oauth2.RetrieveError
	require.ErrorAs(t, err, &retrieveErr)
	require.Equal(t, "invalid_grant", retrieveErr.ErrorCode)
}

func TestDiscoveryDocument(t *testing.T) {
	f := setupTestFixture(t)
	resp, body := f.do(t, f.browser(t), http.MethodGet, server.RouteWellKnownOpenIDConfig, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, f.url, body["issuer"])
	require.Equal(t, f.url+server.RouteToken, body["token_endpoint"])
	require.Equal(t, f.url+server.RouteJWKS, body["jwks_uri"])
	require.Equal(t, []any{"code"}, body["response_types_supported"])
	require.Equal(t, []any{"RS256"}, body["id_token_signing_alg_values_supported"])

	resp, body = f.do(t, f.browser(t), http.MethodGet, server.RouteJWKS, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["keys"], 1)
}

func TestAuthorize_InvalidRequests(t *testing.T) {
	f := setupTestFixture(t)
	client := f.browser(t)

	tests := []struct {
		name  string
		query url.Values
	}{
		{name: "missing client", query: url.Values{"redirect_uri": {testRedirectURI}, "response_type": {"code"}}},
		{name: "unknown client", query: url.Values{"client_id": {"c2"}, "redirect_uri": {testRedirectURI}, "response_type": {"code"}}},
		{name: "unregistered redirect", query: url.Values{"client_id": {testClientID}, "redirect_uri": {"https://evil/cb"}, "response_type": {"code"}}},
		{name: "trailing slash redirect", query: url.Values{"client_id": {testClientID}, "redirect_uri": {testRedirectURI + "/"}, "response_type": {"code"}}},
		{name: "implicit flow", query: url.Values{"client_id": {testClientID}, "redirect_uri": {testRedirectURI}, "response_type": {"token"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.do(t, client, http.MethodGet, server.RouteAuthorize+"?"+tc.query.Encode(), nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "invalid_request", body["error"])
			require.Empty(t, resp.Header.Get("Location"))
		})
	}
}

func TestToken_RedirectMismatchIsInvalidGrant(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.browser(t)
	f.approve(t, f.login(t, browser, testPublicKey))
	code := f.codeFor(t, browser)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {testClientID},
		"client_secret": {testClientSecret},
		"redirect_uri":  {testRedirectURI + "/"},
	}
	resp, err := http.PostForm(f.url+server.RouteToken, form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the mismatch burned the code
	form.Set("redirect_uri", testRedirectURI)
	req, err := http.NewRequest(http.MethodPost, f.url+server.RouteToken, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := f.send(t, http.DefaultClient, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_grant", body["error"])
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestToken_JSONBodyAndBasicAuth(t *testing.T) {
	f := setupTestFixture(t)
	browser := f.browser(t)
	f.approve(t, f.login(t, browser, testPublicKey))

	resp, body := f.do(t, http.DefaultClient, http.MethodPost, server.RouteToken, map[string]string{
		"grant_type":    "authorization_code",
		"code":          f.codeFor(t, browser),
		"client_id":     testClientID,
		"client_secret": testClientSecret,
		"redirect_uri":  testRedirectURI,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["id_token"])

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {f.codeFor(t, browser)},
		"redirect_uri": {testRedirectURI},
	}
	req, err := http.NewRequest(http.MethodPost, f.url+server.RouteToken, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(testClientID, "wrong")
	resp, body = f.send(t, http.DefaultClient, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_client", body["error"])

	req, err = http.NewRequest(http.MethodPost, f.url+server.RouteToken, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(testClientID, testClientSecret)
	resp, body = f.send(t, http.DefaultClient, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, "a failed client authentication leaves the code redeemable")

	req, err = http.NewRequest(http.MethodGet, f.url+server.RouteUserInfo, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+body["access_token"].(string))
	resp, claims := f.send(t, http.DefaultClient, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, testPublicKey, claims["wallet_public_key"])
}

func TestToken_UnsupportedGrant(t *testing.T) {
	f := setupTestFixture(t)
	resp, err := http.PostForm(f.url+server.RouteToken, url.Values{"grant_type": {"client_credentials"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestUserInfo_InvalidToken(t *testing.T) {
	f := setupTestFixture(t)
	req, err := http.NewRequest(http.MethodGet, f.url+server.RouteUserInfo, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, body := f.send(t, http.DefaultClient, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_token", body["error"])
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}
