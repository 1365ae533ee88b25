package oauthmodel_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

func TestAuthorizationParameters_Validate(t *testing.T) {
	valid := oauthmodel.AuthorizationParameters{
		ClientID:     "c1",
		RedirectURI:  "https://rp/cb",
		ResponseType: oauthmodel.CodeResponseType,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *oauthmodel.AuthorizationParameters)
	}{
		{"missing client", func(p *oauthmodel.AuthorizationParameters) { p.ClientID = "" }},
		{"missing redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = " " }},
		{"token response type", func(p *oauthmodel.AuthorizationParameters) { p.ResponseType = "token" }},
		{"empty response type", func(p *oauthmodel.AuthorizationParameters) { p.ResponseType = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			require.True(t, errors.Is(p.Validate(), errors.ErrInvalidRequest))
		})
	}
}

func TestAuthorizationParameters_ValuesRoundTrip(t *testing.T) {
	query := url.Values{
		"client_id":     {"c1"},
		"redirect_uri":  {"https://rp/cb"},
		"response_type": {"code"},
		"scope":         {"openid profile"},
		"state":         {"xyz"},
	}
	params := oauthmodel.ParseAuthorizationParameters(query)
	require.Equal(t, query, params.Values())
}

func TestParseTokenRequest_BasicWins(t *testing.T) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"abc"},
		"client_id":     {"form-client"},
		"client_secret": {"form-secret"},
		"redirect_uri":  {"https://rp/cb"},
	}
	req := oauthmodel.ParseTokenRequest(form, "", "", false)
	require.Equal(t, oauthmodel.AuthorizationCodeGrant, req.GrantType)
	require.Equal(t, "form-client", req.ClientID)
	require.Equal(t, "form-secret", req.ClientSecret)

	req = oauthmodel.ParseTokenRequest(form, "basic%20client", "s%3Acret", true)
	require.Equal(t, "basic client", req.ClientID)
	require.Equal(t, "s:cret", req.ClientSecret)
}

func TestNewProtocolRequest_TotalMapping(t *testing.T) {
	body := "grant_type=authorization_code&code=abc"
	r := httptest.NewRequest(http.MethodPost, "/token?client_id=c1&code=ignored", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.SetBasicAuth("c1", "secret")
	r.AddCookie(&http.Cookie{Name: "session", Value: "tok"})

	req, err := oauthmodel.NewProtocolRequest(r)
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/token", req.URL.Path)
	require.Equal(t, "abc", req.Form.Get("code"))
	require.Equal(t, "c1", req.Form.Get("client_id"))
	require.Equal(t, "authorization_code", req.Form.Get("grant_type"))
	require.Equal(t, body, string(req.Body))
	require.Equal(t, "tok", req.Cookie("session"))
	require.Equal(t, "", req.Cookie("missing"))

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "c1", user)
	require.Equal(t, "secret", pass)
}

func TestNewProtocolRequest_JSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identity":"BC1YL"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	req, err := oauthmodel.NewProtocolRequest(r)
	require.NoError(t, err)
	require.True(t, req.IsJSON())

	var payload struct {
		Identity string `json:"identity"`
	}
	require.NoError(t, req.DecodeJSON(&payload))
	require.Equal(t, "BC1YL", payload.Identity)

	req.Body = []byte("{")
	require.True(t, errors.Is(req.DecodeJSON(&payload), errors.ErrInvalidRequest))
}

func TestNewProtocolRequest_BodyTooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(strings.Repeat("a", 1<<20+1)))
	_, err := oauthmodel.NewProtocolRequest(r)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestProtocolResponse_Write(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	resp := oauthmodel.JSONResponse(http.StatusCreated, map[string]string{"status": "pending"}).
		WithHeader("Cache-Control", "no-store").
		WithCookie(&http.Cookie{Name: "session", Value: "tok"})
	require.NoError(t, resp.Write(rec, r))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Contains(t, rec.Header().Get("Set-Cookie"), "session=tok")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "pending", body["status"])

	rec = httptest.NewRecorder()
	require.NoError(t, oauthmodel.RedirectResponse("https://rp/cb?code=x").Write(rec, r))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://rp/cb?code=x", rec.Header().Get("Location"))
}
