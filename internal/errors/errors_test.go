package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid request", errors.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
		{"invalid identity", errors.ErrInvalidIdentity, http.StatusBadRequest, "invalid_request"},
		{"invalid grant", errors.ErrInvalidGrant, http.StatusBadRequest, "invalid_grant"},
		{"unsupported grant", errors.ErrUnsupportedGrantType, http.StatusBadRequest, "unsupported_grant_type"},
		{"unauthorized", errors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"invalid token", errors.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"invalid client", errors.ErrInvalidClient, http.StatusUnauthorized, "invalid_client"},
		{"forbidden", errors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", errors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"timeout", errors.ErrVerificationTimeout, http.StatusGatewayTimeout, "temporarily_unavailable"},
		{"upstream", errors.ErrUpstreamUnavailable, http.StatusBadGateway, "temporarily_unavailable"},
		{"internal", errors.ErrInternal, http.StatusInternalServerError, "server_error"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, errors.HTTPStatus(tt.err))
			require.Equal(t, tt.code, errors.OAuthCode(tt.err))
		})
	}
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := pkgerrors.Wrap(errors.ErrInvalidGrant, "[AuthorizationService.Token] consume code")
	require.Equal(t, http.StatusBadRequest, errors.HTTPStatus(err))
	require.Equal(t, "invalid_grant", errors.OAuthCode(err))

	err = errors.Wrapf(errors.ErrNotFound, "account %s", "abc")
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.False(t, errors.IsInternal(err))
	require.True(t, errors.IsInternal(pkgerrors.Wrap(errors.ErrInternal, "[Registry.Decide] update")))
	require.Nil(t, errors.Wrapf(nil, "nothing"))
}
