package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for the bridge. Every boundary maps a wrapped sentinel to a
// status code and an OAuth2 style error code.
var (
	// Request errors
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrInvalidGrant         = errors.New("invalid grant")

	// Authentication errors
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidToken           = errors.New("invalid token")
	ErrInvalidClient          = errors.New("invalid client")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrForbidden              = errors.New("forbidden")
	ErrPasswordChangeRequired = errors.New("password change required")

	// Lookup errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Upstream errors
	ErrVerificationTimeout = errors.New("identity verification timed out")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// General errors
	ErrInternal = errors.New("internal error")
)

type mapping struct {
	target error
	status int
	code   string
}

// Order matters: the first sentinel found in the chain wins.
var mappings = []mapping{
	{ErrUnsupportedGrantType, http.StatusBadRequest, "unsupported_grant_type"},
	{ErrInvalidGrant, http.StatusBadRequest, "invalid_grant"},
	{ErrInvalidIdentity, http.StatusBadRequest, "invalid_request"},
	{ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{ErrInvalidClient, http.StatusUnauthorized, "invalid_client"},
	{ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrPasswordChangeRequired, http.StatusForbidden, "password_change_required"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrVerificationTimeout, http.StatusGatewayTimeout, "temporarily_unavailable"},
	{ErrUpstreamUnavailable, http.StatusBadGateway, "temporarily_unavailable"},
	{ErrInternal, http.StatusInternalServerError, "server_error"},
}

// HTTPStatus returns the status code for err. Unknown errors are 500.
func HTTPStatus(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// OAuthCode returns the wire error code for err. Unknown errors are server_error.
func OAuthCode(err error) string {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.code
		}
	}
	return "server_error"
}

// IsInternal reports whether err does not map to a known sentinel
func IsInternal(err error) bool {
	return HTTPStatus(err) == http.StatusInternalServerError
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
