package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

const contentTypeJSON = "application/json; charset=utf-8"

// protocolHandler is a transport-neutral handler: it sees a fully mapped
// request and returns a response description instead of writing to the wire.
type protocolHandler func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error)

// serveProtocol adapts a protocolHandler onto net/http
func (s *Server) serveProtocol(w http.ResponseWriter, r *http.Request, handler protocolHandler) {
	req, err := oauthmodel.NewProtocolRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := handler(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := resp.Write(w, r); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

// protocol wraps a protocolHandler as an http.HandlerFunc
func (s *Server) protocol(handler protocolHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveProtocol(w, r, handler)
	}
}

// writeError maps err onto its status and wire code. Unmapped errors are
// logged with the correlation id and reported generically. Error bodies are
// never cached.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := bridgeerrors.HTTPStatus(err)
	body := oauthmodel.ErrorResponse{
		Error:         bridgeerrors.OAuthCode(err),
		CorrelationID: correlationID(r.Context()),
	}

	logger := zerolog.Ctx(r.Context())
	if bridgeerrors.IsInternal(err) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg(errorColor.Sprint("internal error"))
		body.ErrorDescription = bridgeerrors.ErrInternal.Error()
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
		body.ErrorDescription = describe(err)
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	if status == http.StatusUnauthorized && bridgeerrors.Is(err, bridgeerrors.ErrInvalidToken) {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	writeJSON(w, status, body)
}

// describe returns the sentinel's text, never the wrapped detail chain
func describe(err error) string {
	for _, sentinel := range []error{
		bridgeerrors.ErrUnsupportedGrantType,
		bridgeerrors.ErrInvalidGrant,
		bridgeerrors.ErrInvalidIdentity,
		bridgeerrors.ErrInvalidRequest,
		bridgeerrors.ErrInvalidClient,
		bridgeerrors.ErrInvalidToken,
		bridgeerrors.ErrInvalidCredentials,
		bridgeerrors.ErrUnauthorized,
		bridgeerrors.ErrPasswordChangeRequired,
		bridgeerrors.ErrForbidden,
		bridgeerrors.ErrNotFound,
		bridgeerrors.ErrConflict,
		bridgeerrors.ErrVerificationTimeout,
		bridgeerrors.ErrUpstreamUnavailable,
	} {
		if bridgeerrors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
