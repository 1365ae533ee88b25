package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/auth"
	"github.com/jrsteele09/wallet-oidc-bridge/identity"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

// loginRequest accepts both the documented field names and the ones the
// wallet login widget posts.
type loginRequest struct {
	Identity        string `json:"identity"`
	PublicKey       string `json:"publicKey"`
	DisplayNameHint string `json:"displayNameHint"`
	Username        string `json:"username"`
	Interaction     string `json:"interaction"`
}

func (lr loginRequest) assertion() identity.Assertion {
	key := lr.Identity
	if key == "" {
		key = lr.PublicKey
	}
	hint := lr.DisplayNameHint
	if hint == "" {
		hint = lr.Username
	}
	return identity.Assertion{PublicKey: key, DisplayNameHint: hint}
}

type loginResponse struct {
	Status    accounts.Status `json:"status"`
	AccountID string          `json:"accountId"`
	Redirect  string          `json:"redirect,omitempty"`
}

type sessionResponse struct {
	LoggedIn    bool            `json:"loggedIn"`
	AccountID   string          `json:"accountId,omitempty"`
	PublicKey   string          `json:"publicKey,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Email       string          `json:"email,omitempty"`
	Status      accounts.Status `json:"status,omitempty"`
	IsAdmin     bool            `json:"isAdmin,omitempty"`
}

type interactionResponse struct {
	UID         string    `json:"uid"`
	UserCode    string    `json:"userCode"`
	ClientID    string    `json:"clientId"`
	RedirectURI string    `json:"redirectUri"`
	Scope       string    `json:"scope,omitempty"`
	AccountID   string    `json:"accountId,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func newInteractionResponse(i *auth.Interaction) interactionResponse {
	return interactionResponse{
		UID:         i.UID,
		UserCode:    i.UserCode,
		ClientID:    i.Params.ClientID,
		RedirectURI: i.Params.RedirectURI,
		Scope:       i.Params.Scope,
		AccountID:   i.AccountID,
		ExpiresAt:   i.ExpiresAt,
	}
}

func readLoginRequest(req *oauthmodel.ProtocolRequest) (loginRequest, error) {
	var lr loginRequest
	if req.IsJSON() {
		err := req.DecodeJSON(&lr)
		return lr, err
	}
	lr.Identity = req.Form.Get("identity")
	lr.PublicKey = req.Form.Get("publicKey")
	lr.DisplayNameHint = req.Form.Get("displayNameHint")
	lr.Username = req.Form.Get("username")
	lr.Interaction = req.Form.Get("interaction")
	return lr, nil
}

// Login establishes a wallet session and provisions the account on first
// sight. An approved account with a pending interaction is sent back to
// /authorize; anyone else waits for approval.
func (s *Server) Login() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		lr, err := readLoginRequest(req)
		if err != nil {
			return nil, err
		}

		session, account, err := s.services.Sessions.Login(ctx, lr.assertion())
		if err != nil {
			metrics.IncLogin(loginResult(err))
			return nil, err
		}
		metrics.IncLogin("ok")

		if previous := req.Cookie(sessionCookieName); previous != "" && previous != session.Token {
			if err := s.services.Sessions.Destroy(ctx, previous); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to drop previous session")
			}
		}

		body := loginResponse{Status: account.Status, AccountID: account.ID}
		if lr.Interaction != "" && account.IsApproved() {
			location, err := s.services.Auth.ResumeInteraction(ctx, lr.Interaction)
			switch {
			case err == nil:
				body.Redirect = location
			case bridgeerrors.Is(err, bridgeerrors.ErrNotFound):
				zerolog.Ctx(ctx).Debug().Str("interaction", lr.Interaction).Msg("interaction gone, nothing to resume")
			default:
				return nil, err
			}
		}

		cookie := s.sessionCookie(req.Secure, session.Token)
		if body.Redirect != "" && !req.IsJSON() {
			return oauthmodel.RedirectResponse(body.Redirect).WithCookie(cookie), nil
		}
		return oauthmodel.JSONResponse(http.StatusOK, body).WithCookie(cookie), nil
	})
}

func loginResult(err error) string {
	switch {
	case bridgeerrors.Is(err, bridgeerrors.ErrInvalidIdentity):
		return "invalid_identity"
	case bridgeerrors.Is(err, bridgeerrors.ErrVerificationTimeout):
		return "timeout"
	case bridgeerrors.Is(err, bridgeerrors.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	}
	return "error"
}

// Logout ends the wallet session and drops pending interactions. Always 200.
func (s *Server) Logout() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		if err := s.services.Auth.Logout(ctx, req.Cookie(sessionCookieName), req.Cookie(flowCookieName)); err != nil {
			return nil, errors.Wrap(err, "[Server Logout]")
		}
		return oauthmodel.JSONResponse(http.StatusOK, map[string]bool{"success": true}).
			WithCookie(s.expiredCookie(req.Secure, sessionCookieName)).
			WithCookie(s.expiredCookie(req.Secure, flowCookieName)), nil
	})
}

// SessionStatus lets the login page poll for approval
func (s *Server) SessionStatus() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		account, err := s.services.Sessions.Resolve(ctx, req.Cookie(sessionCookieName))
		if err != nil {
			return nil, errors.Wrap(err, "[Server SessionStatus]")
		}
		if account == nil {
			return oauthmodel.JSONResponse(http.StatusOK, sessionResponse{}), nil
		}
		return oauthmodel.JSONResponse(http.StatusOK, sessionResponse{
			LoggedIn:    true,
			AccountID:   account.ID,
			PublicKey:   account.PublicKey,
			DisplayName: account.DisplayName,
			Email:       account.Email,
			Status:      account.Status,
			IsAdmin:     s.services.Admins.IsWalletAdmin(account.PublicKey),
		}).WithHeader("Cache-Control", "no-store"), nil
	})
}

// InteractionDetails describes a pending authorization request to the login page
func (s *Server) InteractionDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")
		s.serveProtocol(w, r, func(ctx context.Context, _ *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
			interaction, err := s.services.Auth.Interaction(ctx, uid)
			if err != nil {
				return nil, err
			}
			return oauthmodel.JSONResponse(http.StatusOK, newInteractionResponse(interaction)), nil
		})
	}
}

// InteractionByUserCode finds a pending request by the code shown to the user
func (s *Server) InteractionByUserCode() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		userCode := strings.TrimSpace(req.Form.Get("user_code"))
		if userCode == "" {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "user_code is required")
		}
		interaction, err := s.services.Auth.InteractionByUserCode(ctx, userCode)
		if err != nil {
			return nil, err
		}
		return oauthmodel.JSONResponse(http.StatusOK, newInteractionResponse(interaction)), nil
	})
}
