package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/admins"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminPasswordRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type adminResponse struct {
	Username               string `json:"username"`
	PasswordChangeRequired bool   `json:"passwordChangeRequired"`
}

type decisionRequest struct {
	AccountID string            `json:"accountId"`
	Decision  accounts.Decision `json:"decision"`
	// Actor is informational; the authenticated actor is what gets recorded
	Actor string `json:"actor"`
}

type accountsResponse struct {
	Accounts []*accounts.Account `json:"accounts"`
}

// readBody decodes JSON bodies and falls back to form fields
func readBody(req *oauthmodel.ProtocolRequest, v any, fromForm func()) error {
	if req.IsJSON() {
		return req.DecodeJSON(v)
	}
	fromForm()
	return nil
}

// actor resolves the caller of an admin endpoint: the admin cookie first,
// then a wallet session whose key is configured as an administrator.
func (s *Server) actor(ctx context.Context, req *oauthmodel.ProtocolRequest) (*admins.Actor, error) {
	if raw := req.Cookie(adminCookieName); raw != "" {
		return s.services.Admins.ParseToken(raw)
	}

	account, err := s.services.Sessions.Resolve(ctx, req.Cookie(sessionCookieName))
	if err != nil {
		return nil, errors.Wrap(err, "[Server actor] Resolve")
	}
	if account == nil {
		return nil, errors.Wrap(bridgeerrors.ErrUnauthorized, "admin credentials required")
	}
	return s.services.Admins.WalletActor(account.PublicKey)
}

// AdminLogin checks an admin password and sets the admin cookie
func (s *Server) AdminLogin() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		var body adminLoginRequest
		if err := readBody(req, &body, func() {
			body.Username = req.Form.Get("username")
			body.Password = req.Form.Get("password")
		}); err != nil {
			return nil, err
		}
		if strings.TrimSpace(body.Username) == "" || body.Password == "" {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "username and password are required")
		}

		admin, err := s.services.Admins.Authenticate(ctx, body.Username, body.Password)
		if err != nil {
			return nil, err
		}
		return s.adminSession(req, admin)
	})
}

// AdminChangePassword rotates an admin password and reissues the cookie
func (s *Server) AdminChangePassword() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		var body adminPasswordRequest
		if err := readBody(req, &body, func() {
			body.Username = req.Form.Get("username")
			body.CurrentPassword = req.Form.Get("currentPassword")
			body.NewPassword = req.Form.Get("newPassword")
		}); err != nil {
			return nil, err
		}
		if strings.TrimSpace(body.Username) == "" || body.CurrentPassword == "" || body.NewPassword == "" {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "username, currentPassword and newPassword are required")
		}

		admin, err := s.services.Admins.ChangePassword(ctx, body.Username, body.CurrentPassword, body.NewPassword)
		if err != nil {
			return nil, err
		}
		return s.adminSession(req, admin)
	})
}

func (s *Server) adminSession(req *oauthmodel.ProtocolRequest, admin *admins.AdminUser) (*oauthmodel.ProtocolResponse, error) {
	token, err := s.services.Admins.IssueToken(admin)
	if err != nil {
		return nil, errors.Wrap(err, "[Server adminSession] IssueToken")
	}
	return oauthmodel.JSONResponse(http.StatusOK, adminResponse{
		Username:               admin.Username,
		PasswordChangeRequired: admin.PasswordChangeRequired,
	}).WithCookie(s.adminCookie(req.Secure, token)).WithHeader("Cache-Control", "no-store"), nil
}

// AdminCheck reports whether a wallet key is an administrator. Without a
// publicKey parameter the current wallet session is checked.
func (s *Server) AdminCheck() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		publicKey := strings.TrimSpace(req.Form.Get("publicKey"))
		if publicKey == "" {
			account, err := s.services.Sessions.Resolve(ctx, req.Cookie(sessionCookieName))
			if err != nil {
				return nil, errors.Wrap(err, "[Server AdminCheck] Resolve")
			}
			if account == nil {
				return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "publicKey is required")
			}
			publicKey = account.PublicKey
		}
		return oauthmodel.JSONResponse(http.StatusOK, map[string]any{
			"publicKey": publicKey,
			"isAdmin":   s.services.Admins.IsWalletAdmin(publicKey),
		}), nil
	})
}

// AdminListAccounts lists accounts, optionally filtered by ?status=
func (s *Server) AdminListAccounts() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		if _, err := s.actor(ctx, req); err != nil {
			return nil, err
		}
		list, err := s.services.Accounts.List(ctx, accounts.Status(req.Form.Get("status")))
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []*accounts.Account{}
		}
		return oauthmodel.JSONResponse(http.StatusOK, accountsResponse{Accounts: list}).
			WithHeader("Cache-Control", "no-store"), nil
	})
}

// AdminDecide approves or rejects an account
func (s *Server) AdminDecide() http.HandlerFunc {
	return s.protocol(func(ctx context.Context, req *oauthmodel.ProtocolRequest) (*oauthmodel.ProtocolResponse, error) {
		actor, err := s.actor(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := admins.RequireDecisionRights(actor); err != nil {
			return nil, err
		}

		var body decisionRequest
		if err := readBody(req, &body, func() {
			body.AccountID = req.Form.Get("accountId")
			body.Decision = accounts.Decision(req.Form.Get("decision"))
			body.Actor = req.Form.Get("actor")
		}); err != nil {
			return nil, err
		}
		if strings.TrimSpace(body.AccountID) == "" {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "accountId is required")
		}
		if body.Actor != "" && body.Actor != actor.Name {
			zerolog.Ctx(ctx).Debug().Str("claimed_actor", body.Actor).Str("actor", actor.Name).Msg("ignoring claimed actor")
		}

		account, err := s.services.Accounts.Decide(ctx, body.AccountID, body.Decision, actor.Name)
		if err != nil {
			return nil, err
		}
		metrics.IncDecision(string(body.Decision))
		return oauthmodel.JSONResponse(http.StatusOK, account), nil
	})
}
