package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/clients"
	"github.com/jrsteele09/wallet-oidc-bridge/credentials"
	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
	"github.com/jrsteele09/wallet-oidc-bridge/protocolsession"
)

// AuthorizationRedirect delivers an issued code to the relying party.
//
// Parameters:
//   - redirectURI: the registered URI from the authorization request
//   - authorizationCode: the freshly issued one-time code
//   - state: echoed back unchanged so the client can match its request
type AuthorizationRedirect func(redirectURI, authorizationCode, state string)

// LoginRedirect sends the browser to the login page for a parked interaction
type LoginRedirect func(interactionUID string)

const (
	bearerTokenType = "Bearer"
	authorizePath   = "/authorize"

	defaultInteractionTTL = 10 * time.Minute
)

// SessionResolver maps a browser session token to its account, re-reading
// the account's current approval status.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*accounts.Account, error)
	Destroy(ctx context.Context, token string) error
}

// IdentityTokenIssuer signs identity tokens
type IdentityTokenIssuer interface {
	IssueIdentityToken(claims accounts.Claims, audience, nonce string) (string, error)
}

// Repos holds the stores the AuthorizationService orchestrates
type Repos struct {
	Sessions     SessionResolver         // Browser sessions
	Credentials  credentials.Store       // Codes and access tokens
	Interactions protocolsession.Adapter // Parked authorization requests
}

// BrowserContext is what the caller's browser presents on /authorize
type BrowserContext struct {
	SessionToken string
	// FlowID groups every interaction started by one browser
	FlowID string
}

// AuthorizationService drives authorize, token and userinfo.
type AuthorizationService struct {
	repos          Repos
	tokenIssuer    IdentityTokenIssuer
	client         *clients.Client
	interactionTTL time.Duration
	expiresIn      time.Duration
	nowTime        func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithInteractionTTL sets how long a parked authorization request survives
func WithInteractionTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if ttl > 0 {
			as.interactionTTL = ttl
		}
	}
}

// WithAccessTokenTTL sets the expires_in reported by the token endpoint. It
// must match the TTL the credential store applies.
func WithAccessTokenTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if ttl > 0 {
			as.expiresIn = ttl
		}
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(
	repos Repos,
	tokenIssuer IdentityTokenIssuer,
	client *clients.Client,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions is required")
	}
	if repos.Credentials == nil {
		return nil, errors.New("[NewAuthorizationService] Credentials store is required")
	}
	if repos.Interactions == nil {
		return nil, errors.New("[NewAuthorizationService] Interactions adapter is required")
	}
	if tokenIssuer == nil {
		return nil, errors.New("[NewAuthorizationService] tokenIssuer is required")
	}
	if client == nil {
		return nil, errors.New("[NewAuthorizationService] client is required")
	}

	authService := &AuthorizationService{
		repos:          repos,
		tokenIssuer:    tokenIssuer,
		client:         client,
		interactionTTL: defaultInteractionTTL,
		expiresIn:      credentials.DefaultAccessTokenTTL,
		nowTime:        time.Now,
	}
	for _, opt := range options {
		opt(authService)
	}
	return authService, nil
}

// Authorize starts or resumes the code flow. Approved accounts with a live
// session get a code straight away; anyone else is parked in an interaction
// and sent to login. Approval is read fresh on every call.
func (as *AuthorizationService) Authorize(
	ctx context.Context,
	parameters *oauthmodel.AuthorizationParameters,
	browser BrowserContext,
	loginRedirect LoginRedirect,
	oauthRedirect AuthorizationRedirect,
) error {
	if err := parameters.Validate(); err != nil {
		return errors.Wrap(err, "[Authorize] failed parameter validation")
	}
	if parameters.ClientID != as.client.ID {
		return errors.Wrapf(bridgeerrors.ErrInvalidRequest, "[Authorize] unknown client_id %q", parameters.ClientID)
	}
	if !as.client.AllowsRedirect(parameters.RedirectURI) {
		return errors.Wrapf(bridgeerrors.ErrInvalidRequest, "[Authorize] unregistered redirect_uri %q", parameters.RedirectURI)
	}

	account, err := as.repos.Sessions.Resolve(ctx, browser.SessionToken)
	if err != nil {
		return errors.Wrap(err, "[Authorize] Sessions.Resolve")
	}

	if account.IsApproved() {
		code, err := as.repos.Credentials.IssueCode(ctx, credentials.CodeGrant{
			Claims:      account.Claims(),
			ClientID:    parameters.ClientID,
			RedirectURI: parameters.RedirectURI,
			Scope:       parameters.Scope,
			Nonce:       parameters.Nonce,
		})
		if err != nil {
			return errors.Wrap(err, "[Authorize] IssueCode")
		}
		metrics.IncCodeIssued()
		log.Info().Str("account_id", account.ID).Str("client_id", parameters.ClientID).Msg("authorization code issued")
		oauthRedirect(parameters.RedirectURI, code, parameters.State)
		return nil
	}

	interaction, err := as.parkInteraction(ctx, parameters, account, browser.FlowID)
	if err != nil {
		return errors.Wrap(err, "[Authorize] parkInteraction")
	}
	loginRedirect(interaction.UID)
	return nil
}

func (as *AuthorizationService) parkInteraction(
	ctx context.Context,
	parameters *oauthmodel.AuthorizationParameters,
	account *accounts.Account,
	flowID string,
) (*Interaction, error) {
	userCode, err := newUserCode()
	if err != nil {
		return nil, err
	}

	now := as.nowTime().UTC()
	interaction := &Interaction{
		UID:       uuid.New().String(),
		UserCode:  userCode,
		Params:    *parameters,
		CreatedAt: now,
		ExpiresAt: now.Add(as.interactionTTL),
	}
	if account != nil {
		interaction.AccountID = account.ID
	}

	payload, err := interaction.encode()
	if err != nil {
		return nil, err
	}
	if err := as.repos.Interactions.Upsert(ctx, &protocolsession.Record{
		Kind:      protocolsession.KindInteraction,
		UID:       interaction.UID,
		GrantID:   flowID,
		Payload:   payload,
		ExpiresAt: interaction.ExpiresAt,
	}); err != nil {
		return nil, err
	}

	event := log.Debug().Str("interaction", interaction.UID)
	if account != nil {
		event = log.Info().Str("interaction", interaction.UID).Str("account_id", account.ID).Str("status", string(account.Status))
	}
	event.Msg("authorization request awaiting login or approval")
	return interaction, nil
}

// Interaction returns a live, unconsumed interaction
func (as *AuthorizationService) Interaction(ctx context.Context, uid string) (*Interaction, error) {
	record, err := as.repos.Interactions.Find(ctx, protocolsession.KindInteraction, uid)
	if err != nil {
		return nil, errors.Wrap(err, "[Interaction] Find")
	}
	if record == nil || record.Consumed() {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "interaction")
	}
	return decodeInteraction(record.Payload)
}

// InteractionByUserCode finds a live interaction by its short user code
func (as *AuthorizationService) InteractionByUserCode(ctx context.Context, userCode string) (*Interaction, error) {
	userCode = strings.ToUpper(strings.TrimSpace(userCode))
	if len(userCode) != userCodeLength {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "interaction")
	}
	record, err := as.repos.Interactions.FindByUserCode(ctx, protocolsession.KindInteraction, userCodeFragment(userCode))
	if err != nil {
		return nil, errors.Wrap(err, "[InteractionByUserCode] FindByUserCode")
	}
	if record == nil || record.Consumed() {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "interaction")
	}
	interaction, err := decodeInteraction(record.Payload)
	if err != nil {
		return nil, err
	}
	if interaction.UserCode != userCode {
		return nil, errors.Wrap(bridgeerrors.ErrNotFound, "interaction")
	}
	return interaction, nil
}

// ResumeInteraction consumes the interaction and returns the authorize URL
// (path and query) to replay now that the browser has logged in.
func (as *AuthorizationService) ResumeInteraction(ctx context.Context, uid string) (string, error) {
	// consume first: only the caller that flips the record may replay it
	if err := as.repos.Interactions.Consume(ctx, protocolsession.KindInteraction, uid); err != nil {
		return "", errors.Wrap(err, "[ResumeInteraction] Consume")
	}
	record, err := as.repos.Interactions.Find(ctx, protocolsession.KindInteraction, uid)
	if err != nil {
		return "", errors.Wrap(err, "[ResumeInteraction] Find")
	}
	if record == nil {
		return "", errors.Wrap(bridgeerrors.ErrNotFound, "interaction")
	}
	interaction, err := decodeInteraction(record.Payload)
	if err != nil {
		return "", err
	}
	return authorizePath + "?" + interaction.Params.Values().Encode(), nil
}

// Token exchanges an authorization code. The code is consumed before any
// check, so a replayed or mismatched code is gone for good.
func (as *AuthorizationService) Token(ctx context.Context, request oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	if request.GrantType != oauthmodel.AuthorizationCodeGrant {
		return nil, errors.Wrapf(bridgeerrors.ErrUnsupportedGrantType, "[Token] grant_type %q", request.GrantType)
	}
	if request.Code == "" {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "[Token] code is required")
	}
	if err := as.client.Authenticate(request.ClientID, request.ClientSecret); err != nil {
		return nil, errors.Wrap(err, "[Token]")
	}

	payload, err := as.repos.Credentials.ConsumeCode(ctx, request.Code)
	if err != nil {
		return nil, errors.Wrap(err, "[Token] ConsumeCode")
	}
	if payload == nil {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidGrant, "[Token] code unknown, expired or used")
	}
	if payload.ClientID != request.ClientID || payload.RedirectURI != request.RedirectURI {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidGrant, "[Token] client_id or redirect_uri mismatch")
	}

	accessToken, err := as.repos.Credentials.IssueAccessToken(ctx, credentials.TokenGrant{
		Claims:   payload.Claims,
		ClientID: payload.ClientID,
		Scope:    payload.Scope,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Token] IssueAccessToken")
	}

	idToken, err := as.tokenIssuer.IssueIdentityToken(payload.Claims, payload.ClientID, payload.Nonce)
	if err != nil {
		return nil, errors.Wrap(err, "[Token] IssueIdentityToken")
	}

	log.Info().Str("account_id", payload.Claims.Subject()).Str("client_id", payload.ClientID).Msg("tokens issued")
	return &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   bearerTokenType,
		ExpiresIn:   int(as.expiresIn.Seconds()),
		IDToken:     idToken,
		Scope:       payload.Scope,
	}, nil
}

// UserInfo returns the claims snapshot behind a bearer token, verbatim
func (as *AuthorizationService) UserInfo(ctx context.Context, accessToken string) (accounts.Claims, error) {
	if accessToken == "" {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidToken, "[UserInfo] bearer token required")
	}
	payload, err := as.repos.Credentials.ReadAccessToken(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[UserInfo] ReadAccessToken")
	}
	if payload == nil {
		return nil, errors.Wrap(bridgeerrors.ErrInvalidToken, "[UserInfo] token unknown or expired")
	}
	return payload.Claims, nil
}

// Logout ends the browser session and drops every interaction the browser
// parked. Repeated or stale logouts succeed.
func (as *AuthorizationService) Logout(ctx context.Context, sessionToken, flowID string) error {
	if err := as.repos.Sessions.Destroy(ctx, sessionToken); err != nil {
		return errors.Wrap(err, "[Logout] Sessions.Destroy")
	}
	if err := as.repos.Interactions.RevokeByGrantID(ctx, flowID); err != nil {
		return errors.Wrap(err, "[Logout] RevokeByGrantID")
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerTokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

// CodeRedirectURL builds redirectURI?code=...&state=..., preserving any
// query the registered URI already carries.
func CodeRedirectURL(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", errors.Wrap(bridgeerrors.ErrInvalidRequest, "redirect_uri is not a URL")
	}
	query := u.Query()
	query.Set("code", code)
	if state != "" {
		query.Set("state", state)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
