package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OIDC Routes
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteJWKS                  = "/jwks"
	RouteAuthorize             = "/authorize"
	RouteToken                 = "/token"
	RouteUserInfo              = "/userinfo"

	// Wallet session Routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthSession = "/auth/session"

	// Pending authorization requests
	RouteInteraction       = "/interaction/{uid}"
	RouteInteractionByCode = "/interaction"

	// Admin Routes
	RouteAdminLogin     = "/admin/login"
	RouteAdminPassword  = "/admin/password"
	RouteAdminCheck     = "/admin/check"
	RouteAdminAccounts  = "/admin/accounts"
	RouteAdminDecisions = "/admin/decisions"

	// Operational Routes
	RouteHealthz = "/healthz"
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
