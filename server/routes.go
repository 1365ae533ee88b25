package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// OIDC
	s.RegisterRouteHandler("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.Login(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.Logout(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionStatus(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteInteraction, ChainMiddleware(s.InteractionDetails(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteInteractionByCode, ChainMiddleware(s.InteractionByUserCode(), s.BrowserMiddleware()...))

	// ADMIN
	s.RegisterRouteHandler("POST "+RouteAdminLogin, ChainMiddleware(s.AdminLogin(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminPassword, ChainMiddleware(s.AdminChangePassword(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminCheck, ChainMiddleware(s.AdminCheck(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminAccounts, ChainMiddleware(s.AdminListAccounts(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminDecisions, ChainMiddleware(s.AdminDecide(), s.BrowserMiddleware()...))

	// OPERATIONS
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.Healthz(), s.CorrelationMiddleware, s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.Healthz(), s.CorrelationMiddleware, s.RecoverMiddleware))
	if s.config.GetMetricsEnabled() {
		s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	}

	// CORS preflight for every route
	s.RegisterRouteHandler("OPTIONS /{path...}", ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
