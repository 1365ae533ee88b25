package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/admins"
	"github.com/jrsteele09/wallet-oidc-bridge/auth"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/config"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/telemetry"
	"github.com/jrsteele09/wallet-oidc-bridge/sessions"
	"github.com/jrsteele09/wallet-oidc-bridge/token"
)

// Services are the domain services the HTTP surface drives
type Services struct {
	Auth     *auth.AuthorizationService
	Sessions *sessions.Manager
	Accounts *accounts.Registry
	Admins   *admins.Service
	Issuer   *token.Issuer
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	services Services
	health   map[string]HealthCheck
}

// Option configures a Server
type Option func(*Server)

// WithHealthCheck adds a named dependency check to /healthz
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.health[name] = check
	}
}

func New(config config.Config, services Services, options ...Option) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if services.Auth == nil || services.Sessions == nil || services.Accounts == nil || services.Admins == nil || services.Issuer == nil {
		return nil, fmt.Errorf("[Server New] all services are required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		services: services,
		health:   make(map[string]HealthCheck),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.handler = telemetry.Middleware(config.GetServiceName())(s.mux)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Routes returns the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", methodColor(method).Sprintf(" %-7s", method), path)
}
