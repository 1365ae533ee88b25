package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/admins"
	"github.com/jrsteele09/wallet-oidc-bridge/auth"
	"github.com/jrsteele09/wallet-oidc-bridge/clients"
	"github.com/jrsteele09/wallet-oidc-bridge/credentials"
	"github.com/jrsteele09/wallet-oidc-bridge/identity"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/cache"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/config"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/database"
	"github.com/jrsteele09/wallet-oidc-bridge/protocolsession"
	"github.com/jrsteele09/wallet-oidc-bridge/server"
	"github.com/jrsteele09/wallet-oidc-bridge/sessions"
	"github.com/jrsteele09/wallet-oidc-bridge/token"
)

// storage is the set of repositories picked by the storage and cache drivers
type storage struct {
	accounts     accounts.Repo
	sessions     sessions.Repo
	admins       admins.Repo
	interactions protocolsession.Adapter
	credentials  credentials.Store

	pool    *pgxpool.Pool
	redis   *redis.Client
	options []server.Option
}

func (s *storage) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis client")
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// openPostgres connects and migrates
func openPostgres(ctx context.Context, c config.Config) (*pgxpool.Pool, error) {
	if c.GetDatabaseURL() == "" {
		return nil, errors.New("storage.database_url is required for the postgres driver")
	}
	pool, err := database.Open(ctx, c.GetDatabaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "database.Open")
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "database.Migrate")
	}
	return pool, nil
}

func openStorage(ctx context.Context, c config.Config) (*storage, error) {
	s := &storage{}

	switch c.GetStorageDriver() {
	case config.DriverMemory:
		s.accounts = accounts.NewInMemoryRepo()
		s.sessions = sessions.NewInMemoryRepo()
		s.admins = admins.NewInMemoryRepo()
		s.interactions = protocolsession.NewMemoryAdapter()
		log.Warn().Msg("memory storage: accounts and sessions are lost on restart")
	case config.DriverPostgres:
		pool, err := openPostgres(ctx, c)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.accounts = accounts.NewPostgresRepo(pool)
		s.sessions = sessions.NewPostgresRepo(pool)
		s.admins = admins.NewPostgresRepo(pool)
		s.interactions = protocolsession.NewPostgresAdapter(pool)
		s.options = append(s.options, server.WithHealthCheck("postgres", func(ctx context.Context) error {
			return database.Ping(ctx, pool)
		}))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.GetStorageDriver())
	}

	credentialOptions := []credentials.Option{
		credentials.WithCodeTTL(c.GetAuthCodeTimeout()),
		credentials.WithAccessTokenTTL(c.GetDefaultAccessTokenExpiry()),
	}
	switch c.GetCacheDriver() {
	case config.DriverMemory:
		s.credentials = credentials.NewMemoryStore(credentialOptions...)
	case config.DriverRedis:
		client, err := cache.NewRedis(ctx, c.GetRedisURL())
		if err != nil {
			s.Close()
			return nil, errors.Wrap(err, "cache.NewRedis")
		}
		s.redis = client
		s.credentials = credentials.NewRedisStore(client, credentialOptions...)
		s.options = append(s.options, server.WithHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	default:
		s.Close()
		return nil, fmt.Errorf("unknown cache driver %q", c.GetCacheDriver())
	}

	log.Info().Str("storage", c.GetStorageDriver()).Str("cache", c.GetCacheDriver()).Msg("storage ready")
	return s, nil
}

func newVerifier(c config.Config) identity.Verifier {
	var options []identity.FormatVerifierOption
	if c.GetStrictKeyValidation() {
		options = append(options, identity.WithChecksum(identity.MainnetNetworkPrefix))
	}
	return identity.NewTimeoutVerifier(identity.NewFormatVerifier(options...), c.GetVerifierTimeout())
}

func newIssuer(c config.Config) (*token.Issuer, error) {
	options := []token.IssuerOption{
		token.WithKeyID(c.GetSigningKeyID()),
		token.WithTTL(c.GetDefaultIDTokenExpiry()),
	}
	if c.GetSigningKeyFile() != "" {
		options = append(options, token.WithKeyFile(c.GetSigningKeyFile()))
	}
	issuer, err := token.NewIssuer(c.GetIssuer(), options...)
	if err != nil {
		return nil, err
	}
	if err := issuer.Init(); err != nil {
		return nil, err
	}
	return issuer, nil
}

// buildServices wires the domain services over st and provisions the
// bootstrap admin
func buildServices(ctx context.Context, c config.Config, st *storage) (server.Services, error) {
	registry, err := accounts.NewRegistry(st.accounts)
	if err != nil {
		return server.Services{}, err
	}

	manager, err := sessions.NewManager(st.sessions, registry, newVerifier(c),
		sessions.WithTTL(c.GetMaxSessionAge()),
		sessions.WithProfileSource(identity.StaticProfileSource{}),
	)
	if err != nil {
		return server.Services{}, err
	}

	issuer, err := newIssuer(c)
	if err != nil {
		return server.Services{}, errors.Wrap(err, "token issuer")
	}

	client, err := clients.New(c.GetClientID(), c.GetClientSecret(), c.GetRedirectURIs(), c.GetRequireClientSecret())
	if err != nil {
		return server.Services{}, err
	}

	authService, err := auth.NewAuthorizationService(auth.Repos{
		Sessions:     manager,
		Credentials:  st.credentials,
		Interactions: st.interactions,
	}, issuer, client,
		auth.WithInteractionTTL(c.GetInteractionTimeout()),
		auth.WithAccessTokenTTL(c.GetDefaultAccessTokenExpiry()),
	)
	if err != nil {
		return server.Services{}, err
	}

	adminService, err := admins.NewService(st.admins, c.GetSessionSecret(),
		admins.WithTokenTTL(c.GetAdminTokenExpiry()),
		admins.WithAdminPublicKeys(c.GetAdminPublicKeys()),
	)
	if err != nil {
		return server.Services{}, err
	}
	if _, err := adminService.Bootstrap(ctx, c.GetAdminUsername(), c.GetAdminPassword()); err != nil {
		return server.Services{}, errors.Wrap(err, "admin bootstrap")
	}

	return server.Services{
		Auth:     authService,
		Sessions: manager,
		Accounts: registry,
		Admins:   adminService,
		Issuer:   issuer,
	}, nil
}
