// Package app is the central wiring point for the gateway's dependencies.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stylecart/api-gateway/auth"
	"github.com/stylecart/api-gateway/authz"
	"github.com/stylecart/api-gateway/config"
	"github.com/stylecart/api-gateway/handlers"
	"github.com/stylecart/api-gateway/identity"
	"github.com/stylecart/api-gateway/middleware"
	"github.com/stylecart/api-gateway/proxy"
)

// Dependencies holds every long-lived component the route layer composes.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Verifier       auth.CredentialVerifier
	IdentityCache  *identity.Cache
	PolicyEngine   *authz.Engine
	AuthMiddleware *middleware.AuthMiddleware
	Gateway        *proxy.Gateway
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies creates and wires all gateway dependencies.
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initAuth(cfg)
	deps.initIdentityCache(cfg)
	deps.PolicyEngine = authz.NewEngine(deps.IdentityCache)
	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.Verifier, deps.PolicyEngine, logger)

	if err := deps.initProxy(cfg); err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}

	deps.HealthHandler = handlers.NewHealthHandler(cfg.Services, deps.IdentityCache)

	logger.Info("all dependencies initialized",
		zap.String("auth_mode", string(cfg.Auth.Mode)),
		zap.Bool("gateway_auth", cfg.Auth.Enforced))
	return deps, nil
}

// initAuth selects the credential verification strategy. Both modes sit
// behind the same interface; remote is the default, local is the fast path
// when the gateway shares the signing secret.
func (d *Dependencies) initAuth(cfg *config.Config) {
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		d.Verifier = auth.NewLocalVerifier(cfg.Auth.JWTSecret)
		d.Logger.Info("using local credential verification")
	default:
		d.Verifier = auth.NewRemoteVerifier(cfg.Services.User, cfg.Proxy.Timeout, d.Logger)
		d.Logger.Info("using remote credential verification",
			zap.String("user_service", cfg.Services.User))
	}
}

func (d *Dependencies) initIdentityCache(cfg *config.Config) {
	tokens := auth.NewServiceTokenSource(cfg.Auth.JWTSecret, 0)
	client := identity.NewClient(cfg.Services.User, tokens, cfg.Proxy.Timeout, d.Logger)
	d.IdentityCache = identity.NewCache(client, identity.NewMemoryStore(), cfg.Cache.TTL, d.Logger)
}

func (d *Dependencies) initProxy(cfg *config.Config) error {
	defs := []proxy.RouteDef{
		{Prefix: "/api/auth", Upstream: cfg.Services.User, Service: "user-service"},
		{Prefix: "/api/customers", Upstream: cfg.Services.User, Service: "user-service"},
		{Prefix: "/api/orders", Upstream: cfg.Services.Order, Service: "order-service"},
		{Prefix: "/api/events", Upstream: cfg.Services.Event, Service: "event-service"},
		{Prefix: "/api/products", Upstream: cfg.Services.Product, Service: "product-service"},
		{Prefix: "/api/categories", Upstream: cfg.Services.Product, Service: "product-service"},
		{Prefix: "/api/variants", Upstream: cfg.Services.Product, Service: "product-service"},
		{Prefix: "/api/payments", Upstream: cfg.Services.Payment, Service: "payment-service"},
		{Prefix: "/api/recommendations", Upstream: cfg.Services.Fashion, Service: "fashion-service"},
	}

	routes, err := proxy.BuildRoutes(defs)
	if err != nil {
		return err
	}

	opts := []proxy.Option{}
	if !cfg.IsProduction() {
		opts = append(opts, proxy.WithErrorDetail())
	}
	d.Gateway = proxy.NewGateway(routes, cfg.Proxy.Timeout, d.Logger, opts...)
	return nil
}
