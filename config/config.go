package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AuthMode selects how bearer credentials are verified.
type AuthMode string

const (
	// AuthModeLocal decodes tokens with the shared JWT secret, no network call.
	AuthModeLocal AuthMode = "local"
	// AuthModeRemote forwards tokens to the user service's profile endpoint.
	AuthModeRemote AuthMode = "remote"
)

// Config represents the complete gateway configuration
type Config struct {
	Server      ServerConfig
	Auth        AuthConfig
	Services    ServicesConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	Proxy       ProxyConfig
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds credential verification configuration
type AuthConfig struct {
	Mode      AuthMode
	JWTSecret string
	// Enforced controls whether the gateway runs the auth/authz chain on
	// protected prefixes itself. When false the gateway only routes and
	// each service is expected to self-protect.
	Enforced bool
}

// ServicesConfig holds the base URL of every upstream the gateway fronts
type ServicesConfig struct {
	User    string `validate:"required,url"`
	Product string `validate:"required,url"`
	Order   string `validate:"required,url"`
	Payment string `validate:"required,url"`
	Event   string `validate:"required,url"`
	Fashion string `validate:"required,url"`
}

// Map returns service name -> base URL, as reported by the health endpoint.
func (s ServicesConfig) Map() map[string]string {
	return map[string]string{
		"user-service":    s.User,
		"product-service": s.Product,
		"order-service":   s.Order,
		"payment-service": s.Payment,
		"event-service":   s.Event,
		"fashion-service": s.Fashion,
	}
}

// CORSConfig holds allowed-origin configuration
type CORSConfig struct {
	FrontendURL    string
	AllowedOrigins []string
}

// Origins returns the full allow-list handed to the CORS middleware,
// including the wildcard patterns that admit localhost on any port.
func (c CORSConfig) Origins() []string {
	origins := []string{"http://localhost:*", "http://127.0.0.1:*"}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	origins = append(origins, c.AllowedOrigins...)
	return origins
}

// RateLimitConfig holds the global fixed-window rate limit
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// CacheConfig holds identity cache tuning
type CacheConfig struct {
	TTL time.Duration
}

// ProxyConfig holds upstream forwarding behavior
type ProxyConfig struct {
	Timeout time.Duration
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present (no-op in deployed environments)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 3000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			Mode:      AuthMode(getEnv("AUTH_MODE", string(AuthModeRemote))),
			JWTSecret: getEnv("JWT_SECRET", ""),
			Enforced:  getEnvAsBool("GATEWAY_AUTH_ENABLED", true),
		},
		Services: ServicesConfig{
			User:    getEnv("USER_SERVICE_URL", "http://localhost:3001"),
			Product: getEnv("PRODUCT_SERVICE_URL", "http://localhost:3002"),
			Order:   getEnv("ORDER_SERVICE_URL", "http://localhost:3003"),
			Event:   getEnv("EVENT_SERVICE_URL", "http://localhost:3004"),
			Payment: getEnv("PAYMENT_SERVICE_URL", "http://localhost:3005"),
			Fashion: getEnv("FASHION_SERVICE_URL", "http://localhost:8000"),
		},
		CORS: CORSConfig{
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 300),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Proxy: ProxyConfig{
			Timeout: getEnvAsDuration("PROXY_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeLocal, AuthModeRemote:
	default:
		return fmt.Errorf("invalid AUTH_MODE %q: must be %q or %q", c.Auth.Mode, AuthModeLocal, AuthModeRemote)
	}

	// Local verification and internal token minting both need the secret.
	// Development gets a permissive default so the gateway boots without one.
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-secret"
	}

	if err := validateStruct(c.Services); err != nil {
		return fmt.Errorf("service URLs: %w", err)
	}

	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("PROXY_TIMEOUT must be positive")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
