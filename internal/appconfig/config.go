// Package appconfig loads the substrate server's runtime configuration from
// environment variables, validated with go-playground/validator.
package appconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"substrate/internal/ratelimit"
	"substrate/internal/store"
	"substrate/pkg/auth"
)

// Config is every setting cmd/api needs to construct the service graph.
type Config struct {
	ServerAddress string `validate:"required"`

	Neo4jURI      string `validate:"required"`
	Neo4jUsername string `validate:"required"`
	Neo4jPassword string `validate:"required"`
	Neo4jDatabase string

	PostgresDSN string `validate:"required"`

	JWT auth.JWTConfig

	AnthropicAPIKey string

	RateLimit RateLimitConfig
}

// RateLimitConfig carries the per-quota bucket sizing read from the
// environment, translated into ratelimit.Policy at wiring time.
type RateLimitConfig struct {
	LLMMaxTokens        int
	LLMRefillSeconds    int
	ConnectorMaxTokens  int
	ConnectorRefillSecs int
}

// Load reads Config from the process environment, applying the same
// sensible defaults a locally-run server needs, then validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getenv("SERVER_ADDRESS", ":8080"),

		Neo4jURI:      getenv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: getenv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
		Neo4jDatabase: getenv("NEO4J_DATABASE", "neo4j"),

		PostgresDSN: getenv("POSTGRES_DSN", "postgres://localhost:5432/substrate?sslmode=disable"),

		JWT: auth.JWTConfig{
			SigningMethod: getenv("JWT_SIGNING_METHOD", "HS256"),
			SecretKey:     os.Getenv("JWT_SECRET_KEY"),
			PublicKey:     os.Getenv("JWT_PUBLIC_KEY"),
			Issuer:        getenv("JWT_ISSUER", "substrate"),
			Audience:      splitCSV(getenv("JWT_AUDIENCE", "substrate-clients")),
		},

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		RateLimit: RateLimitConfig{
			LLMMaxTokens:        getenvInt("RATE_LIMIT_LLM_MAX_TOKENS", 20),
			LLMRefillSeconds:    getenvInt("RATE_LIMIT_LLM_REFILL_SECONDS", 3),
			ConnectorMaxTokens:  getenvInt("RATE_LIMIT_CONNECTOR_MAX_TOKENS", 10),
			ConnectorRefillSecs: getenvInt("RATE_LIMIT_CONNECTOR_REFILL_SECONDS", 5),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// StoreConfig adapts Config into store.Config for store.New.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		URI:      c.Neo4jURI,
		Username: c.Neo4jUsername,
		Password: c.Neo4jPassword,
		Database: c.Neo4jDatabase,
	}
}

// RatelimitPolicies builds the quota-policy map ratelimit.NewGuard expects.
func (c *Config) RatelimitPolicies() map[ratelimit.Quota]ratelimit.Policy {
	return map[ratelimit.Quota]ratelimit.Policy{
		ratelimit.QuotaLLM: {
			MaxTokens:  c.RateLimit.LLMMaxTokens,
			RefillRate: time.Duration(c.RateLimit.LLMRefillSeconds) * time.Second,
		},
		ratelimit.QuotaConnector: {
			MaxTokens:  c.RateLimit.ConnectorMaxTokens,
			RefillRate: time.Duration(c.RateLimit.ConnectorRefillSecs) * time.Second,
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
