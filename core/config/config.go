package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pacelink.app/relay/core/db"
)

type Config struct {
	OTel       OTelConfig
	Strava     StravaConfig
	Webhook    WebhookConfig
	Credential CredentialConfig
	Dedupe     DedupeConfig
	Poke       PokeConfig
	TokenStore TokenStoreConfig
	Env        string
	Port       string
	PublicURL  string
	NodeID     int64
	DB         db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type StravaConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBaseURL   string
	OAuthBaseURL string
	Scope        string

	// Static credential pair used only until the first interactive authorization.
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type WebhookConfig struct {
	VerifyToken string
}

type CredentialConfig struct {
	InstallationID string
	RefreshMargin  time.Duration
}

type DedupeConfig struct {
	Backend  string // "memory" or "redis"
	TTL      time.Duration
	RedisURL string
	Prefix   string
}

type PokeConfig struct {
	APIKey     string
	InboundURL string
}

type TokenStoreConfig struct {
	SQLitePath string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

const (
	DedupeBackendMemory = "memory"
	DedupeBackendRedis  = "redis"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the HTTP server
//   - .env.cli for stravactl
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("RELAY_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	port := getEnv("PORT", "8000")
	publicURL := strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/")

	cfg := Config{
		Env:       getEnv("RELAY_ENV", "development"),
		Port:      port,
		PublicURL: publicURL,
		NodeID:    getEnvInt64("RELAY_NODE_ID", 1),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pacelink-relay"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Strava: StravaConfig{
			ClientID:     getEnv("STRAVA_CLIENT_ID", ""),
			ClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("STRAVA_REDIRECT_URI", publicURL+"/strava/callback"),
			APIBaseURL:   strings.TrimRight(getEnv("STRAVA_API_BASE_URL", "https://www.strava.com/api/v3"), "/"),
			OAuthBaseURL: strings.TrimRight(getEnv("STRAVA_OAUTH_BASE_URL", "https://www.strava.com/oauth"), "/"),
			Scope:        getEnv("STRAVA_SCOPE", "read,activity:read_all"),
			AccessToken:  getEnv("STRAVA_ACCESS_TOKEN", ""),
			RefreshToken: getEnv("STRAVA_REFRESH_TOKEN", ""),
			ExpiresAt:    getEnvInt64("STRAVA_EXPIRES_AT", 0),
		},
		Webhook: WebhookConfig{
			VerifyToken: getEnv("STRAVA_VERIFY_TOKEN", "dev-verify"),
		},
		Credential: CredentialConfig{
			InstallationID: getEnv("INSTALLATION_ID", "default"),
			RefreshMargin:  getEnvSeconds("REFRESH_MARGIN_SECONDS", 60*time.Second),
		},
		Dedupe: DedupeConfig{
			Backend:  getEnv("DEDUPE_BACKEND", DedupeBackendMemory),
			TTL:      getEnvSeconds("DEDUPE_TTL_SECONDS", 60*time.Second),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Prefix:   getEnv("DEDUPE_REDIS_PREFIX", "pacelink:webhook:seen:"),
		},
		Poke: PokeConfig{
			APIKey:     getEnv("POKE_API_KEY", ""),
			InboundURL: getEnv("POKE_INBOUND_URL", "https://poke.com/api/v1/inbound-sms/webhook"),
		},
		TokenStore: TokenStoreConfig{
			SQLitePath: getEnv("TOKEN_DB_PATH", "tokens.db"),
		},
	}

	if cfg.Strava.ClientID == "" || cfg.Strava.ClientSecret == "" {
		return Config{}, fmt.Errorf("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required")
	}

	switch cfg.Dedupe.Backend {
	case DedupeBackendMemory, DedupeBackendRedis:
	default:
		return Config{}, fmt.Errorf("DEDUPE_BACKEND must be %q or %q, got %q", DedupeBackendMemory, DedupeBackendRedis, cfg.Dedupe.Backend)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// WebhookCallbackURL is the URL Strava pushes events to.
func (c Config) WebhookCallbackURL() string {
	return c.PublicURL + "/strava/webhook"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c PokeConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c StravaConfig) AuthURL() string {
	return c.OAuthBaseURL + "/authorize"
}

func (c StravaConfig) TokenURL() string {
	return c.OAuthBaseURL + "/token"
}

func (c StravaConfig) HasStaticCredential() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// UsesPostgres reports whether credentials persist to Postgres instead of the local SQLite file.
func (c Config) UsesPostgres() bool {
	return c.DB.DSN != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
