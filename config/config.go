package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig
	Internal   InternalConfig

	// Storage
	Storage  StorageConfig
	Postgres PostgresConfig

	// Git integration
	OAuth     OAuthConfig
	Providers map[string]ProviderConfig
	Webhook   WebhookConfig
	Processor ProcessorConfig
	Sync      SyncConfig

	// Domain events
	Events EventsConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type InternalConfig struct {
	APIKey string
}

type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type OAuthConfig struct {
	StateTTL      time.Duration
	StateCapacity int
	RefreshMargin time.Duration
}

// ProviderConfig configures one Git provider. Empty URLs use the provider's
// public SaaS endpoints.
type ProviderConfig struct {
	Enabled          bool
	ClientID         string
	ClientSecret     string
	AuthURL          string
	TokenURL         string
	APIURL           string
	Scopes           []string
	RateLimitPerHour int
	Burst            int
}

// WebhookConfig guards the public delivery endpoint. NgrokAgentURL (for
// example http://ngrok:4040) is consulted only when PublicBaseURL is empty.
type WebhookConfig struct {
	PublicBaseURL   string
	NgrokAgentURL   string
	AllowedIPs      []string
	RateLimitPerMin int
	MaxBodyBytes    int64
	Events          []string
}

// ProcessorConfig tunes webhook processing. When Embedded is false the API
// only ingests and cmd/consumer processes from the shared database.
type ProcessorConfig struct {
	Embedded      bool
	Workers       int
	MaxRetries    int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	PollInterval  time.Duration
	RateLimitMode string
}

type SyncConfig struct {
	PageSize         int
	MaxPages         int
	RequestTimeout   time.Duration
	RateLimitMaxWait time.Duration
}

type EventsConfig struct {
	// TargetURL receives CloudEvents. Empty logs events instead.
	TargetURL string
	Source    string
	Timeout   time.Duration
}

// providerNames are the provider sections read from configuration.
var providerNames = []string{"github", "gitlab", "bitbucket"}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/app/
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")
	cfg.Internal.APIKey = viper.GetString("internal.api_key")
	if key := viper.GetString("internal_api_key"); key != "" {
		cfg.Internal.APIKey = key
	}

	// Storage
	cfg.Storage.Driver = strings.ToLower(viper.GetString("storage.driver"))
	cfg.Postgres.DSN = viper.GetString("postgres.dsn")
	if dsn := viper.GetString("postgres_dsn"); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	cfg.Postgres.MaxOpenConns = viper.GetInt("postgres.max_open_conns")
	cfg.Postgres.MaxIdleConns = viper.GetInt("postgres.max_idle_conns")
	cfg.Postgres.ConnMaxLifetime = viper.GetDuration("postgres.conn_max_lifetime")

	// OAuth
	cfg.OAuth.StateTTL = viper.GetDuration("oauth.state_ttl")
	cfg.OAuth.StateCapacity = viper.GetInt("oauth.state_capacity")
	cfg.OAuth.RefreshMargin = viper.GetDuration("oauth.refresh_margin")

	// Providers
	cfg.Providers = make(map[string]ProviderConfig, len(providerNames))
	for _, name := range providerNames {
		cfg.Providers[name] = loadProvider(name)
	}

	// Webhooks
	cfg.Webhook.PublicBaseURL = strings.TrimRight(viper.GetString("webhook.public_base_url"), "/")
	cfg.Webhook.NgrokAgentURL = strings.TrimRight(viper.GetString("webhook.ngrok_agent_url"), "/")
	cfg.Webhook.RateLimitPerMin = viper.GetInt("webhook.rate_limit_per_min")
	cfg.Webhook.MaxBodyBytes = viper.GetInt64("webhook.max_body_bytes")
	cfg.Webhook.AllowedIPs = getList("webhook.allowed_ips")
	cfg.Webhook.Events = getList("webhook.events")

	// Processor
	cfg.Processor.Embedded = viper.GetBool("processor.embedded")
	cfg.Processor.Workers = viper.GetInt("processor.workers")
	cfg.Processor.MaxRetries = viper.GetInt("processor.max_retries")
	cfg.Processor.BaseBackoff = viper.GetDuration("processor.base_backoff")
	cfg.Processor.MaxBackoff = viper.GetDuration("processor.max_backoff")
	cfg.Processor.PollInterval = viper.GetDuration("processor.poll_interval")
	cfg.Processor.RateLimitMode = strings.ToLower(viper.GetString("processor.rate_limit_mode"))

	// Sync
	cfg.Sync.PageSize = viper.GetInt("sync.page_size")
	cfg.Sync.MaxPages = viper.GetInt("sync.max_pages")
	cfg.Sync.RequestTimeout = viper.GetDuration("sync.request_timeout")
	cfg.Sync.RateLimitMaxWait = viper.GetDuration("sync.rate_limit_max_wait")

	// Domain events
	cfg.Events.TargetURL = viper.GetString("events.target_url")
	cfg.Events.Source = viper.GetString("events.source")
	cfg.Events.Timeout = viper.GetDuration("events.timeout")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProvider(name string) ProviderConfig {
	prefix := "providers." + name + "."
	p := ProviderConfig{
		Enabled:          viper.GetBool(prefix + "enabled"),
		ClientID:         viper.GetString(prefix + "client_id"),
		ClientSecret:     viper.GetString(prefix + "client_secret"),
		AuthURL:          viper.GetString(prefix + "auth_url"),
		TokenURL:         viper.GetString(prefix + "token_url"),
		APIURL:           viper.GetString(prefix + "api_url"),
		Scopes:           getList(prefix + "scopes"),
		RateLimitPerHour: viper.GetInt(prefix + "rate_limit_per_hour"),
		Burst:            viper.GetInt(prefix + "burst"),
	}

	// Flat env overrides, e.g. GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET.
	upper := strings.ToUpper(name)
	if v := os.Getenv(upper + "_CLIENT_ID"); v != "" {
		p.ClientID = v
	}
	if v := os.Getenv(upper + "_CLIENT_SECRET"); v != "" {
		p.ClientSecret = v
	}
	return p
}

// getList reads a list that may arrive as a YAML sequence or, from the
// environment, as a comma-separated string.
func getList(key string) []string {
	raw := viper.GetStringSlice(key)
	if len(raw) == 1 && strings.Contains(raw[0], ",") {
		raw = strings.Split(raw[0], ",")
	}
	var out []string
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "memory":
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when storage.driver is postgres")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", cfg.Storage.Driver)
	}

	enabled := 0
	for name, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}
		enabled++
		if p.ClientID == "" || p.ClientSecret == "" {
			return fmt.Errorf("provider %s: client_id and client_secret are required", name)
		}
	}
	if enabled == 0 {
		return errors.New("no git providers enabled - please enable at least one under providers")
	}

	if cfg.Processor.RateLimitMode != "block" && cfg.Processor.RateLimitMode != "defer" {
		return fmt.Errorf("processor.rate_limit_mode must be block or defer, got %q", cfg.Processor.RateLimitMode)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("postgres.max_open_conns", 20)
	viper.SetDefault("postgres.max_idle_conns", 5)
	viper.SetDefault("postgres.conn_max_lifetime", "30m")

	viper.SetDefault("oauth.state_ttl", "10m")
	viper.SetDefault("oauth.state_capacity", 10000)
	viper.SetDefault("oauth.refresh_margin", "5m")

	// Published REST budgets: GitHub 5000/h per token, GitLab.com about
	// 2000/min per user, Bitbucket Cloud 1000/h per user.
	viper.SetDefault("providers.github.rate_limit_per_hour", 5000)
	viper.SetDefault("providers.github.burst", 50)
	viper.SetDefault("providers.gitlab.rate_limit_per_hour", 120000)
	viper.SetDefault("providers.gitlab.burst", 100)
	viper.SetDefault("providers.bitbucket.rate_limit_per_hour", 1000)
	viper.SetDefault("providers.bitbucket.burst", 20)

	viper.SetDefault("webhook.rate_limit_per_min", 600)
	viper.SetDefault("webhook.max_body_bytes", 5<<20)

	viper.SetDefault("processor.embedded", true)
	viper.SetDefault("processor.workers", 8)
	viper.SetDefault("processor.max_retries", 5)
	viper.SetDefault("processor.base_backoff", "5s")
	viper.SetDefault("processor.max_backoff", "10m")
	viper.SetDefault("processor.poll_interval", "5s")
	viper.SetDefault("processor.rate_limit_mode", "block")

	viper.SetDefault("sync.page_size", 50)
	viper.SetDefault("sync.max_pages", 20)
	viper.SetDefault("sync.request_timeout", "15s")
	viper.SetDefault("sync.rate_limit_max_wait", "10s")

	viper.SetDefault("events.source", "git-integration")
	viper.SetDefault("events.timeout", "5s")
}
