package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the optional YAML file layered between defaults and the environment.
const PathEnvVar = "CONFIG_PATH"

// Config captures all runtime configuration derived from environment variables.
// Keys are the lower-cased environment variable names.
type Config struct {
	Port              string `koanf:"port"`
	DBURL             string `koanf:"db_url"`
	ReadTimeoutSecs   int    `koanf:"server_read_timeout"`
	WriteTimeoutSecs  int    `koanf:"server_write_timeout"`
	IdleTimeoutSecs   int    `koanf:"server_idle_timeout"`
	DBMaxConns        int    `koanf:"db_max_conns"`
	DBMinConns        int    `koanf:"db_min_conns"`
	DBMaxIdleSecs     int    `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int    `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int    `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int    `koanf:"db_statement_cache_capacity"`
	MigrateOnStart    bool   `koanf:"migrate_on_start"`

	JWTSecret     string `koanf:"jwt_secret"`
	JWTTTLMinutes int    `koanf:"jwt_ttl_minutes"`
	AuthRateLimit int    `koanf:"auth_rate_limit"`
	CORSOrigins   string `koanf:"cors_origins"`

	// Optional staff account created or promoted at startup.
	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	MediaRoot       string `koanf:"media_root"`
	MediaExtensions string `koanf:"media_extensions"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() Config {
	return Config{
		Port:              "8080",
		ReadTimeoutSecs:   15,
		WriteTimeoutSecs:  15,
		IdleTimeoutSecs:   60,
		DBMaxConns:        20,
		DBMinConns:        2,
		DBMaxIdleSecs:     300,
		DBMaxLifeSecs:     3600,
		DBConnTimeoutSecs: 10,
		DBStatementCache:  256,
		MigrateOnStart:    true,
		JWTTTLMinutes:     24 * 60,
		AuthRateLimit:     20,
		CORSOrigins:       "*",
		MediaRoot:         "media",
		MediaExtensions:   ".mp4,.webm,.ogg",
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads configuration from defaults, an optional YAML file and environment
// variables (highest priority), then validates it.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Empty variables are treated as unset so defaults survive, as with getEnv.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and numeric bounds.
func (cfg Config) Validate() error {
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTLMinutes <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	if cfg.AuthRateLimit < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be non-negative")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if strings.TrimSpace(cfg.AdminUsername) != "" && len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when ADMIN_USERNAME is set")
	}
	if strings.TrimSpace(cfg.MediaRoot) == "" {
		return fmt.Errorf("MEDIA_ROOT must not be empty")
	}
	if len(cfg.MediaExtensionList()) == 0 {
		return fmt.Errorf("MEDIA_EXTENSIONS must list at least one extension")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}

// MediaExtensionList returns the allow-listed extensions, lower-cased and dot-prefixed.
func (cfg Config) MediaExtensionList() []string {
	return splitList(cfg.MediaExtensions, func(s string) string {
		s = strings.ToLower(s)
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		return s
	})
}

// CORSOriginList returns the configured allowed origins.
func (cfg Config) CORSOriginList() []string {
	return splitList(cfg.CORSOrigins, nil)
}

func splitList(raw string, normalize func(string) string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if normalize != nil {
			p = normalize(p)
		}
		out = append(out, p)
	}
	return out
}
