// Package config loads the authd service configuration.
//
// Values are resolved in order: defaults, an optional YAML file, then
// environment variables:
//
//	AUTH_SERVER_ADDR      - listen address (default :8080)
//	AUTH_CORS_ORIGINS     - comma separated browser origins (default http://localhost:4200)
//	AUTH_DB_DIALECT       - sqlite or postgres (default sqlite)
//	AUTH_DB_DSN           - driver DSN
//	AUTH_DB_DEBUG         - log every query (default false)
//	AUTH_DB_AUTO_MIGRATE  - apply migrations on serve (default true)
//	AUTH_SIGNING_KEY      - HS256 secret, required
//	AUTH_ISSUER           - token issuer
//	AUTH_AUDIENCE         - comma separated token audience
//	AUTH_DEFAULT_ROLE     - role granted on registration (default User)
//	AUTH_LOG_LEVEL        - debug, info, warn or error (default info)
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-leave-auth"
	"gopkg.in/yaml.v3"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	// MinSigningKeyLength is the shortest HS256 secret accepted, in bytes.
	MinSigningKeyLength = 32
)

// Config is the full service configuration. It satisfies auth.Config.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	LogLevel string         `yaml:"log_level" json:"log_level"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" json:"cors_origins"`
}

type DatabaseConfig struct {
	Dialect      string `yaml:"dialect" json:"dialect"`
	DSN          string `yaml:"dsn" json:"-"`
	Debug        bool   `yaml:"debug" json:"debug"`
	AutoMigrate  bool   `yaml:"auto_migrate" json:"auto_migrate"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
}

// AuthConfig holds the token settings. The token lifetime is not
// configurable: every token lives auth.DefaultTokenTTL.
type AuthConfig struct {
	SigningKey  string   `yaml:"signing_key" json:"-"`
	ContextKey  string   `yaml:"context_key" json:"context_key"`
	TokenLookup string   `yaml:"token_lookup" json:"token_lookup"`
	AuthScheme  string   `yaml:"auth_scheme" json:"auth_scheme"`
	Issuer      string   `yaml:"issuer" json:"issuer"`
	Audience    []string `yaml:"audience" json:"audience"`
	DefaultRole string   `yaml:"default_role" json:"default_role"`
}

var _ auth.Config = (*Config)(nil)

// Default returns a configuration that only lacks a signing key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:4200"},
		},
		Database: DatabaseConfig{
			Dialect:      DialectSQLite,
			DSN:          "file:authd.db?cache=shared",
			AutoMigrate:  true,
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			ContextKey:  "user",
			TokenLookup: "header:Authorization",
			AuthScheme:  "Bearer",
			Issuer:      "go-leave-auth",
			Audience:    []string{"leave-app"},
			DefaultRole: auth.DefaultRoleName,
		},
		LogLevel: "info",
	}
}

// Load reads path (when not empty) over the defaults and applies the
// process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return auth.ErrInvalidConfig.Clone().WithMetadata(map[string]any{"env": key, "value": v})
		}
		*dst = b
		return nil
	}

	str("AUTH_SERVER_ADDR", &c.Server.Addr)
	list("AUTH_CORS_ORIGINS", &c.Server.CORSOrigins)
	str("AUTH_DB_DIALECT", &c.Database.Dialect)
	str("AUTH_DB_DSN", &c.Database.DSN)
	str("AUTH_SIGNING_KEY", &c.Auth.SigningKey)
	str("AUTH_ISSUER", &c.Auth.Issuer)
	list("AUTH_AUDIENCE", &c.Auth.Audience)
	str("AUTH_DEFAULT_ROLE", &c.Auth.DefaultRole)
	str("AUTH_LOG_LEVEL", &c.LogLevel)

	if err := flag("AUTH_DB_DEBUG", &c.Database.Debug); err != nil {
		return err
	}
	return flag("AUTH_DB_AUTO_MIGRATE", &c.Database.AutoMigrate)
}

// Validate fails with auth.ErrMissingSigningKey when no secret is set and
// with auth.ErrInvalidConfig for anything else unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return auth.ErrMissingSigningKey
	}

	err := validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Addr, validation.Required),
		),
		"database": validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Dialect, validation.Required, validation.In(DialectSQLite, DialectPostgres)),
			validation.Field(&c.Database.DSN, validation.Required),
			validation.Field(&c.Database.MaxOpenConns, validation.Min(0)),
		),
		"auth": validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.SigningKey, validation.Length(MinSigningKeyLength, 0)),
			validation.Field(&c.Auth.Issuer, validation.Required),
			validation.Field(&c.Auth.Audience, validation.Required),
			validation.Field(&c.Auth.DefaultRole, validation.Required),
		),
		"log_level": validation.Validate(c.LogLevel, validation.In("debug", "info", "warn", "error")),
	}.Filter()

	if err != nil {
		return auth.ErrInvalidConfig.Clone().WithMetadata(map[string]any{
			"fields": err.Error(),
		})
	}
	return nil
}

func (c *Config) GetSigningKey() string      { return c.Auth.SigningKey }
func (c *Config) GetSigningMethod() string   { return "HS256" }
func (c *Config) GetContextKey() string      { return c.Auth.ContextKey }
func (c *Config) GetTokenTTL() time.Duration { return auth.DefaultTokenTTL }
func (c *Config) GetTokenLookup() string     { return c.Auth.TokenLookup }
func (c *Config) GetAuthScheme() string      { return c.Auth.AuthScheme }
func (c *Config) GetIssuer() string          { return c.Auth.Issuer }
func (c *Config) GetDefaultRole() string     { return c.Auth.DefaultRole }

func (c *Config) GetAudience() []string {
	return append([]string(nil), c.Auth.Audience...)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
