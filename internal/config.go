package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes for the admin HTTP API.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Logseq    LogseqConfig      `yaml:"logseq"`
	Graph     GraphConfig       `yaml:"graph"`
	Templates TemplatesConfig   `yaml:"templates"`
	Cache     CacheConfig       `yaml:"cache"`
	Oplog     OplogConfig       `yaml:"oplog"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Logseq.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the admin HTTP server configuration. Port 0 disables
// the admin server entirely; the MCP stdio transport is always on.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the admin HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Enabled reports whether the admin server should run.
func (c *HTTPConfig) Enabled() bool {
	return c.Port > 0
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// LogseqConfig holds the connection settings for the Logseq HTTP API.
type LogseqConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
}

// Validate validates the Logseq configuration.
func (c *LogseqConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required),
	)
}

// GraphConfig holds the filesystem path of the graph directory. An empty
// path is allowed: filesystem-backed features (statistics, file metadata)
// then report graph_path_not_configured instead of failing at startup.
type GraphConfig struct {
	Path string `yaml:"path"`
}

// TemplatesConfig holds the path to the YAML template catalogue.
type TemplatesConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds the resource cache TTL.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL returns the configured TTL as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTLSeconds, validation.Required, validation.Min(1)),
	)
}

// OplogConfig holds the SQLite operation-log path. Empty disables history.
type OplogConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds admin API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for loopback use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 0,
			},
		},
		Logseq: LogseqConfig{
			APIURL: "http://localhost:12315",
		},
		Templates: TemplatesConfig{
			Path: "config/templates.yaml",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
