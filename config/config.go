package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the relay reads at startup. Defaults live in
// the envDefault tags.
type Config struct {
	Port           int      `env:"PORT"             envDefault:"3000"`
	Host           string   `env:"HOST"`
	StaticDir      string   `env:"STATIC_DIR"       envDefault:"public"`
	LogLevel       string   `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT"       envDefault:"console"`
	MaxMessageSize int64    `env:"MAX_MESSAGE_SIZE" envDefault:"65536"`
	SendBuffer     int      `env:"SEND_BUFFER"      envDefault:"256"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envSeparator:","`
	RelayURL       string   `env:"RELAY_URL"        envDefault:"http://localhost:3000"`

	Ngrok NgrokConfig `envPrefix:"NGROK_"`
}

// NgrokConfig controls the optional public tunnel.
type NgrokConfig struct {
	Enabled   bool   `env:"ENABLED"`
	AuthToken string `env:"AUTHTOKEN"`
	Domain    string `env:"DOMAIN"`

	// AUTH_TOKEN is accepted as an alias for AUTHTOKEN.
	AuthTokenAlias string `env:"AUTH_TOKEN"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ngrok.AuthToken == "" {
		c.Ngrok.AuthToken = c.Ngrok.AuthTokenAlias
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: MAX_MESSAGE_SIZE must be positive", ErrInvalidConfig)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("%w: SEND_BUFFER must be positive", ErrInvalidConfig)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: LOG_FORMAT %q (want console or json)", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalidConfig, err)
	}
	if c.Ngrok.Enabled && c.Ngrok.AuthToken == "" {
		return fmt.Errorf("%w: NGROK_ENABLED requires NGROK_AUTHTOKEN", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address for net/http.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewLogger builds the root logger writing to w.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
