// Package config loads server and client settings from the environment,
// an optional .env file and an optional schedpoint.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DevJWTSecret is used only when APP_ENV=development and JWT_SECRET is unset.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all server configuration.
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	LogLevel string

	// TimeZone is the IANA name naive times are read in; Location is its resolved form.
	TimeZone string
	Location *time.Location
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address     string  // listen address (e.g. ":8080")
	FrontendURL string  // allowed CORS origin
	LoginRate   float64 // sign-in requests per second per IP; 0 disables throttling
	LoginBurst  int

	// TrustedProxies may set X-Forwarded-For; empty means trust the socket address only.
	TrustedProxies []*net.IPNet
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, HTTP: %s, DB: %s, TZ: %s, TTL: %s, Origin: %s, Auth: *** (masked) ***}",
		c.Env, c.HTTP.Address, c.Database.Path, c.TimeZone, c.Auth.TokenTTL, c.HTTP.FrontendURL)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("DB_PATH", "./data/schedpoint.db")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("TIME_ZONE", "Local")
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SCHEDPOINT_API_URL", "http://localhost:8080")
	v.SetDefault("SCHEDPOINT_TOKEN_FILE", "~/.schedpoint/token")

	for _, key := range []string{"JWT_SECRET", "FRONTEND_URL", "TRUSTED_PROXIES"} {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	v.SetConfigName("schedpoint")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

// readSources loads .env (if present) into the process environment and then
// the optional config file.
func readSources(v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load loads server configuration. Outside development JWT_SECRET and
// FRONTEND_URL are required.
func Load() (*Config, error) {
	v := newViper()
	if err := readSources(v); err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		LogLevel: v.GetString("LOG_LEVEL"),
		TimeZone: v.GetString("TIME_ZONE"),
		HTTP: HTTPConfig{
			Address:     v.GetString("HTTP_ADDRESS"),
			FrontendURL: v.GetString("FRONTEND_URL"),
			LoginRate:   v.GetFloat64("LOGIN_RATE_LIMIT"),
			LoginBurst:  v.GetInt("LOGIN_RATE_BURST"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("DB_PATH"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
	}

	proxies, err := parseCIDRs(v.GetString("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}
	cfg.HTTP.TrustedProxies = proxies

	ttl, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q", v.GetString("TOKEN_TTL"))
	}
	cfg.Auth.TokenTTL = ttl

	cfg.Location, err = time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}

	if cfg.IsDevelopment() {
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = DevJWTSecret
		}
		if cfg.HTTP.FrontendURL == "" {
			cfg.HTTP.FrontendURL = "*"
		}
		return cfg, nil
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required outside development")
	}
	if cfg.HTTP.FrontendURL == "" {
		return nil, fmt.Errorf("FRONTEND_URL environment variable is not set; required outside development")
	}
	return cfg, nil
}

// parseCIDRs reads a comma-separated list of CIDRs or bare IPs.
func parseCIDRs(list string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			if ip := net.ParseIP(raw); ip != nil && ip.To4() != nil {
				raw += "/32"
			} else {
				raw += "/128"
			}
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// ClientConfig holds schedctl settings.
type ClientConfig struct {
	APIURL    string
	TokenPath string
	// StatePath remembers the date cursor between runs.
	StatePath string
	Location  *time.Location
}

// LoadClient loads schedctl configuration. The token path has ~ expanded.
func LoadClient() (*ClientConfig, error) {
	v := newViper()
	if err := readSources(v); err != nil {
		return nil, err
	}
	return clientFromViper(v)
}

func clientFromViper(v *viper.Viper) (*ClientConfig, error) {
	tokenPath, err := homedir.Expand(v.GetString("SCHEDPOINT_TOKEN_FILE"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token file: %w", err)
	}
	loc, err := time.LoadLocation(v.GetString("TIME_ZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", v.GetString("TIME_ZONE"), err)
	}
	return &ClientConfig{
		APIURL:    strings.TrimRight(v.GetString("SCHEDPOINT_API_URL"), "/"),
		TokenPath: tokenPath,
		StatePath: filepath.Join(filepath.Dir(tokenPath), "cursor"),
		Location:  loc,
	}, nil
}
