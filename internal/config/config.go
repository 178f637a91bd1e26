// Package config loads runtime settings from configs/config.yml, an optional
// .env file and BLOG_* environment variables (highest precedence).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "BLOG"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Log    LogConfig
	Admin  AdminConfig
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DBConfig struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

type LogConfig struct {
	Level    string
	Encoding string
}

// AdminConfig seeds an administrator account at startup when Email is set.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5100")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "blog.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.issuer", "secure-blog")
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// Load reads configuration from configDir (configs/config.yml by default).
// A missing config file or .env is not an error.
func Load(configDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		DB: DBConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("db.driver"))),
			Path:   v.GetString("db.path"),
			DSN:    v.GetString("db.dsn"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("auth.jwt_secret"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
			Issuer:     v.GetString("auth.issuer"),
			BcryptCost: v.GetInt("auth.bcrypt_cost"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			Encoding: v.GetString("log.encoding"),
		},
		Admin: AdminConfig{
			Username: strings.TrimSpace(v.GetString("admin.username")),
			Email:    strings.TrimSpace(v.GetString("admin.email")),
			Password: v.GetString("admin.password"),
		},
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required (BLOG_AUTH_JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: auth.bcrypt_cost must be within [%d, %d], got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("config: db.path is required for sqlite")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("config: db.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.DB.Driver)
	}
	if c.Admin.Email != "" && strings.TrimSpace(c.Admin.Password) == "" {
		return errors.New("config: admin.password is required when admin.email is set")
	}
	return nil
}
