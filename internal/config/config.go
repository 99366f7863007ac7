// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	BaseURL        string   `yaml:"base_url"`     // public backend URL, webhook targets are built from it
	FrontendURL    string   `yaml:"frontend_url"` // buyer-facing redirect target
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MercadoPagoCredentials is one credential set. Product payments and
// subscription payments live in separate provider accounts, so the
// config carries two of these and each gateway gets its own.
type MercadoPagoCredentials struct {
	AccessToken string `yaml:"access_token"`
}

type PaymentConfig struct {
	MercadoPago struct {
		Products      MercadoPagoCredentials `yaml:"products"`
		Subscriptions MercadoPagoCredentials `yaml:"subscriptions"`
		Timeout       time.Duration          `yaml:"timeout"`
		Sandbox       bool                   `yaml:"sandbox"`
	} `yaml:"mercadopago"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type SchedulerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.MercadoPago.Timeout <= 0 {
		cfg.Payment.MercadoPago.Timeout = 10 * time.Second
	}
	if cfg.Scheduler.ExpirySweepInterval <= 0 {
		cfg.Scheduler.ExpirySweepInterval = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.MercadoPago.Products.AccessToken == "" {
		return nil, errors.New("payment.mercadopago.products.access_token is required")
	}
	if cfg.Payment.MercadoPago.Subscriptions.AccessToken == "" {
		return nil, errors.New("payment.mercadopago.subscriptions.access_token is required")
	}
	if !strings.HasPrefix(cfg.Server.BaseURL, "http") {
		return nil, errors.New("server.base_url must be an absolute URL")
	}
	if !strings.HasPrefix(cfg.Server.FrontendURL, "http") {
		return nil, errors.New("server.frontend_url must be an absolute URL")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
