package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultProviderBaseURL = "https://rest.sandbox.lalamove.com"
	DefaultProviderMarket  = "PH"
	DefaultLanguage        = "en_PH"
	DefaultWebhookPath     = "/lalamove-webhook"
	DefaultPort            = 5001
	DefaultProviderTimeout = 30 * time.Second
)

// DefaultAllowedOrigins are the frontend origins allowed to call the relay.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://unite-eventpro.netlify.app",
	"https://unite-eventpro.site",
}

type ProviderConfig struct {
	APIKey   string        `koanf:"api_key" mapstructure:"api_key"`
	Secret   string        `koanf:"secret" mapstructure:"secret"`
	BaseURL  string        `koanf:"base_url" mapstructure:"base_url"`
	Market   string        `koanf:"market" mapstructure:"market"`
	Language string        `koanf:"language" mapstructure:"language"`
	Timeout  time.Duration `koanf:"timeout" mapstructure:"timeout"`

	// VerifyWebhooks checks the signature carried in webhook envelopes
	// against WebhookPath before reconciling.
	VerifyWebhooks bool   `koanf:"verify_webhooks" mapstructure:"verify_webhooks"`
	WebhookPath    string `koanf:"webhook_path" mapstructure:"webhook_path"`
}

type ServerConfig struct {
	Port           int      `koanf:"port" mapstructure:"port"`
	AllowedOrigins []string `koanf:"allowed_origins" mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Provider    ProviderConfig `koanf:"provider" mapstructure:"provider"`
	Server      ServerConfig   `koanf:"server" mapstructure:"server"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Log         LogConfig      `koanf:"log" mapstructure:"log"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "delivery-relay",
		Provider: ProviderConfig{
			BaseURL:  DefaultProviderBaseURL,
			Market:   DefaultProviderMarket,
			Language: DefaultLanguage,
			Timeout:  DefaultProviderTimeout,

			WebhookPath: DefaultWebhookPath,
		},
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		},
		Database: DatabaseConfig{
			Driver:      "sqlite3",
			DSN:         "file:relay.db?cache=shared&_foreign_keys=on",
			PingTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("core: provider api_key is required")
	}
	if strings.TrimSpace(c.Provider.Secret) == "" {
		return fmt.Errorf("core: provider secret is required")
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return fmt.Errorf("core: provider base_url is required")
	}
	if strings.TrimSpace(c.Provider.Market) == "" {
		return fmt.Errorf("core: provider market is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("core: server port %d is invalid", c.Server.Port)
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("core: database driver %q is invalid", c.Database.Driver)
	}
	return nil
}

// normalized trims the string settings that are used verbatim downstream,
// provider credentials included.
func (c Config) normalized() Config {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	c.Provider.Secret = strings.TrimSpace(c.Provider.Secret)
	c.Provider.BaseURL = strings.TrimSpace(c.Provider.BaseURL)
	c.Provider.Market = strings.TrimSpace(c.Provider.Market)
	c.Provider.Language = strings.TrimSpace(c.Provider.Language)
	c.Provider.WebhookPath = strings.TrimSpace(c.Provider.WebhookPath)
	c.Database.Driver = strings.TrimSpace(c.Database.Driver)
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	return c
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
