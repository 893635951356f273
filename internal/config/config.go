package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// AppConfig holds process-wide settings shared by every channel.
type AppConfig struct {
	// Env selects the environment profile: "dev" or "prod".
	Env        string `yaml:"env" envconfig:"APP_ENV"`
	BaseURL    string `yaml:"base_url" envconfig:"APP_BASE_URL"`
	Listen     string `yaml:"listen" envconfig:"APP_LISTEN"`
	Port       int    `yaml:"port" envconfig:"APP_PORT"`
	AdminToken string `yaml:"admin_token" envconfig:"APP_ADMIN_TOKEN"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token       string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	SecretToken string `yaml:"secret_token" envconfig:"TELEGRAM_SECRET_TOKEN"`
	RunMode     string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// MetaConfig holds WhatsApp/Instagram Cloud API settings.
type MetaConfig struct {
	VerifyToken  string `yaml:"verify_token" envconfig:"META_VERIFY_TOKEN"`
	AccessToken  string `yaml:"access_token" envconfig:"META_ACCESS_TOKEN"`
	WAPhoneID    string `yaml:"wa_phone_id" envconfig:"META_WA_PHONE_ID"`
	IGBusinessID string `yaml:"ig_business_id" envconfig:"META_IG_BUSINESS_ID"`
	GraphVersion string `yaml:"graph_version" envconfig:"META_GRAPH_VERSION"`
}

// AIConfig holds completion-service settings for the response composer.
type AIConfig struct {
	APIKey         string `yaml:"api_key" envconfig:"GEMINI_API_KEY"`
	Model          string `yaml:"model" envconfig:"GEMINI_MODEL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"GEMINI_TIMEOUT_SECONDS"`
}

// CatalogConfig points to an optional price-list override file.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// DatabaseConfig holds database connection settings. It is defined here
// (rather than in the database package, which aliases it) so that config
// stays free of internal imports.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir     string `yaml:"dir" envconfig:"LOG_DIR"`
	File    string `yaml:"file" envconfig:"LOG_FILE"`
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// EnvDev marks a local development deployment.
	EnvDev = "dev"
	// EnvProd marks a production deployment.
	EnvProd = "prod"

	// RunModeWebhook selects webhook delivery for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long polling for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Config aggregates the whole application configuration.
type Config struct {
	App      AppConfig       `yaml:"app"`
	Telegram TelegramConfig  `yaml:"telegram"`
	Meta     MetaConfig      `yaml:"meta"`
	AI       AIConfig        `yaml:"ai"`
	Catalog  CatalogConfig   `yaml:"catalog"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	env := strings.ToLower(strings.TrimSpace(cfg.App.Env))
	if env == "" {
		env = EnvDev
	}
	switch env {
	case EnvDev, EnvProd:
	default:
		return fmt.Errorf("invalid app.env %q; allowed: dev, prod", cfg.App.Env)
	}
	cfg.App.Env = env

	if strings.TrimSpace(cfg.App.Listen) == "" {
		cfg.App.Listen = "0.0.0.0"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 8080
	}
	if cfg.App.Port < 0 {
		return fmt.Errorf("app.port must be > 0")
	}
	if strings.TrimSpace(cfg.App.BaseURL) == "" {
		cfg.App.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.App.Port)
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	if rm == "" {
		// The environment tag decides delivery mode unless set explicitly.
		if env == EnvProd {
			rm = RunModeWebhook
		} else {
			rm = RunModeLongpoll
		}
	}
	switch rm {
	case RunModeWebhook:
		if cfg.Telegram.Token != "" && strings.TrimSpace(cfg.Telegram.SecretToken) == "" {
			return fmt.Errorf("telegram.secret_token is required when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Meta.GraphVersion) == "" {
		cfg.Meta.GraphVersion = "v20.0"
	}

	if strings.TrimSpace(cfg.AI.Model) == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 8
	}

	return nil
}
