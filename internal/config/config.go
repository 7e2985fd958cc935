package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `mapstructure:"port"`
	DatabaseType    string        `mapstructure:"database_type"`
	DatabasePath    string        `mapstructure:"db_path"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	SessionDuration time.Duration `mapstructure:"session_duration"`

	SessionSecret string `mapstructure:"session_secret"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	CSRFSecret    string `mapstructure:"csrf_secret"`

	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SandboxDelay   time.Duration `mapstructure:"sandbox_delay"`
	SeedBadWords   bool          `mapstructure:"seed_bad_words"`

	GoogleClientID       string `mapstructure:"google_client_id"`
	GoogleClientSecret   string `mapstructure:"google_client_secret"`
	FacebookClientID     string `mapstructure:"facebook_client_id"`
	FacebookClientSecret string `mapstructure:"facebook_client_secret"`
	OAuthRedirectBaseURL string `mapstructure:"oauth_redirect_base_url"`

	AWSRegion    string `mapstructure:"aws_region"`
	SESFromEmail string `mapstructure:"ses_from_email"`
	SESFromName  string `mapstructure:"ses_from_name"`
	AppBaseURL   string `mapstructure:"app_base_url"`
	EmailDebug   bool   `mapstructure:"email_debug"`
}

// Load reads configuration from an optional config.yaml and environment
// variables, falling back to defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)
	cfg.warnDevSecrets()
	return &cfg, nil
}

const devSecretPrefix = "change-me-"

func (c *Config) warnDevSecrets() {
	for _, secret := range []struct{ key, value string }{
		{"SESSION_SECRET", c.SessionSecret},
		{"JWT_SECRET", c.JWTSecret},
		{"CSRF_SECRET", c.CSRFSecret},
	} {
		if strings.HasPrefix(secret.value, devSecretPrefix) {
			log.Printf("Warning: %s is not set, using the development default", secret.key)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("db_path", "./actuarialhub.db")
	v.SetDefault("database_url", "")
	v.SetDefault("migrations_path", "./migrations")
	v.SetDefault("session_duration", 24*time.Hour)

	v.SetDefault("session_secret", devSecretPrefix+"session-secret")
	v.SetDefault("jwt_secret", devSecretPrefix+"jwt-secret")
	v.SetDefault("csrf_secret", devSecretPrefix+"csrf-secret")

	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("sandbox_delay", 1500*time.Millisecond)
	v.SetDefault("seed_bad_words", true)

	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("facebook_client_id", "")
	v.SetDefault("facebook_client_secret", "")
	v.SetDefault("oauth_redirect_base_url", "")

	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("ses_from_email", "")
	v.SetDefault("ses_from_name", "Actuarial Hub")
	v.SetDefault("app_base_url", "http://localhost:5173")
	v.SetDefault("email_debug", false)
}

// splitOrigins accepts both list values and a single comma separated env value
func splitOrigins(values []string) []string {
	var origins []string
	for _, value := range values {
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
