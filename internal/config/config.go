// Package config loads process configuration from the environment.
// Every knob is an env var with the SAFQAGATE_ prefix; sections nest
// with a double underscore, e.g. SAFQAGATE_SERVER__PORT=8080.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const envPrefix = "SAFQAGATE_"

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Logging       LoggingConfig        `koanf:"logging" validate:"required"`
	Ingress       IngressConfig        `koanf:"ingress" validate:"required"`
	Registry      RegistryConfig       `koanf:"registry" validate:"required"`
	Database      DatabaseConfig       `koanf:"database"`
	Archive       ArchiveConfig        `koanf:"archive"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

type LoggingConfig struct {
	Level       string `koanf:"level" validate:"required"`
	Dir         string `koanf:"dir" validate:"required"`
	File        string `koanf:"file" validate:"required"`
	Console     bool   `koanf:"console"`
	MaxArchives int    `koanf:"max_archives" validate:"min=1"`
}

type IngressConfig struct {
	MaxBodyBytes    int64    `koanf:"max_body_bytes" validate:"min=1"`
	RecentBuffer    int      `koanf:"recent_buffer" validate:"min=1"`
	RedactFields    []string `koanf:"redact_fields"`
	CapturedHeaders []string `koanf:"captured_headers"`
	URLSuffixes     []string `koanf:"url_suffixes"`
}

// RegistryConfig picks where allowed-choice lists come from: "static"
// (compiled-in seed), "file" (YAML seed file) or "postgres". A non-zero
// RefreshInterval re-reads the postgres source that often (seconds).
type RegistryConfig struct {
	Source          string `koanf:"source" validate:"oneof=static file postgres"`
	SeedFile        string `koanf:"seed_file"`
	RefreshInterval int    `koanf:"refresh_interval" validate:"min=0"`
}

type DatabaseConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	User          string `koanf:"user"`
	Password      string `koanf:"password"`
	Name          string `koanf:"name"`
	SSLMode       string `koanf:"ssl_mode"`
	QueryLogLevel string `koanf:"query_log_level"`
}

// URL renders the pgx connection string for this config.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ArchiveConfig points rotated log archives at an S3-compatible store.
// Shipping is off while Endpoint or Bucket are empty.
type ArchiveConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

func defaults() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        15,
			WriteTimeout:       15,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Dir:         "logs",
			File:        "app.log.json",
			Console:     true,
			MaxArchives: 4,
		},
		Ingress: IngressConfig{
			MaxBodyBytes: 1 << 20,
			RecentBuffer: 128,
		},
		Registry: RegistryConfig{Source: "static"},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "postgres",
			Name:          "safqagate",
			SSLMode:       "disable",
			QueryLogLevel: "warn",
		},
	}
}

// LoadConfig reads .env if present, then the SAFQAGATE_* environment on
// top of built-in defaults. Invalid configuration is fatal.
func LoadConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Best effort; absence of a .env file is the normal case outside dev.
	_ = godotenv.Load()

	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal config")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.Registry.Source == "file" && cfg.Registry.SeedFile == "" {
		logger.Fatal().Msg("registry.source=file needs registry.seed_file")
	}
	if cfg.Registry.Source == "postgres" && (cfg.Database.Host == "" || cfg.Database.Name == "") {
		logger.Fatal().Msg("registry.source=postgres needs database host and name")
	}

	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	cfg.Observability.ServiceName = "safqagate"
	cfg.Observability.Environment = cfg.Primary.Env
	if err := cfg.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return cfg
}
