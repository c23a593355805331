package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultAPIVersion = "2024-01"

type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port               int
	CORSAllowedOrigins []string
}

// UpstreamConfig points at the commerce platform's admin API.
type UpstreamConfig struct {
	StoreURL       string
	AccessToken    string
	APIVersion     string
	BreakerEnabled bool
}

type LogConfig struct {
	Level string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

type DashboardConfig struct {
	GatewayURL      string
	PreferencesFile string
}

var (
	ErrMissingStoreURL    = errors.New("SHOPIFY_STORE_URL is required")
	ErrMissingAccessToken = errors.New("SHOPIFY_ACCESS_TOKEN is required")
)

// Load reads configuration from a .env file (if present) and the environment.
// Real environment variables win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHOPIFY_API_VERSION", defaultAPIVersion)
	v.SetDefault("UPSTREAM_BREAKER_ENABLED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_SERVICE_NAME", "shopdash-gateway")
	v.SetDefault("OTEL_ENVIRONMENT", "development")
	v.SetDefault("GATEWAY_URL", "http://localhost:8000")
	v.SetDefault("PREFERENCES_FILE", defaultPreferencesFile())

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetInt("SERVER_PORT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Upstream: UpstreamConfig{
			StoreURL:       strings.TrimRight(v.GetString("SHOPIFY_STORE_URL"), "/"),
			AccessToken:    v.GetString("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:     v.GetString("SHOPIFY_API_VERSION"),
			BreakerEnabled: v.GetBool("UPSTREAM_BREAKER_ENABLED"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			Environment:  v.GetString("OTEL_ENVIRONMENT"),
		},
		Dashboard: DashboardConfig{
			GatewayURL:      strings.TrimRight(v.GetString("GATEWAY_URL"), "/"),
			PreferencesFile: v.GetString("PREFERENCES_FILE"),
		},
	}

	return cfg, nil
}

// ValidateGateway reports the settings the gateway cannot start without.
func (c *Config) ValidateGateway() error {
	var errs []error
	if c.Upstream.StoreURL == "" {
		errs = append(errs, ErrMissingStoreURL)
	}
	if c.Upstream.AccessToken == "" {
		errs = append(errs, ErrMissingAccessToken)
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaultPreferencesFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopdash.yaml"
	}
	return filepath.Join(home, ".shopdash.yaml")
}
