// Package config provides configuration for the registry.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/tracing"
)

// Config holds the registry configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Store    StoreConfig    `mapstructure:"store"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Tracing  tracing.Config `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
	Registry ClientConfig   `mapstructure:"registry"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// RPCConfig configures the JSON-RPC listener. An empty Addr disables it.
type RPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig configures the durable store.
type StoreConfig struct {
	// Enabled=false runs the registry cache-only.
	Enabled bool          `mapstructure:"enabled"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PolicyConfig configures registration admission.
type PolicyConfig struct {
	// File is a rego module; empty uses the built-in allow-all policy.
	File string `mapstructure:"file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClientConfig configures the CLI's connection to a running registry.
type ClientConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{Port: 6900},
		Store: StoreConfig{
			Enabled: true,
			DSN:     "file:registry.db?cache=shared&mode=rwc",
			Timeout: 5 * time.Second,
		},
		Tracing: tracing.Config{
			Exporter:     "none",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "agent-registry",
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		Registry: ClientConfig{URL: "http://localhost:6900", Timeout: 10 * time.Second},
	}
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string][]string{
	"http.port":             {"PORT", "HTTP_PORT"},
	"rpc.addr":              {"RPC_ADDR"},
	"store.enabled":         {"STORE_ENABLED"},
	"store.dsn":             {"DATABASE_URL"},
	"store.timeout":         {"STORE_TIMEOUT"},
	"policy.file":           {"POLICY_FILE"},
	"tracing.enabled":       {"TRACING_ENABLED"},
	"tracing.exporter":      {"TRACING_EXPORTER"},
	"tracing.otlp_endpoint": {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"tracing.sample_rate":   {"TRACING_SAMPLE_RATE"},
	"tracing.service_name":  {"OTEL_SERVICE_NAME"},
	"log.level":             {"LOG_LEVEL"},
	"log.format":            {"LOG_FORMAT"},
	"registry.url":          {"REGISTRY_URL"},
	"registry.timeout":      {"REGISTRY_TIMEOUT"},
}

// Load reads configuration from defaults, the optional config file,
// environment variables and any flags already bound to v, in increasing
// order of precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	d := Defaults()
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("rpc.addr", d.RPC.Addr)
	v.SetDefault("store.enabled", d.Store.Enabled)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.timeout", d.Store.Timeout)
	v.SetDefault("policy.file", d.Policy.File)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("registry.url", d.Registry.URL)
	v.SetDefault("registry.timeout", d.Registry.Timeout)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("invalid http.port %d", cfg.HTTP.Port)
	}
	return &cfg, nil
}
