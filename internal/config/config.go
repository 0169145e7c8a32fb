// Package config loads Athlete Sentinel configuration from environment
// variables and an optional backends.yaml describing the generation backend
// chain.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Athlete Sentinel backend.
type Config struct {
	Port       int
	Version    string
	Database   DatabaseConfig
	Telemetry  TelemetryConfig
	Generation GenerationConfig
	Device     DeviceConfig
}

type DatabaseConfig struct {
	// URL selects PostgreSQL when non-empty; the in-memory store otherwise.
	URL string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// GenerationConfig configures the structured-generation gateway.
type GenerationConfig struct {
	Timeout      time.Duration
	MaxTokens    int
	BackendsFile string
	Backends     []BackendConfig
}

// BackendConfig describes one entry of the ordered backend chain.
type BackendConfig struct {
	Kind      string `yaml:"kind"` // "gemini" or "openai"
	Name      string `yaml:"name"`
	Model     string `yaml:"model"`
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey resolves the backend's API key from its configured env var.
func (b BackendConfig) APIKey() string {
	if b.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(b.APIKeyEnv)
}

// DeviceConfig configures the device-status channel.
type DeviceConfig struct {
	// SimulateInterval drives the connect/disconnect simulator; zero
	// disables it.
	SimulateInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults,
// then resolves the backend chain from the YAML file when one is present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:    envInt("SENTINEL_PORT", 8080),
		Version: envStr("SENTINEL_VERSION", "0.4.0"),
		Database: DatabaseConfig{
			URL: envStr("DATABASE_URL", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "athlete-sentinel"),
		},
		Generation: GenerationConfig{
			Timeout:      envDur("GENERATION_TIMEOUT", 30*time.Second),
			MaxTokens:    envInt("GENERATION_MAX_TOKENS", 256),
			BackendsFile: envStr("SENTINEL_BACKENDS_FILE", "backends.yaml"),
		},
		Device: DeviceConfig{
			SimulateInterval: envDur("DEVICE_SIMULATE_INTERVAL", 0),
		},
	}

	backends, err := loadBackends(cfg.Generation.BackendsFile)
	if err != nil {
		return nil, err
	}
	cfg.Generation.Backends = backends
	return cfg, nil
}

// loadBackends reads the backend chain from the YAML file. When the file is
// absent, the chain is derived from well-known API key env vars so a bare
// GEMINI_API_KEY is enough to run.
func loadBackends(path string) ([]BackendConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return envBackends(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file struct {
		Backends []BackendConfig `yaml:"backends"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for i, b := range file.Backends {
		if b.Kind != "gemini" && b.Kind != "openai" {
			return nil, fmt.Errorf("config: backend %d: unknown kind %q", i, b.Kind)
		}
	}
	return file.Backends, nil
}

// envBackends builds the default chain: Gemini first when its key is set,
// then any OpenAI-compatible endpoint.
func envBackends() []BackendConfig {
	var chain []BackendConfig
	if os.Getenv("GEMINI_API_KEY") != "" {
		chain = append(chain, BackendConfig{
			Kind:      "gemini",
			Name:      "gemini",
			APIKeyEnv: "GEMINI_API_KEY",
		})
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		chain = append(chain, BackendConfig{
			Kind:      "openai",
			Name:      "openai",
			Model:     envStr("OPENAI_MODEL", "gpt-4o-mini"),
			Endpoint:  envStr("OPENAI_BASE_URL", ""),
			APIKeyEnv: "OPENAI_API_KEY",
		})
	}
	return chain
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
