package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the generation-api service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"generation-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"GENERATION_API_PORT" envDefault:"8188"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Auth - optional bearer validation at the HTTP boundary
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"ISSUER"`
	AuthAudience string `env:"AUDIENCE"`
	AuthJWKSURL  string `env:"JWKS_URL"`

	// Capability registry
	BackendsFile     string        `env:"BACKENDS_FILE" envDefault:"config/backends.yml"`
	ProbeTimeout     time.Duration `env:"REGISTRY_PROBE_TIMEOUT" envDefault:"5s"`
	ProbeConcurrency int           `env:"REGISTRY_PROBE_CONCURRENCY" envDefault:"4"`
	SnapshotMaxAge   time.Duration `env:"REGISTRY_SNAPSHOT_MAX_AGE" envDefault:"5m"`
	RefreshEnabled   bool          `env:"REGISTRY_REFRESH_ENABLED" envDefault:"true"`
	RefreshInterval  time.Duration `env:"REGISTRY_REFRESH_INTERVAL" envDefault:"5m"`
	RankingPolicy    string        `env:"REGISTRY_RANKING_POLICY" envDefault:"none"`

	// Chain execution
	MaxRetriesPerProvider int           `env:"CHAIN_MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay        time.Duration `env:"CHAIN_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay         time.Duration `env:"CHAIN_RETRY_MAX_DELAY" envDefault:"30s"`
	RetryJitter           float64       `env:"CHAIN_RETRY_JITTER" envDefault:"0.1"`
	ExecuteTimeout        time.Duration `env:"CHAIN_EXECUTE_TIMEOUT" envDefault:"5m"`
	ExecuteTimeoutCap     time.Duration `env:"CHAIN_EXECUTE_TIMEOUT_CAP" envDefault:"10m"`

	// Generation history (in-memory diagnostics, lost on restart)
	HistorySize int `env:"GENERATION_HISTORY_SIZE" envDefault:"256"`

	// Backends loaded from BackendsFile during Load.
	Backends []Backend
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthAudience) == "" {
			return nil, fmt.Errorf("AUDIENCE is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	switch cfg.RankingPolicy {
	case RankingPolicyNone, RankingPolicyLocalFirst, RankingPolicyCloudFirst:
	default:
		return nil, fmt.Errorf("REGISTRY_RANKING_POLICY must be one of %q, %q, %q",
			RankingPolicyNone, RankingPolicyLocalFirst, RankingPolicyCloudFirst)
	}

	if cfg.MaxRetriesPerProvider < 1 {
		return nil, fmt.Errorf("CHAIN_MAX_RETRIES must be at least 1")
	}
	if cfg.RetryBaseDelay <= 0 || cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		return nil, fmt.Errorf("CHAIN_RETRY_MAX_DELAY must be >= CHAIN_RETRY_BASE_DELAY > 0")
	}
	if cfg.RetryJitter < 0 || cfg.RetryJitter >= 1 {
		return nil, fmt.Errorf("CHAIN_RETRY_JITTER must be in [0, 1)")
	}
	if cfg.ProbeConcurrency < 1 {
		return nil, fmt.Errorf("REGISTRY_PROBE_CONCURRENCY must be at least 1")
	}
	if cfg.HistorySize < 1 {
		return nil, fmt.Errorf("GENERATION_HISTORY_SIZE must be at least 1")
	}

	backendsFile := strings.TrimSpace(cfg.BackendsFile)
	if backendsFile == "" {
		backendsFile = DefaultBackendsFile
	}
	backends, err := LoadBackends(backendsFile)
	if err != nil {
		return nil, fmt.Errorf("load backends config: %w", err)
	}
	cfg.Backends = backends

	return cfg, nil
}

// Ranking policies for priority ties between local and cloud models.
const (
	RankingPolicyNone       = "none"
	RankingPolicyLocalFirst = "local-first"
	RankingPolicyCloudFirst = "cloud-first"
)

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
