// Package config loads worker configuration from features.yaml via viper,
// with environment variable overrides for every operational knob.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config is the full worker configuration.
type Config struct {
	Temporal      TemporalConfig      `mapstructure:"temporal"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Cache         CacheConfig         `mapstructure:"cache"`
	A2A           A2AConfig           `mapstructure:"a2a"`
	Sources       SourcesConfig       `mapstructure:"sources"`
	Providers     []ProviderConfig    `mapstructure:"providers"`
	Workflow      WorkflowConfig      `mapstructure:"workflow"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type CacheConfig struct {
	Path     string `mapstructure:"path"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type A2AConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms"`
}

func (c A2AConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c A2AConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

type SourcesConfig struct {
	// Endpoints maps canonical source names to basket HTTP endpoints.
	Endpoints      map[string]string `mapstructure:"endpoints"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	RatePerSecond  float64           `mapstructure:"rate_per_second"`
	RateBurst      int               `mapstructure:"rate_burst"`
}

func (c SourcesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ProviderConfig struct {
	Name      string `mapstructure:"name"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"api_key_env"`
}

type WorkflowConfig struct {
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	MaxRevisions   int     `mapstructure:"max_revisions"`
}

type ObservabilityConfig struct {
	HealthPort  int    `mapstructure:"health_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
}

// Load reads config from CONFIG_PATH (default config/features.yaml),
// applies defaults, then environment overrides. A missing file is not an
// error; defaults plus env are enough to run.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/features.yaml"
	}
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "strategy-analysis")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("cache.path", "data/strategy.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("a2a.enabled", false)
	v.SetDefault("a2a.url", "http://localhost:8003")
	v.SetDefault("a2a.timeout_seconds", 60)
	v.SetDefault("a2a.poll_interval_ms", 1000)
	v.SetDefault("sources.timeout_seconds", 30)
	v.SetDefault("sources.rate_per_second", 2.0)
	v.SetDefault("sources.rate_burst", 1)
	v.SetDefault("workflow.score_threshold", 7.0)
	v.SetDefault("workflow.max_revisions", 3)
	v.SetDefault("observability.health_port", 8081)
	v.SetDefault("observability.metrics_port", 2112)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("providers", []map[string]interface{}{
		{"name": "groq", "base_url": "https://api.groq.com/openai/v1", "model": "llama-3.3-70b-versatile", "api_key_env": "GROQ_API_KEY"},
		{"name": "gemini", "base_url": "https://generativelanguage.googleapis.com/v1beta/openai", "model": "gemini-2.0-flash", "api_key_env": "GEMINI_API_KEY"},
		{"name": "openrouter", "base_url": "https://openrouter.ai/api/v1", "model": "meta-llama/llama-3.3-70b-instruct", "api_key_env": "OPENROUTER_API_KEY"},
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEMPORAL_HOST"); v != "" {
		cfg.Temporal.HostPort = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.TTLHours = n
		}
	}
	if v := os.Getenv("USE_A2A_RESEARCHER"); v != "" {
		cfg.A2A.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("A2A_RESEARCHER_URL"); v != "" {
		cfg.A2A.URL = v
	}
	if v := os.Getenv("A2A_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.A2A.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("A2A_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.A2A.PollIntervalMs = n
		}
	}
	if v := os.Getenv("HEALTH_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Observability.HealthPort = n
		}
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Observability.MetricsPort = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
