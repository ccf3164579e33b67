// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Retry      RetryConfig      `yaml:"retry"`
	Pool       PoolConfig       `yaml:"pool"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Store      StoreConfig      `yaml:"store"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LLMConfig struct {
	// Provider is gemini, gateway or mock.
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	GeminiKeys []string      `yaml:"gemini_keys"`
	GatewayURL string        `yaml:"gateway_url"`
	GatewayKey string        `yaml:"gateway_key"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type PoolConfig struct {
	Workers int `yaml:"workers"`
}

type AnalysisConfig struct {
	ChunkSeconds float64 `yaml:"chunk_seconds"`
}

type TranscriptConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Mock    bool          `yaml:"mock"`
}

type MetadataConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	// DSN is a SQLite path or a postgres:// URL. "none" disables persistence.
	DSN string `yaml:"dsn"`
}

// Load reads path (a missing DefaultPath is not an error), then applies
// environment overrides and validates.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		case err != nil:
			return c, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Server.Address = ":" + v
	}
	if v := getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	if getenv("USE_MOCK_LLM") == "true" {
		c.LLM.Provider = "mock"
	}
	if v := getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := getenv("GEMINI_API_KEYS"); v != "" {
		c.LLM.GeminiKeys = splitList(v)
	} else if v := getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.GeminiKeys = []string{v}
	}
	if v := getenv("LLM_GATEWAY_URL"); v != "" {
		c.LLM.GatewayURL = v
	}
	if v := getenv("LLM_API_KEY"); v != "" {
		c.LLM.GatewayKey = v
	}
	if getenv("USE_MOCK_TRANSCRIBE") == "true" {
		c.Transcript.Mock = true
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
	} else if v := getenv("DB_PATH"); v != "" {
		c.Store.DSN = v
	}

	var err error
	if v := getenv("WORKERS"); v != "" {
		if c.Pool.Workers, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("WORKERS: %w", err)
		}
	}
	if v := getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if c.Retry.MaxAttempts, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("RETRY_MAX_ATTEMPTS: %w", err)
		}
	}
	if v := getenv("RETRY_BASE_DELAY"); v != "" {
		if c.Retry.BaseDelay, err = parseDuration(v); err != nil {
			return fmt.Errorf("RETRY_BASE_DELAY: %w", err)
		}
	}
	if v := getenv("CHUNK_SECONDS"); v != "" {
		if c.Analysis.ChunkSeconds, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("CHUNK_SECONDS: %w", err)
		}
	}
	return nil
}

// Validate rejects unusable settings and fills defaults for the rest.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "":
		c.LLM.Provider = "gemini"
		fallthrough
	case "gemini":
		if len(c.LLM.GeminiKeys) == 0 {
			return fmt.Errorf("llm.gemini_keys is required (GEMINI_API_KEY or GEMINI_API_KEYS)")
		}
	case "gateway":
		if c.LLM.GatewayURL == "" || c.LLM.GatewayKey == "" {
			return fmt.Errorf("llm.gateway_url and llm.gateway_key are required for the gateway provider")
		}
	case "mock":
	default:
		return fmt.Errorf("llm.provider %q is not one of gemini, gateway, mock", c.LLM.Provider)
	}
	if c.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	if c.Analysis.ChunkSeconds < 0 {
		return fmt.Errorf("analysis.chunk_seconds must not be negative")
	}

	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 90 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 5 * time.Second
	}
	if c.Pool.Workers == 0 {
		c.Pool.Workers = 3
	}
	if c.Analysis.ChunkSeconds == 0 {
		c.Analysis.ChunkSeconds = 120
	}
	if c.Transcript.Timeout == 0 {
		c.Transcript.Timeout = 12 * time.Second
	}
	if c.Metadata.Timeout == 0 {
		c.Metadata.Timeout = 10 * time.Second
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "video_analysis.db"
	}
	return nil
}

// PersistenceEnabled reports whether analyses should be stored.
func (c Config) PersistenceEnabled() bool {
	return c.Store.DSN != "none"
}

// parseDuration accepts Go durations ("5s") and bare seconds ("5").
func parseDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
