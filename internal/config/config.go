// Package config provides configuration loading and validation for the guide agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all guide agent settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Memory  MemoryConfig  `yaml:"memory"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
	Agent   AgentConfig   `yaml:"agent"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ModelConfig selects the OpenAI-compatible chat model.
type ModelConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Name       string `yaml:"name"`
	JudgeModel string `yaml:"judge_model"` // falls back to Name when empty
}

// MemoryConfig locates the conversation store.
type MemoryConfig struct {
	Path string `yaml:"path"` // ":memory:" keeps threads in process only
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// TracingConfig enables OTLP/HTTP span export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// AgentConfig bounds the agent run loop and the history it replays, and
// tunes sampling. Nil sampling values are left to the provider.
type AgentConfig struct {
	MaxTurns    uint     `yaml:"max_turns"`
	HistorySize int      `yaml:"history_size"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	MaxTokens   int64    `yaml:"max_tokens"` // 0 means no limit
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Model: ModelConfig{
			BaseURL: "https://api.openai.com/v1",
			Name:    "gpt-4o-mini",
		},
		Memory:  MemoryConfig{Path: ":memory:"},
		Log:     LogConfig{Level: "info"},
		Tracing: TracingConfig{ServiceName: "guide-agent"},
		Agent: AgentConfig{
			MaxTurns:    10,
			HistorySize: 20,
		},
	}
}

// HasModel reports whether an API key is configured.
func (c *Config) HasModel() bool {
	return c.Model.APIKey != ""
}

// JudgeModelName returns the model used for rubric scoring.
func (c *Config) JudgeModelName() string {
	if c.Model.JudgeModel != "" {
		return c.Model.JudgeModel
	}
	return c.Model.Name
}

// Load builds the configuration in layers: defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// environment variables. A .env file in the working directory is loaded into
// the environment first; variables already set are not overwritten.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFromPath(path, os.LookupEnv)
}

// LoadFromPath is Load without the .env step, reading variables through lookup.
func LoadFromPath(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			var fileCfg fileConfig
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			mergeConfig(cfg, &fileCfg)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if cfg.Memory.Path != ":memory:" {
		expanded, err := expandPath(cfg.Memory.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand memory path: %w", err)
		}
		cfg.Memory.Path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fileConfig uses pointer fields to detect what the file set.
type fileConfig struct {
	Server *struct {
		Addr *string `yaml:"addr"`
	} `yaml:"server"`
	Model *struct {
		APIKey     *string `yaml:"api_key"`
		BaseURL    *string `yaml:"base_url"`
		Name       *string `yaml:"name"`
		JudgeModel *string `yaml:"judge_model"`
	} `yaml:"model"`
	Memory *struct {
		Path *string `yaml:"path"`
	} `yaml:"memory"`
	Log *struct {
		Level *string `yaml:"level"`
	} `yaml:"log"`
	Tracing *struct {
		Endpoint    *string `yaml:"endpoint"`
		ServiceName *string `yaml:"service_name"`
	} `yaml:"tracing"`
	Agent *struct {
		MaxTurns    *uint    `yaml:"max_turns"`
		HistorySize *int     `yaml:"history_size"`
		Temperature *float64 `yaml:"temperature"`
		TopP        *float64 `yaml:"top_p"`
		MaxTokens   *int64   `yaml:"max_tokens"`
	} `yaml:"agent"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// mergeConfig applies the non-nil file values over cfg.
func mergeConfig(cfg *Config, f *fileConfig) {
	if f.Server != nil {
		set(&cfg.Server.Addr, f.Server.Addr)
	}
	if f.Model != nil {
		set(&cfg.Model.APIKey, f.Model.APIKey)
		set(&cfg.Model.BaseURL, f.Model.BaseURL)
		set(&cfg.Model.Name, f.Model.Name)
		set(&cfg.Model.JudgeModel, f.Model.JudgeModel)
	}
	if f.Memory != nil {
		set(&cfg.Memory.Path, f.Memory.Path)
	}
	if f.Log != nil {
		set(&cfg.Log.Level, f.Log.Level)
	}
	if f.Tracing != nil {
		set(&cfg.Tracing.Endpoint, f.Tracing.Endpoint)
		set(&cfg.Tracing.ServiceName, f.Tracing.ServiceName)
	}
	if f.Agent != nil {
		set(&cfg.Agent.MaxTurns, f.Agent.MaxTurns)
		set(&cfg.Agent.HistorySize, f.Agent.HistorySize)
		set(&cfg.Agent.MaxTokens, f.Agent.MaxTokens)
		if f.Agent.Temperature != nil {
			cfg.Agent.Temperature = f.Agent.Temperature
		}
		if f.Agent.TopP != nil {
			cfg.Agent.TopP = f.Agent.TopP
		}
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	// PORT is the convention of hosted platforms; GUIDE_AGENT_ADDR wins over it.
	if port, ok := lookup("PORT"); ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Addr = ":" + port
	}
	str("GUIDE_AGENT_ADDR", &cfg.Server.Addr)
	str("OPENAI_API_KEY", &cfg.Model.APIKey)
	str("OPENAI_BASE_URL", &cfg.Model.BaseURL)
	str("GUIDE_AGENT_MODEL", &cfg.Model.Name)
	str("GUIDE_AGENT_JUDGE_MODEL", &cfg.Model.JudgeModel)
	str("GUIDE_AGENT_DB", &cfg.Memory.Path)
	str("GUIDE_AGENT_LOG_LEVEL", &cfg.Log.Level)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be non-empty"))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name must be non-empty"))
	}
	if c.Model.BaseURL == "" {
		errs = append(errs, errors.New("model.base_url must be non-empty"))
	}
	if c.Memory.Path == "" {
		errs = append(errs, errors.New("memory.path must be non-empty"))
	}
	if !containsFold(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Log.Level))
	}
	if c.Agent.MaxTurns < 1 {
		errs = append(errs, errors.New("agent.max_turns must be >= 1"))
	}
	if c.Agent.HistorySize < 0 {
		errs = append(errs, errors.New("agent.history_size must be >= 0"))
	}
	if t := c.Agent.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("agent.temperature must be between 0 and 2, got %g", *t))
	}
	if p := c.Agent.TopP; p != nil && (*p <= 0 || *p > 1) {
		errs = append(errs, fmt.Errorf("agent.top_p must be in (0, 1], got %g", *p))
	}
	if c.Agent.MaxTokens < 0 {
		errs = append(errs, errors.New("agent.max_tokens must be >= 0"))
	}

	return errors.Join(errs...)
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
