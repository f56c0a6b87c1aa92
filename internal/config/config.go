// Package config loads the tutor runtime's static configuration, following
// the teacher's internal/config pattern: a root Config struct tagged for
// gopkg.in/yaml.v3, loaded from a file and then overridden by environment
// variables (spec §6 "Static configuration").
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the tutor runtime.
type Config struct {
	Debug bool   `yaml:"debug"`
	LLM   LLMConfig `yaml:"llm"`

	AIRatio                float64 `yaml:"ai_ratio"`
	RateLimitMaxRequests   int     `yaml:"rate_limit_max_requests"`
	RateLimitWindowSeconds int     `yaml:"rate_limit_window_seconds"`
	CORSOrigins            []string `yaml:"cors_origins"`

	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Session  SessionConfig  `yaml:"session"`
	Patterns PatternsConfig `yaml:"patterns"`

	Server ServerConfig `yaml:"server"`
}

// LLMConfig carries credentials and defaults for one or more LLM backends.
// Following the teacher's provider-map shape, trimmed to what GenerativeEngine
// and the Supervisor's LLM fallback actually need.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`
}

// LLMProviderConfig is one backend's credentials and default model.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url,omitempty"`
}

// SandboxConfig configures SafeMathSandbox evaluation limits.
type SandboxConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// SessionConfig configures SessionMemory bounds.
type SessionConfig struct {
	MaxMessages        int           `yaml:"max_messages"`
	KeepVerbatim       int           `yaml:"keep_verbatim"`
	IdleTimeout         time.Duration `yaml:"idle_timeout"`
	PerSessionLockWait time.Duration `yaml:"per_session_lock_wait"`
	TurnDeadline       time.Duration `yaml:"turn_deadline"`
}

// PatternsConfig locates the bundled curriculum catalog and preference table.
type PatternsConfig struct {
	CatalogDir      string `yaml:"catalog_dir"`
	PreferencesFile string `yaml:"preferences_file"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the documented defaults (spec §5/§6): 0.5 ai_ratio,
// 30 requests / 60 s rate limiting, M=40/keep-20 session bounds, 24h idle
// timeout, 30s per-session lock wait, 60s turn deadline.
func Default() Config {
	return Config{
		Debug: false,
		AIRatio:                0.5,
		RateLimitMaxRequests:   30,
		RateLimitWindowSeconds: 60,
		CORSOrigins:            nil,
		Sandbox: SandboxConfig{
			EvalTimeout: 200 * time.Millisecond,
		},
		Session: SessionConfig{
			MaxMessages:        40,
			KeepVerbatim:       20,
			IdleTimeout:        24 * time.Hour,
			PerSessionLockWait: 30 * time.Second,
			TurnDeadline:       60 * time.Second,
		},
		Patterns: PatternsConfig{
			CatalogDir:      "data/patterns",
			PreferencesFile: "data/patterns/preferences.yaml",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// Load reads path (if non-empty and present) over the documented defaults,
// then applies environment overrides, following the teacher's config
// loading shape (file then env, env always wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := LoadRaw(path)
			if err != nil {
				return Config{}, err
			}
			decoded, err := decodeRawConfig(raw)
			if err != nil {
				return Config{}, err
			}
			cfg = mergeOverDefault(cfg, *decoded, raw)
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeOverDefault applies only the keys actually present in the raw file
// on top of base, so an omitted field keeps its documented default rather
// than being zeroed out by decoding into an empty Config.
func mergeOverDefault(base, decoded Config, raw map[string]any) Config {
	if _, ok := raw["debug"]; ok {
		base.Debug = decoded.Debug
	}
	if _, ok := raw["llm"]; ok {
		base.LLM = decoded.LLM
	}
	if _, ok := raw["ai_ratio"]; ok {
		base.AIRatio = decoded.AIRatio
	}
	if _, ok := raw["rate_limit_max_requests"]; ok {
		base.RateLimitMaxRequests = decoded.RateLimitMaxRequests
	}
	if _, ok := raw["rate_limit_window_seconds"]; ok {
		base.RateLimitWindowSeconds = decoded.RateLimitWindowSeconds
	}
	if _, ok := raw["cors_origins"]; ok {
		base.CORSOrigins = decoded.CORSOrigins
	}
	if _, ok := raw["sandbox"]; ok {
		base.Sandbox = decoded.Sandbox
	}
	if _, ok := raw["session"]; ok {
		base.Session = decoded.Session
	}
	if _, ok := raw["patterns"]; ok {
		base.Patterns = decoded.Patterns
	}
	if _, ok := raw["server"]; ok {
		base.Server = decoded.Server
	}
	return base
}

// applyEnvOverrides mirrors the teacher's getEnv/getEnvInt/getEnvBool
// helpers: environment variables always take precedence over the file.
func applyEnvOverrides(cfg *Config) {
	if v, ok := getEnv("TUTOR_DEBUG"); ok {
		cfg.Debug = parseBool(v, cfg.Debug)
	}
	if v, ok := getEnv("TUTOR_AI_RATIO"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AIRatio = f
		}
	}
	if v, ok := getEnv("TUTOR_RATE_LIMIT_MAX_REQUESTS"); ok {
		cfg.RateLimitMaxRequests = parseInt(v, cfg.RateLimitMaxRequests)
	}
	if v, ok := getEnv("TUTOR_RATE_LIMIT_WINDOW_SECONDS"); ok {
		cfg.RateLimitWindowSeconds = parseInt(v, cfg.RateLimitWindowSeconds)
	}
	if v, ok := getEnv("TUTOR_CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitCSV(v)
	}
	if v, ok := getEnv("TUTOR_SERVER_PORT"); ok {
		cfg.Server.Port = parseInt(v, cfg.Server.Port)
	}
	if v, ok := getEnv("TUTOR_LLM_DEFAULT_PROVIDER"); ok {
		cfg.LLM.DefaultProvider = v
	}
	applyProviderKeyEnvOverrides(cfg)
}

// applyProviderKeyEnvOverrides picks up ANTHROPIC_API_KEY / OPENAI_API_KEY
// the way the teacher's provider wiring does, without requiring the yaml
// file to name every provider explicitly.
func applyProviderKeyEnvOverrides(cfg *Config) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = map[string]LLMProviderConfig{}
	}
	if key, ok := getEnv("ANTHROPIC_API_KEY"); ok {
		p := cfg.LLM.Providers["anthropic"]
		p.APIKey = key
		cfg.LLM.Providers["anthropic"] = p
	}
	if key, ok := getEnv("OPENAI_API_KEY"); ok {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = key
		cfg.LLM.Providers["openai"] = p
	}
}

func validate(cfg Config) error {
	if cfg.AIRatio < 0 || cfg.AIRatio > 1 {
		return fmt.Errorf("config: ai_ratio must be in [0,1], got %f", cfg.AIRatio)
	}
	if !cfg.Debug {
		for _, origin := range cfg.CORSOrigins {
			if strings.TrimSpace(origin) == "*" {
				return fmt.Errorf("config: cors_origins may not contain \"*\" outside debug mode")
			}
		}
	}
	return nil
}

func getEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
