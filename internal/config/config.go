// Package config loads server settings from config.json and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted in Provider.
const (
	ProviderGemini    = "gemini"
	ProviderGeminiSDK = "gemini-sdk"
	ProviderLocal     = "local"
)

// Config represents the application configuration.
type Config struct {
	Env                    string   `json:"env"`
	Addr                   string   `json:"addr"`
	Provider               string   `json:"provider"`
	GeminiAPIKey           string   `json:"gemini_api_key"`
	GeminiModel            string   `json:"gemini_model"`
	GeminiBaseURL          string   `json:"gemini_base_url"`
	LocalLLMURL            string   `json:"local_llm_url"`
	LocalLLMModel          string   `json:"local_llm_model"`
	AllowOrigins           []string `json:"allow_origins"`
	MaxUploadBytes         int64    `json:"max_upload_bytes"`
	MaxImageWidth          uint     `json:"max_image_width"`
	AnalysisTimeoutSeconds int      `json:"analysis_timeout_seconds"`
	SessionIdleMinutes     int      `json:"session_idle_minutes"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Env:                    "development",
		Addr:                   ":8080",
		Provider:               ProviderGemini,
		AllowOrigins:           []string{"http://localhost:8080"},
		MaxUploadBytes:         10 << 20,
		MaxImageWidth:          1024,
		AnalysisTimeoutSeconds: 45,
		SessionIdleMinutes:     30,
	}
}

// Load reads the JSON file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	num := func(dst *int, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(&c.Env, "APP_ENV")
	str(&c.Addr, "CHEFAI_ADDR")
	str(&c.Provider, "CHEFAI_PROVIDER")
	str(&c.GeminiAPIKey, "GEMINI_API_KEY", "API_KEY")
	str(&c.GeminiModel, "GEMINI_MODEL")
	str(&c.GeminiBaseURL, "GEMINI_BASE_URL")
	str(&c.LocalLLMURL, "LOCAL_LLM_URL")
	str(&c.LocalLLMModel, "LOCAL_LLM_MODEL")

	if v, ok := lookup("CHEFAI_ALLOW_ORIGINS"); ok && v != "" {
		c.AllowOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowOrigins = append(c.AllowOrigins, o)
			}
		}
	}
	if err := num(&c.AnalysisTimeoutSeconds, "CHEFAI_ANALYSIS_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	return num(&c.SessionIdleMinutes, "CHEFAI_SESSION_IDLE_MINUTES")
}

// Validate checks the settings that would break the server at runtime. A
// missing API key is not checked here; it is reported when an analysis is
// requested.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGeminiSDK, ProviderLocal:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.AnalysisTimeoutSeconds <= 0 {
		return errors.New("analysis_timeout_seconds must be positive")
	}
	if c.SessionIdleMinutes <= 0 {
		return errors.New("session_idle_minutes must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "production" }

// APIKeyPresent reports whether the selected provider has the credential it needs.
func (c Config) APIKeyPresent() bool {
	return c.Provider == ProviderLocal || c.GeminiAPIKey != ""
}

// AnalysisTimeout is the deadline for one analysis.
func (c Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

// SessionIdle is how long an unused session is kept.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}
