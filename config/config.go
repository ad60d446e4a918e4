// Package config loads service settings from YAML, .env and CHURN_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"telcochurn/churn"
	"telcochurn/ml"
)

const DefaultPath = "config.yaml"

type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
	Model ModelConfig `yaml:"model"`
	Form  FormConfig  `yaml:"form"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type ModelConfig struct {
	Path           string        `yaml:"path"`
	PredictTimeout time.Duration `yaml:"predict_timeout"`
	CacheSize      int           `yaml:"cache_size"`
	Watch          bool          `yaml:"watch"`
}

type FormConfig struct {
	// Defaults fill fields the form does not ask for.
	Defaults map[string]string `yaml:"defaults"`
	Language string            `yaml:"language"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Model: ModelConfig{
			Path:           ml.DefaultArtifactPath,
			PredictTimeout: 2 * time.Second,
			CacheSize:      256,
			Watch:          true,
		},
		Form: FormConfig{
			Language: "en",
		},
	}
}

// ResolvePath picks the config file: an explicit path wins, then
// config.yaml in the working directory, then its parent. Empty means none.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{DefaultPath, "../" + DefaultPath} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load reads .env (if present), the YAML file at path (if non-empty) and
// CHURN_* overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CHURN_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHURN_HTTP_PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv("CHURN_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("CHURN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHURN_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("CHURN_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.HTTP.AllowedOrigins = origins
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, console", c.Log.Format))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.Model.CacheSize < 0 {
		errs = append(errs, errors.New("model.cache_size must not be negative"))
	}
	if c.Model.PredictTimeout < 0 {
		errs = append(errs, errors.New("model.predict_timeout must not be negative"))
	}
	if err := churn.CheckDefaults(c.Form.Defaults); err != nil {
		errs = append(errs, fmt.Errorf("form.defaults: %w", err))
	}
	return errors.Join(errs...)
}
