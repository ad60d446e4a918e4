package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telcochurn/churn"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
log:
  level: debug
  format: console
model:
  path: /srv/churn/churn_model.json
  predict_timeout: 250ms
  cache_size: 0
form:
  language: id
  defaults:
    OnlineBackup: "No"
    StreamingTV: "No internet service"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/srv/churn/churn_model.json", cfg.Model.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Model.PredictTimeout)
	assert.Zero(t, cfg.Model.CacheSize)
	assert.Equal(t, "id", cfg.Form.Language)
	assert.Equal(t, "No internet service", cfg.Form.Defaults[churn.FieldStreamingTV])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHURN_HTTP_PORT", "7070")
	t.Setenv("CHURN_MODEL_PATH", "models/churn.json")
	t.Setenv("CHURN_LOG_LEVEL", "warn")
	t.Setenv("CHURN_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(writeConfig(t, "http:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "models/churn.json", cfg.Model.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"port":          "http:\n  port: 70000\n",
		"level":         "log:\n  level: loud\n",
		"format":        "log:\n  format: xml\n",
		"cache size":    "model:\n  cache_size: -1\n",
		"empty path":    "model:\n  path: \"\"\n",
		"bad default":   "form:\n  defaults:\n    Contract: Forever\n",
		"unknown field": "form:\n  defaults:\n    customerID: \"1\"\n",
		"not yaml":      "http: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadEnvPort(t *testing.T) {
	t.Setenv("CHURN_HTTP_PORT", "eighty")
	_, err := Load("")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "custom.yaml", ResolvePath("custom.yaml"))

	dir := t.TempDir()
	t.Chdir(dir)
	assert.Equal(t, "", ResolvePath(""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte("{}"), 0o600))
	assert.Equal(t, DefaultPath, ResolvePath(""))
}
