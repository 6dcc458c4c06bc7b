package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/api/generate", cfg.Ollama.Endpoint)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, 5*time.Minute, cfg.Ollama.Timeout)
	assert.Equal(t, 0.0, cfg.Ollama.Options.Temperature)
	assert.Equal(t, 0.9, cfg.Ollama.Options.TopP)
	assert.Equal(t, 4096, cfg.Ollama.Options.NumCtx)
	assert.Equal(t, "manifest", cfg.Data.Mode)
	assert.Equal(t, "data", cfg.Data.Folder)
	assert.Equal(t, filepath.Join("data", "manifest.json"), cfg.Data.Manifest)
	assert.Equal(t, "positional", cfg.Retrieval.Strategy)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RAGPROMPT_OLLAMA_MODEL", "mistral")
	t.Setenv("RAGPROMPT_RETRIEVAL_TOP_K", "2")
	t.Setenv("RAGPROMPT_DATA_FOLDER", "kb")
	t.Setenv("RAGPROMPT_OLLAMA_TIMEOUT", "30s")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, filepath.Join("kb", "manifest.json"), cfg.Data.Manifest)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragprompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ollama:
  model: qwen2
  options:
    num_ctx: 8192
data:
  mode: directory
  folder: docs
  extensions: [".txt", ".md"]
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "qwen2", cfg.Ollama.Model)
	assert.Equal(t, 8192, cfg.Ollama.Options.NumCtx)
	assert.Equal(t, 0.9, cfg.Ollama.Options.TopP)
	assert.Equal(t, "directory", cfg.Data.Mode)
	assert.Equal(t, []string{".txt", ".md"}, cfg.Data.Extensions)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	v := viper.New()
	v.Set("data.mode", "s3")
	v.Set("retrieval.top_k", 0)

	_, err := Load(v, "")
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "data.mode")
	assert.Contains(t, err.Error(), "retrieval.top_k")
}

func TestValidate_TopP(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	cfg.Ollama.Options.TopP = 1.5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Ollama.Options.TopP = 1
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGPROMPT_DOTENV_PROBE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RAGPROMPT_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("RAGPROMPT_DOTENV_PROBE"))
}
