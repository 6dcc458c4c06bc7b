// Package config loads the pipeline configuration from flags, environment,
// an optional config file and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RAGPROMPT_OLLAMA_MODEL.
const EnvPrefix = "RAGPROMPT"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is passed explicitly into each component at construction.
type Config struct {
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Data      DataConfig      `mapstructure:"data"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	History   HistoryConfig   `mapstructure:"history"`
	Server    ServerConfig    `mapstructure:"server"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Log       LogConfig       `mapstructure:"log"`
}

// OllamaConfig describes the inference endpoint.
type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Options  OptionsConfig `mapstructure:"options"`
}

// OptionsConfig holds the decoding options.
type OptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	NumCtx      int     `mapstructure:"num_ctx"`
}

// DataConfig selects where documents come from.
type DataConfig struct {
	Mode       string   `mapstructure:"mode"`
	Folder     string   `mapstructure:"folder"`
	Manifest   string   `mapstructure:"manifest"`
	BaseDir    string   `mapstructure:"base_dir"`
	Extensions []string `mapstructure:"extensions"`
}

// RetrievalConfig selects the ranking strategy.
type RetrievalConfig struct {
	Strategy string `mapstructure:"strategy"`
	TopK     int    `mapstructure:"top_k"`
}

// HistoryConfig enables the run history database when Path is set.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so environment overrides are picked up.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ollama.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("ollama.model", "llama3")
	v.SetDefault("ollama.timeout", 5*time.Minute)
	v.SetDefault("ollama.options.temperature", 0.0)
	v.SetDefault("ollama.options.top_p", 0.9)
	v.SetDefault("ollama.options.num_ctx", 4096)

	v.SetDefault("data.mode", "manifest")
	v.SetDefault("data.folder", "data")
	v.SetDefault("data.manifest", "")
	v.SetDefault("data.base_dir", "")
	v.SetDefault("data.extensions", []string{})

	v.SetDefault("retrieval.strategy", "positional")
	v.SetDefault("retrieval.top_k", 5)

	v.SetDefault("history.path", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("watch.debounce", 500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load resolves the configuration. configFile may be empty.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Data.Manifest == "" {
		cfg.Data.Manifest = filepath.Join(cfg.Data.Folder, "manifest.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv seeds the process environment from .env files. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string

	if c.Ollama.Endpoint == "" {
		problems = append(problems, "ollama.endpoint is empty")
	}
	if c.Ollama.Model == "" {
		problems = append(problems, "ollama.model is empty")
	}
	if c.Ollama.Timeout < 0 {
		problems = append(problems, "ollama.timeout is negative")
	}
	if c.Ollama.Options.TopP <= 0 || c.Ollama.Options.TopP > 1 {
		problems = append(problems, fmt.Sprintf("ollama.options.top_p %v not in (0,1]", c.Ollama.Options.TopP))
	}
	if c.Ollama.Options.Temperature < 0 {
		problems = append(problems, "ollama.options.temperature is negative")
	}
	if c.Ollama.Options.NumCtx < 1 {
		problems = append(problems, "ollama.options.num_ctx must be positive")
	}

	switch c.Data.Mode {
	case "manifest", "directory":
	default:
		problems = append(problems, fmt.Sprintf("data.mode %q must be manifest or directory", c.Data.Mode))
	}
	if c.Retrieval.TopK < 1 {
		problems = append(problems, "retrieval.top_k must be at least 1")
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, "watch.debounce is negative")
	}
	if c.Retrieval.Strategy == "" {
		problems = append(problems, "retrieval.strategy is empty")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
