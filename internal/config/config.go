// Package config loads lattice settings from an optional lattice.yaml at the
// project root, with LATTICE_* environment variables layered on top. Missing
// file means defaults; a malformed file is an error.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration surface for an engine and its CLI.
type Config struct {
	CacheDir     string   `json:"cacheDir" mapstructure:"cacheDir"`
	CacheFile    string   `json:"cacheFile" mapstructure:"cacheFile"`
	MaxFileSize  int64    `json:"maxFileSize" mapstructure:"maxFileSize"`
	IgnoreDirs   []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
	IgnoreGlobs  []string `json:"ignoreGlobs" mapstructure:"ignoreGlobs"`
	UseGitignore bool     `json:"useGitignore" mapstructure:"useGitignore"`
	Languages    []string `json:"languages" mapstructure:"languages"`

	Ranker  RankerConfig  `json:"ranker" mapstructure:"ranker"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// RankerConfig configures the optional ranking capability.
type RankerConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	URL       string `json:"url" mapstructure:"url"`
	Model     string `json:"model" mapstructure:"model"`
	TimeoutMS int    `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// Timeout returns the request timeout as a duration.
func (r RankerConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// LoggingConfig configures the slog handler built by NewLogger.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		CacheDir:     ".lattice",
		CacheFile:    "index.json",
		MaxFileSize:  1 << 20,
		IgnoreDirs:   []string{"node_modules", "vendor", "dist", "build", "target", "__pycache__"},
		IgnoreGlobs:  []string{},
		UseGitignore: true,
		Languages:    []string{},
		Ranker: RankerConfig{
			Enabled:   true,
			URL:       "http://localhost:11434",
			Model:     "llama3.2",
			TimeoutMS: 30000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads lattice.yaml from root if present and applies LATTICE_*
// environment variables. A missing file is not an error.
func Load(root string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("cacheDir", def.CacheDir)
	v.SetDefault("cacheFile", def.CacheFile)
	v.SetDefault("maxFileSize", def.MaxFileSize)
	v.SetDefault("ignoreDirs", def.IgnoreDirs)
	v.SetDefault("ignoreGlobs", def.IgnoreGlobs)
	v.SetDefault("useGitignore", def.UseGitignore)
	v.SetDefault("languages", def.Languages)
	v.SetDefault("ranker.enabled", def.Ranker.Enabled)
	v.SetDefault("ranker.url", def.Ranker.URL)
	v.SetDefault("ranker.model", def.Ranker.Model)
	v.SetDefault("ranker.timeoutMs", def.Ranker.TimeoutMS)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	v.SetConfigName("lattice")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	v.SetEnvPrefix("LATTICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No file. Defaults and environment still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("config: cacheDir must not be empty")
	}
	if c.CacheFile == "" {
		return fmt.Errorf("config: cacheFile must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("config: maxFileSize must be positive, got %d", c.MaxFileSize)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// NewLogger builds a slog.Logger from the logging settings, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(c.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
