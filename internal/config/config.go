package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gifsmith/reframe/internal/logging"
	"github.com/gifsmith/reframe/pkg/fetch"
	"github.com/gifsmith/reframe/pkg/io/video"
)

// Config represents the application configuration
type Config struct {
	Fetch    FetchConfig  `yaml:"fetch"`
	Output   OutputConfig `yaml:"output"`
	GIF      GIFConfig    `yaml:"gif"`
	WebP     WebPConfig   `yaml:"webp"`
	LogLevel string       `yaml:"log_level"`
}

type FetchConfig struct {
	UserAgent  string        `yaml:"user_agent"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

type OutputConfig struct {
	Dir            string `yaml:"dir"`
	BaseName       string `yaml:"base_name"`
	GIFExtension   string `yaml:"gif_extension"`
	StillExtension string `yaml:"still_extension"`
}

type GIFConfig struct {
	LoopCount int    `yaml:"loop_count"`
	Optimize  bool   `yaml:"optimize"`
	Dither    bool   `yaml:"dither"`
	Scaler    string `yaml:"scaler"`
}

type WebPConfig struct {
	Quality  float32 `yaml:"quality"`
	Lossless bool    `yaml:"lossless"`
}

// ValidationError reports the first invalid field found by Validate.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	f := fetch.DefaultConfig()
	return &Config{
		Fetch: FetchConfig{
			UserAgent:  f.UserAgent,
			Retries:    f.Retries,
			RetryDelay: f.RetryDelay,
			Timeout:    f.Timeout,
		},
		Output: OutputConfig{
			Dir:            ".",
			BaseName:       "1-out",
			GIFExtension:   ".gif",
			StillExtension: ".png",
		},
		GIF: GIFConfig{
			LoopCount: 1000,
			Optimize:  true,
			Dither:    true,
			Scaler:    "catmullrom",
		},
		WebP: WebPConfig{
			Quality: 80,
		},
		LogLevel: "info",
	}
}

// Load reads and parses the configuration file. Fields missing from the file
// keep their default values. The result is not validated, so that callers
// can apply overrides first and call Validate once.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late, deep inside a
// resize.
func (c *Config) Validate() error {
	switch {
	case c.Fetch.Retries < 0:
		return &ValidationError{"fetch.retries", "must not be negative"}
	case c.Fetch.RetryDelay < 0:
		return &ValidationError{"fetch.retry_delay", "must not be negative"}
	case c.Fetch.Timeout < 0:
		return &ValidationError{"fetch.timeout", "must not be negative"}
	case c.Output.BaseName == "":
		return &ValidationError{"output.base_name", "is required"}
	case c.GIF.LoopCount < -1 || c.GIF.LoopCount > 0xffff:
		return &ValidationError{"gif.loop_count", "must be between -1 and 65535"}
	case c.WebP.Quality < 0 || c.WebP.Quality > 100:
		return &ValidationError{"webp.quality", "must be between 0 and 100"}
	}

	if _, err := video.ScalerByName(c.GIF.Scaler); err != nil {
		return &ValidationError{"gif.scaler", err.Error()}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &ValidationError{"log_level", err.Error()}
	}

	return nil
}

// FetcherConfig converts the fetch section for fetch.New.
func (c *Config) FetcherConfig() fetch.Config {
	return fetch.Config{
		UserAgent:  c.Fetch.UserAgent,
		Retries:    c.Fetch.Retries,
		RetryDelay: c.Fetch.RetryDelay,
		Timeout:    c.Fetch.Timeout,
	}
}
