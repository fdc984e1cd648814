// Package driver glues a guide.Guide to a caller-supplied generator: the
// "ask for a chooser, run the generator, dispose it, stop on exhaustion or a
// cap" loop, plus the YAML configuration, rate limiting, and parallel
// fan-out around that loop.
package driver

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-loaded configuration for one driver run.
type Config struct {
	Seed           int64         `yaml:"seed"`
	GuideKind      string        `yaml:"guide"` // "default", "bfs", "sampler"
	MaxTraversals  int           `yaml:"max_traversals"`
	Debug          bool          `yaml:"debug"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	TracingEnabled bool          `yaml:"tracing_enabled"`
	JaegerEndpoint string        `yaml:"jaeger_endpoint"`
	RateLimit      float64       `yaml:"rate_limit_per_sec"`
	Timeout        time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sane defaults for an ad hoc run without a config
// file: a time-seeded default guide, unbounded traversals, no debug, no
// metrics or tracing.
func DefaultConfig() Config {
	return Config{
		Seed:          time.Now().UnixNano(),
		GuideKind:     "default",
		MaxTraversals: 0,
	}
}

// LoadConfig reads path as YAML into a Config seeded from DefaultConfig. The
// CONFIG environment variable overrides path when set; "driver.yaml" is used
// when both are empty. A missing file is not an error: DefaultConfig is
// returned as-is.
func LoadConfig(path string) (Config, error) {
	if envPath := os.Getenv("CONFIG"); envPath != "" {
		path = envPath
	}
	if path == "" {
		path = "driver.yaml"
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse YAML config %s: %w", path, err)
	}
	return cfg, nil
}
