// Package config loads world configuration for the ecsd binary: the type
// registry's component and tag names, tick loop settings and the optional
// delta observer endpoint.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	World    World    `yaml:"world"`
	Observer Observer `yaml:"observer"`
	LogLevel string   `yaml:"log_level"`
}

type World struct {
	Components []string `yaml:"components"`
	Tags       []string `yaml:"tags"`
	TickEvery  Duration `yaml:"tick_every"`
}

// Duration decodes YAML scalars like "100ms" via time.ParseDuration, which
// yaml.v3 does not do for time.Duration itself.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like 50ms: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Observer struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		World:    World{TickEvery: Duration(50 * time.Millisecond)},
		Observer: Observer{Addr: "127.0.0.1:8391"},
		LogLevel: "info",
	}
}

// Load decodes YAML config from r on top of the defaults.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads and decodes the YAML file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) validate() error {
	if c.World.TickEvery <= 0 {
		return fmt.Errorf("world.tick_every must be positive, got %s", c.World.TickEvery.Std())
	}
	if c.Observer.Enabled && c.Observer.Addr == "" {
		return fmt.Errorf("observer.addr required when observer is enabled")
	}
	return nil
}
