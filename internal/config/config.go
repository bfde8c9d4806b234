package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/l1jgo/ecscore/internal/core/ecs"
)

type Config struct {
	Entities EntitiesConfig `toml:"entities"`
	Schedule ScheduleConfig `toml:"schedule"`
	Logging  LoggingConfig  `toml:"logging"`
}

type EntitiesConfig struct {
	InitialCapacity int    `toml:"initial_capacity"`
	WrapPolicy      string `toml:"wrap_policy"` // "wrap" or "retire"
}

type ScheduleConfig struct {
	Manifest         string        `toml:"manifest"`    // YAML system declarations, optional
	ScriptsDir       string        `toml:"scripts_dir"` // Lua systems, optional
	StrictReferences bool          `toml:"strict_references"`
	TickRate         time.Duration `toml:"tick_rate"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Policy returns the parsed wrap policy. Load has already validated it.
func (c EntitiesConfig) Policy() ecs.WrapPolicy {
	p, _ := ecs.ParseWrapPolicy(c.WrapPolicy)
	return p
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Entities.InitialCapacity <= 0 {
		return fmt.Errorf("entities.initial_capacity must be positive, got %d", c.Entities.InitialCapacity)
	}
	if c.Entities.InitialCapacity > ecs.MaxEntities {
		return fmt.Errorf("entities.initial_capacity %d exceeds %d", c.Entities.InitialCapacity, ecs.MaxEntities)
	}
	if _, err := ecs.ParseWrapPolicy(c.Entities.WrapPolicy); err != nil {
		return fmt.Errorf("entities.wrap_policy: %w", err)
	}
	if c.Schedule.TickRate <= 0 {
		return fmt.Errorf("schedule.tick_rate must be positive, got %s", c.Schedule.TickRate)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Entities: EntitiesConfig{
			InitialCapacity: 1024,
			WrapPolicy:      "wrap",
		},
		Schedule: ScheduleConfig{
			TickRate: 50 * time.Millisecond, // 20 TPS
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
