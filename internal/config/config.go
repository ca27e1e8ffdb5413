package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/futto/internal/strategy"
)

const (
	MinTeams  = 2
	MaxTeams  = 6
	MinRepeat = 1
	MaxRepeat = 3

	DefaultMatchDuration = 10 * time.Minute
	DefaultBreakDuration = 5 * time.Minute
	DefaultStoragePath   = "futto.db"
	DefaultLogLevel      = "info"
)

// Duration is a wrapper around time.Duration for YAML values like "10m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = v
	return nil
}

type Storage struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Name          string    `yaml:"name"`
	TeamCount     int       `yaml:"team_count"`
	TeamNames     []string  `yaml:"team_names"`
	MatchDuration *Duration `yaml:"match_duration"`
	BreakDuration *Duration `yaml:"break_duration"`
	RepeatMatches int       `yaml:"repeat_matches"`
	Strategy      string    `yaml:"strategy"`
	Storage       Storage   `yaml:"storage"`
	Log           Log       `yaml:"log"`
}

// Teams returns the names of the teams taking part, in configured order.
func (c *Config) Teams() []string {
	n := c.TeamCount
	if n > len(c.TeamNames) {
		n = len(c.TeamNames)
	}
	teams := make([]string, n)
	copy(teams, c.TeamNames[:n])
	return teams
}

// Match returns the configured match length.
func (c *Config) Match() time.Duration {
	if c.MatchDuration == nil {
		return DefaultMatchDuration
	}
	return c.MatchDuration.Duration
}

// Break returns the configured break length between matches.
func (c *Config) Break() time.Duration {
	if c.BreakDuration == nil {
		return DefaultBreakDuration
	}
	return c.BreakDuration.Duration
}

// LogLevel returns the parsed zerolog level.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// LoadFromBytes parses YAML bytes into a Config, fills defaults and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.RepeatMatches == 0 {
		c.RepeatMatches = MinRepeat
	}
	if c.Strategy == "" {
		c.Strategy = strategy.Default
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Unnamed teams get a placeholder so the schedule always has distinct names.
	// Out-of-range counts are rejected by validate.
	n := min(max(c.TeamCount, 0), MaxTeams)
	for len(c.TeamNames) < n {
		c.TeamNames = append(c.TeamNames, "")
	}
	for i := 0; i < n; i++ {
		c.TeamNames[i] = strings.TrimSpace(c.TeamNames[i])
		if c.TeamNames[i] == "" {
			c.TeamNames[i] = fmt.Sprintf("Team %d", i+1)
		}
	}
}

func (c *Config) validate() error {
	if c.TeamCount < MinTeams || c.TeamCount > MaxTeams {
		return fmt.Errorf("team_count must be between %d and %d, got %d", MinTeams, MaxTeams, c.TeamCount)
	}

	if c.RepeatMatches < MinRepeat || c.RepeatMatches > MaxRepeat {
		return fmt.Errorf("repeat_matches must be between %d and %d, got %d", MinRepeat, MaxRepeat, c.RepeatMatches)
	}

	if c.Match() < time.Minute {
		return fmt.Errorf("match_duration must be at least 1m, got %s", c.Match())
	}

	if c.Break() < 0 {
		return fmt.Errorf("break_duration cannot be negative, got %s", c.Break())
	}

	if _, err := strategy.Get(c.Strategy); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	seen := make(map[string]int)
	for i, team := range c.Teams() {
		if prev, ok := seen[team]; ok {
			return fmt.Errorf("team %q appears twice (positions %d and %d)", team, prev+1, i+1)
		}
		seen[team] = i
	}

	return nil
}
