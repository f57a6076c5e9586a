package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"onboarding-cli/internal/calendar"
	"onboarding-cli/internal/store"
)

const (
	EnvPrefix  = "ONBOARD_"
	ConfigFile = "config.yaml"
)

type Config struct {
	Dir     string         `yaml:"dir" json:"dir"`
	Backend string         `yaml:"backend" json:"backend"`
	Format  string         `yaml:"format" json:"format"`
	Debug   bool           `yaml:"debug" json:"debug"`
	Context string         `yaml:"context" json:"context"`
	Author  string         `yaml:"author" json:"author"`
	Cal     CalendarConfig `yaml:"calendar" json:"calendar"`
	Watch   WatchConfig    `yaml:"watch" json:"watch"`
}

type CalendarConfig struct {
	WeekStart     string `yaml:"week_start" json:"week_start"`
	MaxPerCell    int    `yaml:"max_per_cell" json:"max_per_cell"`
	UpcomingLimit int    `yaml:"upcoming_limit" json:"upcoming_limit"`
}

type WatchConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

func Default() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".onboard"
	}
	return filepath.Join(home, ".onboard")
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = DefaultDir()
	}
	if c.Backend == "" {
		c.Backend = store.BackendSQLite
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Context == "" {
		c.Context = "cli"
	}
	if c.Author == "" {
		c.Author = "me"
	}
	if c.Cal.WeekStart == "" {
		c.Cal.WeekStart = "sunday"
	}
	if c.Cal.MaxPerCell <= 0 {
		c.Cal.MaxPerCell = calendar.DefaultMaxPerCell
	}
	if c.Cal.UpcomingLimit <= 0 {
		c.Cal.UpcomingLimit = 5
	}
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = store.DefaultPollInterval
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case store.BackendSQLite, store.BackendMemory:
	default:
		return fmt.Errorf("invalid backend: %q (expected sqlite|memory)", c.Backend)
	}
	switch c.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("invalid format: %q (expected json|yaml|text)", c.Format)
	}
	if _, err := calendar.ParseWeekday(c.Cal.WeekStart); err != nil {
		return err
	}
	return nil
}

func (c Config) WeekStart() time.Weekday {
	wd, _ := calendar.ParseWeekday(c.Cal.WeekStart)
	return wd
}

// LoadFile merges a YAML file over c. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides fields from ONBOARD_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	get := func(k string) string { return strings.TrimSpace(getenv(EnvPrefix + k)) }

	if v := get("DIR"); v != "" {
		c.Dir = v
	}
	if v := get("BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := get("FORMAT"); v != "" {
		c.Format = strings.ToLower(v)
	}
	if v := get("CONTEXT"); v != "" {
		c.Context = v
	}
	if v := get("AUTHOR"); v != "" {
		c.Author = v
	}
	if v := get("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := get("WEEK_START"); v != "" {
		c.Cal.WeekStart = v
	}
	if n := getInt(get("MAX_PER_CELL")); n > 0 {
		c.Cal.MaxPerCell = n
	}
	if n := getInt(get("UPCOMING_LIMIT")); n > 0 {
		c.Cal.UpcomingLimit = n
	}
	if v := get("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Watch.PollInterval = d
		}
	}
}

func getInt(val string) int {
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

// Load resolves configuration in order: defaults, YAML file, .env, environment.
// file may be empty, in which case <dir>/config.yaml is tried, with dir taken from
// dirOverride, ONBOARD_DIR, or the default dir.
func Load(file, dirOverride string) (Config, error) {
	_ = LoadDotEnv(".env")

	c := Config{}
	dir := strings.TrimSpace(dirOverride)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(EnvPrefix + "DIR"))
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if strings.TrimSpace(file) == "" {
		file = filepath.Join(dir, ConfigFile)
	}
	if err := c.LoadFile(file); err != nil {
		return Config{}, err
	}
	c.ApplyEnv(nil)
	if dirOverride != "" {
		c.Dir = dirOverride
	}
	if c.Dir == "" {
		c.Dir = dir
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
