// Package config loads and saves the YAML configuration file that
// carries work hours, availability windows, and calendar feed sources.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"dayflow/internal/model"
	"dayflow/internal/planner"
)

// FeedConfig describes a single ICS calendar feed.
type FeedConfig struct {
	// Path is the local file the feed document is read from.
	Path string `yaml:"path"`
	// Source labels events imported from this feed.
	Source string `yaml:"source"`
}

// WindowConfig is a clock range in "HH:MM" form.
type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Config is the top-level application configuration.
type Config struct {
	// Database is the sqlite file path. Empty means a file next to the config.
	Database string `yaml:"database"`

	// Timezone is the IANA zone dates and work hours are anchored to.
	// Empty means the system local zone.
	Timezone string `yaml:"timezone"`

	// WorkStart and WorkEnd bound the schedulable day, "HH:MM".
	WorkStart string `yaml:"work_start"`
	WorkEnd   string `yaml:"work_end"`

	// Windows maps window names (morning, afternoon, evening) to clock ranges.
	Windows map[string]WindowConfig `yaml:"windows"`

	// GranularityMinutes is the slot grid step.
	GranularityMinutes int `yaml:"granularity_minutes"`

	// HorizonDays bounds how far auto-scheduling spills into future days.
	HorizonDays int `yaml:"horizon_days"`

	// BaseEnergyMinutes is the capacity baseline before multipliers.
	BaseEnergyMinutes int `yaml:"base_energy_minutes"`

	// Feeds is the list of subscribed calendar feeds.
	Feeds []FeedConfig `yaml:"feeds"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkStart: "09:00",
		WorkEnd:   "17:00",
		Windows: map[string]WindowConfig{
			"morning":   {Start: "09:00", End: "12:00"},
			"afternoon": {Start: "12:00", End: "17:00"},
			"evening":   {Start: "17:00", End: "21:00"},
		},
		GranularityMinutes: 15,
		HorizonDays:        7,
		BaseEnergyMinutes:  780,
		Feeds:              []FeedConfig{},
	}
}

// Normalize fills missing or invalid values with defaults so that a
// partially filled config still behaves correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if _, err := model.ParseClock(c.WorkStart); err != nil {
		c.WorkStart = def.WorkStart
	}
	if _, err := model.ParseClock(c.WorkEnd); err != nil {
		c.WorkEnd = def.WorkEnd
	}
	if c.Windows == nil {
		c.Windows = map[string]WindowConfig{}
	}
	for name, w := range def.Windows {
		got, ok := c.Windows[name]
		if !ok {
			c.Windows[name] = w
			continue
		}
		if _, err := model.ParseClock(got.Start); err != nil {
			got.Start = w.Start
		}
		if _, err := model.ParseClock(got.End); err != nil {
			got.End = w.End
		}
		c.Windows[name] = got
	}
	if c.GranularityMinutes <= 0 {
		c.GranularityMinutes = def.GranularityMinutes
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BaseEnergyMinutes <= 0 {
		c.BaseEnergyMinutes = def.BaseEnergyMinutes
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// Location resolves the configured timezone, falling back to local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// PlannerConfig converts the clock-string fields into the minute-based
// form the scheduling engine consumes.
func (c *Config) PlannerConfig() (planner.Config, error) {
	workStart, err := model.ParseClock(c.WorkStart)
	if err != nil {
		return planner.Config{}, fmt.Errorf("work_start: %w", err)
	}
	workEnd, err := model.ParseClock(c.WorkEnd)
	if err != nil {
		return planner.Config{}, fmt.Errorf("work_end: %w", err)
	}
	windows := make(map[model.Window]planner.Span, len(c.Windows))
	for name, w := range c.Windows {
		win := model.Window(name)
		if !win.IsValid() {
			return planner.Config{}, fmt.Errorf("windows: %w", model.ErrInvalidWindow)
		}
		start, err := model.ParseClock(w.Start)
		if err != nil {
			return planner.Config{}, fmt.Errorf("windows.%s.start: %w", name, err)
		}
		end, err := model.ParseClock(w.End)
		if err != nil {
			return planner.Config{}, fmt.Errorf("windows.%s.end: %w", name, err)
		}
		windows[win] = planner.Span{Start: start, End: end}
	}
	return planner.Config{
		WorkStart:   workStart,
		WorkEnd:     workEnd,
		Windows:     windows,
		Granularity: c.GranularityMinutes,
		HorizonDays: c.HorizonDays,
		Location:    c.Location(),
	}, nil
}

// DatabasePath resolves the sqlite path relative to the config file.
func (c *Config) DatabasePath(configPath string) string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(filepath.Dir(configPath), "dayflow.db")
}

// Load reads configuration from the given YAML path. A missing file is
// a first run: the default config is written with 0600 perms and
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically via a temp file + rename
// and leaves the final file at 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayflow-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
