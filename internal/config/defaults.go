package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultFrameRate    = 60
	MaxFrameRate        = 1000
	DefaultKeepVersions = 3
	DefaultPollInterval = 5 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

// Schedule kinds.
const (
	KindImport = "import"
	KindScene  = "scene"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Settings: SettingsConfig{
			Rendering:   RenderingConfig{VSync: true, MSAA: 4, RenderScale: 1},
			Lighting:    LightingConfig{SunIntensity: 1, SunAzimuth: 45, Ambient: 0.2, Shadows: true},
			Grid:        GridConfig{Visible: true, Spacing: 1, Subdivisions: 10},
			PostProcess: PostProcessConfig{Exposure: 1, Tonemapper: "aces"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Frame.Rate == 0 {
		c.Frame.Rate = DefaultFrameRate
	}
	if c.Import.Root == "" {
		c.Import.Root = "library"
	}
	if c.Import.KeepVersions == 0 {
		c.Import.KeepVersions = DefaultKeepVersions
	}
	if c.ConfigReload.Method == "" {
		c.ConfigReload.Method = "auto"
	}
	if c.ConfigReload.PollInterval == 0 {
		c.ConfigReload.PollInterval = DefaultPollInterval
	}
	if c.ConfigReload.DebounceWindow == 0 {
		c.ConfigReload.DebounceWindow = DefaultDebounce
	}
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Frame.Rate < 0 {
		return errors.New("frame rate must not be negative")
	}
	if c.Frame.Rate > MaxFrameRate {
		return fmt.Errorf("frame rate %d exceeds %d", c.Frame.Rate, MaxFrameRate)
	}
	if c.Import.KeepVersions < 0 {
		return errors.New("import keepVersions must not be negative")
	}

	switch c.ConfigReload.Method {
	case "auto", "poll", "fsnotify":
	default:
		return fmt.Errorf("unknown configReload method %q", c.ConfigReload.Method)
	}

	names := map[string]bool{}
	for _, rule := range c.Schedules {
		if rule.Name == "" {
			return errors.New("schedule rule without a name")
		}
		if names[rule.Name] {
			return fmt.Errorf("duplicate schedule rule %q", rule.Name)
		}
		names[rule.Name] = true

		if _, err := cron.ParseStandard(rule.Cron); err != nil {
			return fmt.Errorf("schedule rule %s: invalid cron %q: %w", rule.Name, rule.Cron, err)
		}
		if rule.Kind != KindImport && rule.Kind != KindScene {
			return fmt.Errorf("schedule rule %s: unknown kind %q", rule.Name, rule.Kind)
		}
		if rule.Target == "" {
			return fmt.Errorf("schedule rule %s: empty target", rule.Name)
		}
	}
	return nil
}
