package config

import "time"

type Config struct {
	Logging      LoggingConfig  `yaml:"logging"`
	Frame        FrameConfig    `yaml:"frame"`
	Settings     SettingsConfig `yaml:"settings"`
	Import       ImportConfig   `yaml:"import"`
	Scene        SceneConfig    `yaml:"scene"`
	Schedules    []ScheduleRule `yaml:"schedules"`
	ConfigReload ReloadConfig   `yaml:"configReload"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}

type FrameConfig struct {
	Rate int `yaml:"rate"` // frames per second
}

// Interval returns the time between two frames. Rates above MaxFrameRate
// are capped so the interval is never zero.
func (f FrameConfig) Interval() time.Duration {
	switch {
	case f.Rate <= 0:
		return time.Second / DefaultFrameRate
	case f.Rate > MaxFrameRate:
		return time.Second / MaxFrameRate
	}
	return time.Second / time.Duration(f.Rate)
}

// SettingsConfig holds the initial values of the settings service.
type SettingsConfig struct {
	Rendering   RenderingConfig   `yaml:"rendering"`
	Lighting    LightingConfig    `yaml:"lighting"`
	Grid        GridConfig        `yaml:"grid"`
	PostProcess PostProcessConfig `yaml:"postProcess"`
}

type RenderingConfig struct {
	VSync       bool    `yaml:"vsync"`
	MSAA        int     `yaml:"msaa"`
	RenderScale float64 `yaml:"renderScale"`
	Wireframe   bool    `yaml:"wireframe"`
}

type LightingConfig struct {
	SunIntensity float64 `yaml:"sunIntensity"`
	SunAzimuth   float64 `yaml:"sunAzimuth"`
	Ambient      float64 `yaml:"ambient"`
	Shadows      bool    `yaml:"shadows"`
}

type GridConfig struct {
	Visible      bool    `yaml:"visible"`
	Spacing      float64 `yaml:"spacing"`
	Subdivisions int     `yaml:"subdivisions"`
}

type PostProcessConfig struct {
	Exposure       float64 `yaml:"exposure"`
	Bloom          bool    `yaml:"bloom"`
	BloomIntensity float64 `yaml:"bloomIntensity"`
	Tonemapper     string  `yaml:"tonemapper"` // "aces", "reinhard", "none"
}

type ImportConfig struct {
	Root         string `yaml:"root"`
	KeepVersions int    `yaml:"keepVersions"`
}

type SceneConfig struct {
	EntityDelay time.Duration `yaml:"entityDelay"` // e.g. 50ms, simulates per-entity load cost
}

type ScheduleRule struct {
	Name   string `yaml:"name"`
	Cron   string `yaml:"cron"`
	Kind   string `yaml:"kind"` // "import", "scene"
	Target string `yaml:"target"`
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Method         string        `yaml:"method"`         // "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`   // e.g. 5s
	DebounceWindow time.Duration `yaml:"debounceWindow"` // e.g. 500ms
}
