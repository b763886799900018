package application

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	activity "dnspulse/internal/activity/domain"
)

// Config defines graph tuning loaded from yaml or env.
type Config struct {
	WindowMS          int     `yaml:"window_ms"`
	ResolutionMS      int     `yaml:"resolution_ms"`
	SmoothingFloor    float64 `yaml:"smoothing_floor"`
	RefreshIntervalMS int     `yaml:"refresh_interval_ms"`
	HistorySize       int     `yaml:"history_size"`
}

// LoadConfig loads graph configuration from the GRAPH_CONFIG yaml path when
// set, with env overrides on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		WindowMS:          int(activity.DefaultWindow / time.Millisecond),
		ResolutionMS:      int(activity.DefaultResolution / time.Millisecond),
		SmoothingFloor:    activity.DefaultSmoothingFloor,
		RefreshIntervalMS: 250,
		HistorySize:       1000,
	}

	if path := os.Getenv("GRAPH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.WindowMS = getenvIntDefault("GRAPH_WINDOW_MS", cfg.WindowMS)
	cfg.ResolutionMS = getenvIntDefault("GRAPH_RESOLUTION_MS", cfg.ResolutionMS)
	cfg.SmoothingFloor = getenvFloatDefault("GRAPH_SMOOTHING_FLOOR", cfg.SmoothingFloor)
	cfg.RefreshIntervalMS = getenvIntDefault("GRAPH_REFRESH_INTERVAL_MS", cfg.RefreshIntervalMS)
	cfg.HistorySize = getenvIntDefault("GRAPH_HISTORY_SIZE", cfg.HistorySize)

	if err := cfg.GraphConfig().Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GraphConfig converts to the domain configuration.
func (c Config) GraphConfig() activity.Config {
	return activity.Config{
		Window:         time.Duration(c.WindowMS) * time.Millisecond,
		Resolution:     time.Duration(c.ResolutionMS) * time.Millisecond,
		SmoothingFloor: c.SmoothingFloor,
	}
}

// RefreshInterval returns the frame pacing for the refresh loop.
func (c Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
