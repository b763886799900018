package activity

import (
	"errors"
	"time"
)

// Defaults for the density graph.
const (
	DefaultWindow     = time.Minute
	DefaultResolution = 100 * time.Millisecond

	// DefaultSmoothingFloor keeps the kernel bandwidth strictly positive
	// for zero-age events, so a brand-new event stays sharp but finite.
	DefaultSmoothingFloor = 10.0
)

// Config fixes the shape of the density curve at construction time.
type Config struct {
	// Window is the trailing lookback interval ending at "now".
	Window time.Duration
	// Resolution is the width of one sample bucket.
	Resolution time.Duration
	// SmoothingFloor is added to an event's age (in sample units) before
	// taking the square root that yields the kernel bandwidth.
	SmoothingFloor float64
}

// DefaultConfig returns the standard one-minute graph at 100ms granularity.
func DefaultConfig() Config {
	return Config{
		Window:         DefaultWindow,
		Resolution:     DefaultResolution,
		SmoothingFloor: DefaultSmoothingFloor,
	}
}

// Buckets returns the number of samples in the curve.
func (c Config) Buckets() int {
	if c.Resolution <= 0 {
		return 0
	}
	return int(c.Window / c.Resolution)
}

// Validate checks that the configuration produces a usable curve.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return errors.New("activity: window must be positive")
	}
	if c.Resolution <= 0 {
		return errors.New("activity: resolution must be positive")
	}
	if c.Window%c.Resolution != 0 {
		return errors.New("activity: window must be a multiple of resolution")
	}
	if c.SmoothingFloor <= 0 {
		return errors.New("activity: smoothing floor must be positive")
	}
	return nil
}
