package activity

import "time"

// Snapshot is one refresh's worth of output for a render consumer.
type Snapshot struct {
	// At is the clock reading the curve was computed against.
	At time.Time
	// Samples is the density curve, oldest bucket last. It is a copy; the
	// consumer may hold it across frames.
	Samples []float64
	// Empty is true when every sample is exactly zero.
	Empty bool
	// Peak is the current display scale.
	Peak float64
}

// Grapher owns the sample buffer and sticky peak for one graph. It is not
// safe for concurrent use; one refresh is one Refresh call by a single
// driving caller.
type Grapher struct {
	cfg     Config
	samples []float64
	peak    float64
}

// NewGrapher constructs a Grapher for the given configuration.
func NewGrapher(cfg Config) (*Grapher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grapher{
		cfg:     cfg,
		samples: make([]float64, cfg.Buckets()),
	}, nil
}

// Config returns the grapher's fixed configuration.
func (g *Grapher) Config() Config { return g.cfg }

// Refresh recomputes the curve from the supplied activity snapshot and
// advances the peak. The activity collection may be in any order and may
// contain duplicates or timestamps after now.
func (g *Grapher) Refresh(now time.Time, events []time.Time) Snapshot {
	samples, empty := BuildCurve(now, events, g.cfg, g.samples)
	g.samples = samples
	g.peak = UpdatePeak(samples, g.peak)

	out := make([]float64, len(samples))
	copy(out, samples)
	return Snapshot{At: now, Samples: out, Empty: empty, Peak: g.peak}
}
