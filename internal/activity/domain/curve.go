package activity

import (
	"math"
	"time"
)

// truncationRadius bounds a single event's support to +/- 2.7 sigma around
// its position. Beyond 2.7 sigma a gaussian is under 1/1000 of its peak
// value, which is not visible on the graph, so those buckets are skipped.
const truncationRadius = 2.7

// BuildCurve convolves a snapshot of event timestamps into a density curve
// over the trailing window ending at now. Each event contributes an
// unnormalized gaussian whose bandwidth grows with the square root of the
// event's age, so recent events are sharp and old events are broad and low.
// Events dated after now are dropped silently as clock skew; events whose
// truncated support lies entirely past the window are skipped before any
// accumulation.
//
// dst is reused as the sample buffer when it already has the right length,
// otherwise a fresh buffer is allocated. The returned curve is a pure
// function of (now, events, cfg): a refresh that accumulates nothing always
// yields an all-zero buffer and empty == true, regardless of what dst held.
func BuildCurve(now time.Time, events []time.Time, cfg Config, dst []float64) ([]float64, bool) {
	n := cfg.Buckets()
	if len(dst) != n {
		dst = make([]float64, n)
	}

	empty := true
	for _, ts := range events {
		age := now.Sub(ts)
		if age < 0 {
			// Possible clock skew mishap.
			continue
		}
		e := float64(age) / float64(cfg.Resolution)

		// Diffusion equation: sigma grows as sqrt(time). The floor keeps
		// the division below well-defined for zero-age events.
		sigma := math.Sqrt(e + cfg.SmoothingFloor)
		support := truncationRadius * sigma

		left := int(e - support)
		if left < 0 {
			left = 0
		}
		if left >= n {
			// The whole support is past the window.
			continue
		}
		if empty {
			empty = false
			clear(dst)
		}
		right := int(e + support)
		if right > n {
			right = n
		}
		inverseSigma := 1 / sigma
		for i := left; i < right; i++ {
			z := (float64(i) - e) * inverseSigma
			dst[i] += math.Exp(-z*z) * inverseSigma
		}
	}

	if empty {
		// Nothing accumulated; scrub any previous frame out of the buffer.
		clear(dst)
	}
	return dst, empty
}
