package activity

// UpdatePeak derives the display scale from a curve and the previous scale.
// While the curve carries any amplitude the peak only grows, so the display
// scale never visibly shrinks between refreshes just because recent activity
// is a little lower. The moment the curve is fully empty the peak snaps back
// to exactly zero, whatever its previous magnitude.
func UpdatePeak(samples []float64, priorPeak float64) float64 {
	peak := priorPeak
	var total float64
	for _, v := range samples {
		total += v
		if v > peak {
			peak = v
		}
	}
	if total == 0 {
		return 0
	}
	return peak
}
