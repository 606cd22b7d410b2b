package mix

// Envelope is the gain curve of one planned segment: a flat effective
// gain (clip volume × track volume) shaped by linear fade ramps at the
// clip's edges. Fades multiply the flat gain, they never replace it.
//
// Fade times are expressed in clip-local seconds. A segment that starts
// mid-clip (preview windows) carries a non-zero Offset so the ramp
// arithmetic still lines up with the clip's own timeline.
type Envelope struct {
	// Flat is the effective scalar gain, >= 0.
	Flat float64

	// FadeIn and FadeOut are ramp lengths in seconds. The planner
	// guarantees FadeIn + FadeOut <= ClipDuration.
	FadeIn  float64
	FadeOut float64

	// ClipDuration is the clip's full length on the timeline.
	ClipDuration float64

	// Offset is the clip-local time at which the segment begins.
	Offset float64
}

// At returns the gain at t seconds into the segment.
//
// In clip-local time u = Offset + t: gain ramps 0→1 over [0, FadeIn),
// holds at 1 over the middle, and ramps 1→0 over
// [ClipDuration-FadeOut, ClipDuration). Outside the clip the gain is 0.
func (e Envelope) At(t float64) float64 {
	u := e.Offset + t
	if u < 0 || u >= e.ClipDuration {
		if u == e.ClipDuration && e.FadeOut == 0 {
			// Closed-open interval: the exact end sample is silent only
			// when a fade-out forces it there.
			return e.Flat
		}
		return 0
	}

	shape := 1.0
	if e.FadeIn > 0 && u < e.FadeIn {
		shape = u / e.FadeIn
	}
	if e.FadeOut > 0 {
		if fadeStart := e.ClipDuration - e.FadeOut; u > fadeStart {
			out := (e.ClipDuration - u) / e.FadeOut
			if out < shape {
				shape = out
			}
		}
	}
	return e.Flat * shape
}
