package mix

import (
	"sort"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// Window is the [Start, Start+Duration) interval of project time being
// rendered: the full project for an export, an arbitrary sub-range for a
// preview.
type Window struct {
	Start    float64
	Duration float64
}

// End returns the exclusive end of the window.
func (w Window) End() float64 {
	return w.Start + w.Duration
}

// ExportWindow covers the whole project.
func ExportWindow(totalDuration float64) Window {
	return Window{Start: 0, Duration: totalDuration}
}

// PreviewWindow clamps a caller-supplied range to the project bounds.
// A non-positive start becomes 0 and the duration is capped at the
// remaining project time.
func PreviewWindow(start, duration, totalDuration float64) Window {
	if start < 0 {
		start = 0
	}
	if remaining := totalDuration - start; duration > remaining {
		duration = remaining
	}
	if duration < 0 {
		duration = 0
	}
	return Window{Start: start, Duration: duration}
}

// Segment is one clip's planner-resolved contribution to a render.
type Segment struct {
	// Source is the opaque asset reference handed to the decoder.
	Source string

	// SourceStart and SourceDuration select the sub-range of the asset,
	// in source-time seconds (clip-local time scaled by PlaybackRate).
	SourceStart    float64
	SourceDuration float64

	// OutputOffset is where the segment begins in the output buffer,
	// in seconds from the window start.
	OutputOffset float64

	// Duration is the segment's length in output time.
	Duration float64

	PlaybackRate float64
	Loop         bool

	// Gain is the segment's piecewise-linear gain envelope.
	Gain Envelope

	// TrackID and ClipID identify the origin for diagnostics.
	TrackID string
	ClipID  string
}

// Plan resolves mute/solo state and window overlap into a flat segment
// list.
//
// Solo wins over mute: when any track is soloed, every non-solo track is
// excluded regardless of its own muted flag. Clips that do not overlap
// the window are excluded entirely; clips that straddle a window edge are
// trimmed to the overlapping part. Overlapping output ranges across
// segments are expected — the engine sums them.
func Plan(tracks []model.Track, win Window) []Segment {
	if win.Duration <= 0 {
		return nil
	}

	anySolo := false
	for _, t := range tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	// Order is a priority hint with legal duplicates; stable sort keeps
	// input order for ties.
	ordered := make([]model.Track, len(tracks))
	copy(ordered, tracks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	var segments []Segment
	for _, track := range ordered {
		if anySolo {
			if !track.Solo {
				continue
			}
		} else if track.Muted {
			continue
		}

		for _, clip := range track.Clips {
			seg, ok := planClip(track, clip, win)
			if ok {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}

func planClip(track model.Track, clip model.AudioClip, win Window) (Segment, bool) {
	if clip.Duration <= 0 {
		return Segment{}, false
	}

	clipEnd := clip.End()
	if clipEnd <= win.Start || clip.StartTime >= win.End() {
		return Segment{}, false
	}

	segStart := clip.StartTime
	if win.Start > segStart {
		segStart = win.Start
	}
	segEnd := clipEnd
	if win.End() < segEnd {
		segEnd = win.End()
	}

	localStart := segStart - clip.StartTime // offset into the clip's own time
	localDur := segEnd - segStart
	if localDur <= 0 {
		return Segment{}, false
	}

	rate := clip.PlaybackRate
	if rate <= 0 {
		rate = 1.0
	}

	fadeIn, fadeOut := clampFades(clip.FadeIn, clip.FadeOut, clip.Duration)

	return Segment{
		Source:         clip.Source,
		SourceStart:    localStart * rate,
		SourceDuration: localDur * rate,
		OutputOffset:   segStart - win.Start,
		Duration:       localDur,
		PlaybackRate:   rate,
		Loop:           clip.Loop,
		Gain: Envelope{
			Flat:         clip.Volume * track.Volume,
			FadeIn:       fadeIn,
			FadeOut:      fadeOut,
			ClipDuration: clip.Duration,
			Offset:       localStart,
		},
		TrackID: track.ID,
		ClipID:  clip.ID,
	}, true
}

// clampFades scales both fades down proportionally when their sum exceeds
// the clip duration, so the ramps meet instead of crossing.
func clampFades(fadeIn, fadeOut, duration float64) (float64, float64) {
	if fadeIn < 0 {
		fadeIn = 0
	}
	if fadeOut < 0 {
		fadeOut = 0
	}
	if sum := fadeIn + fadeOut; sum > duration && sum > 0 {
		scale := duration / sum
		fadeIn *= scale
		fadeOut *= scale
	}
	return fadeIn, fadeOut
}
