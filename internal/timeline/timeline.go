// Package timeline enforces the structural rules of a project and derives
// its total duration.
//
// Validation distinguishes errors from warnings: errors make a project
// unrenderable or ambiguous (negative times, duplicate ids), warnings flag
// conditions the renderer tolerates (duplicate track order, fades that
// overlap). Nothing here mutates volumes or times; malformed input is
// reported, never silently corrected.
package timeline

import (
	"fmt"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// Result is the outcome of validating a project.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants of a project and returns all
// violations at once rather than stopping at the first.
func Validate(p *model.Project) Result {
	var res Result

	if p.Info.Title == "" {
		res.errorf("project title must not be empty")
	}

	trackIDs := make(map[string]bool, len(p.Tracks))
	orderSeen := make(map[int]string, len(p.Tracks))

	for i, track := range p.Tracks {
		label := track.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			res.errorf("track %s has no id", label)
		} else if trackIDs[track.ID] {
			res.errorf("duplicate track id %q", track.ID)
		}
		trackIDs[track.ID] = true

		if !track.Type.Valid() {
			res.errorf("track %s has unknown type %q", label, track.Type)
		}
		if track.Volume < 0 {
			res.errorf("track %s volume must be >= 0, got %g", label, track.Volume)
		}
		if prev, dup := orderSeen[track.Order]; dup {
			res.warnf("tracks %s and %s share order %d; input order breaks the tie", prev, label, track.Order)
		} else {
			orderSeen[track.Order] = label
		}

		validateClips(&res, label, track.Clips)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func validateClips(res *Result, trackLabel string, clips []model.AudioClip) {
	clipIDs := make(map[string]bool, len(clips))

	for j, clip := range clips {
		label := clip.ID
		if label == "" {
			label = fmt.Sprintf("#%d", j)
			res.errorf("clip %s on track %s has no id", label, trackLabel)
		} else if clipIDs[clip.ID] {
			res.errorf("duplicate clip id %q on track %s", clip.ID, trackLabel)
		}
		clipIDs[clip.ID] = true

		if clip.StartTime < 0 {
			res.errorf("clip %s on track %s has negative start time %g", label, trackLabel, clip.StartTime)
		}
		if clip.Duration <= 0 {
			res.errorf("clip %s on track %s must have duration > 0, got %g", label, trackLabel, clip.Duration)
		}
		if clip.Volume < 0 {
			res.errorf("clip %s on track %s volume must be >= 0, got %g", label, trackLabel, clip.Volume)
		}
		if clip.PlaybackRate <= 0 {
			res.errorf("clip %s on track %s playback rate must be > 0, got %g", label, trackLabel, clip.PlaybackRate)
		}
		if clip.FadeIn < 0 || (clip.Duration > 0 && clip.FadeIn > clip.Duration) {
			res.errorf("clip %s on track %s fade-in %g outside [0, duration]", label, trackLabel, clip.FadeIn)
		}
		if clip.FadeOut < 0 || (clip.Duration > 0 && clip.FadeOut > clip.Duration) {
			res.errorf("clip %s on track %s fade-out %g outside [0, duration]", label, trackLabel, clip.FadeOut)
		}
		if clip.FadeIn >= 0 && clip.FadeOut >= 0 && clip.Duration > 0 &&
			clip.FadeIn <= clip.Duration && clip.FadeOut <= clip.Duration &&
			clip.FadeIn+clip.FadeOut > clip.Duration {
			// Legal but overlapping; the planner scales both fades down.
			res.warnf("clip %s on track %s: fade-in + fade-out (%g) exceeds duration %g; fades will be clamped",
				label, trackLabel, clip.FadeIn+clip.FadeOut, clip.Duration)
		}
	}
}

// DeriveTotalDuration computes the project length as the max end time over
// all clips on all tracks, or 0 for a project with no clips. Muted tracks
// still count: muting changes the mix, not the timeline.
func DeriveTotalDuration(p *model.Project) float64 {
	var total float64
	for _, track := range p.Tracks {
		for _, clip := range track.Clips {
			if end := clip.End(); end > total {
				total = end
			}
		}
	}
	return total
}

// Normalize recomputes the derived fields of a project. Callers must run
// it after every structural mutation so the persisted TotalDuration is
// consistent with the clip layout.
func Normalize(p *model.Project) {
	p.Info.TotalDuration = DeriveTotalDuration(p)
}
