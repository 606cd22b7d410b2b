package timeline

import (
	"strings"
	"testing"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

func clip(id string, start, dur float64) model.AudioClip {
	return model.AudioClip{
		ID: id, Name: id, Source: id + ".wav",
		StartTime: start, Duration: dur,
		Volume: 1.0, PlaybackRate: 1.0,
	}
}

func validProject() *model.Project {
	return &model.Project{
		Info: model.ProjectInfo{ID: "p1", Title: "Demo"},
		Tracks: []model.Track{
			{
				ID: "t1", Name: "Dialogue", Type: model.TrackDialogue,
				Volume: 1.0, Order: 0,
				Clips: []model.AudioClip{clip("c1", 0, 5), clip("c2", 6, 3)},
			},
			{
				ID: "t2", Name: "Ambience", Type: model.TrackEnvironment,
				Volume: 1.0, Order: 1,
				Clips: []model.AudioClip{clip("c1", 2, 8)},
			},
		},
	}
}

func TestDeriveTotalDuration(t *testing.T) {
	p := validProject()
	// Clips at [0,5), [6,9) and [2,10): the max end wins.
	if got := DeriveTotalDuration(p); got != 10.0 {
		t.Errorf("DeriveTotalDuration = %v, want 10.0", got)
	}
}

func TestDeriveTotalDuration_Empty(t *testing.T) {
	p := &model.Project{Info: model.ProjectInfo{Title: "Empty"}}
	if got := DeriveTotalDuration(p); got != 0 {
		t.Errorf("DeriveTotalDuration = %v, want 0", got)
	}
}

func TestDeriveTotalDuration_CountsMutedTracks(t *testing.T) {
	p := validProject()
	p.Tracks[1].Muted = true
	if got := DeriveTotalDuration(p); got != 10.0 {
		t.Errorf("DeriveTotalDuration = %v, want 10.0 (mute is a mix property, not a timeline one)", got)
	}
}

func TestNormalize(t *testing.T) {
	p := validProject()
	p.Info.TotalDuration = 3.0 // stale value from before a clip was added
	Normalize(p)
	if p.Info.TotalDuration != 10.0 {
		t.Errorf("TotalDuration = %v, want 10.0 after Normalize", p.Info.TotalDuration)
	}
}

func TestValidate_OK(t *testing.T) {
	res := Validate(validProject())
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *model.Project)
		wantSub string
	}{
		{
			name:    "empty title",
			mutate:  func(p *model.Project) { p.Info.Title = "" },
			wantSub: "title",
		},
		{
			name:    "duplicate track id",
			mutate:  func(p *model.Project) { p.Tracks[1].ID = "t1" },
			wantSub: `duplicate track id "t1"`,
		},
		{
			name:    "duplicate clip id within track",
			mutate:  func(p *model.Project) { p.Tracks[0].Clips[1].ID = "c1" },
			wantSub: `duplicate clip id "c1"`,
		},
		{
			name:    "negative start time",
			mutate:  func(p *model.Project) { p.Tracks[0].Clips[0].StartTime = -1 },
			wantSub: "negative start time",
		},
		{
			name:    "zero duration",
			mutate:  func(p *model.Project) { p.Tracks[0].Clips[0].Duration = 0 },
			wantSub: "duration > 0",
		},
		{
			name:    "negative track volume",
			mutate:  func(p *model.Project) { p.Tracks[0].Volume = -0.5 },
			wantSub: "volume must be >= 0",
		},
		{
			name:    "bad playback rate",
			mutate:  func(p *model.Project) { p.Tracks[0].Clips[0].PlaybackRate = 0 },
			wantSub: "playback rate",
		},
		{
			name:    "fade-in longer than clip",
			mutate:  func(p *model.Project) { p.Tracks[0].Clips[0].FadeIn = 99 },
			wantSub: "fade-in",
		},
		{
			name:    "unknown track type",
			mutate:  func(p *model.Project) { p.Tracks[0].Type = "vocals" },
			wantSub: "unknown type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validProject()
			tc.mutate(p)
			res := Validate(p)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e, tc.wantSub) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", res.Errors, tc.wantSub)
			}
		})
	}
}

func TestValidate_DuplicateClipIDsOnDifferentTracksAllowed(t *testing.T) {
	// Clip ids are scoped per track; both tracks in the fixture use "c1".
	res := Validate(validProject())
	if !res.Valid {
		t.Errorf("clip ids only need to be unique within their track, got errors: %v", res.Errors)
	}
}

func TestValidate_DuplicateOrderIsWarning(t *testing.T) {
	p := validProject()
	p.Tracks[1].Order = p.Tracks[0].Order
	res := Validate(p)
	if !res.Valid {
		t.Fatalf("duplicate order must not be an error, got: %v", res.Errors)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "order") {
		t.Errorf("expected order warning, got %v", res.Warnings)
	}
}

func TestValidate_FadeOverlapIsWarning(t *testing.T) {
	p := validProject()
	p.Tracks[0].Clips[0].FadeIn = 3
	p.Tracks[0].Clips[0].FadeOut = 3 // sum 6 > duration 5
	res := Validate(p)
	if !res.Valid {
		t.Fatalf("overlapping fades must not be an error, got: %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "clamped") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fade clamp warning, got %v", res.Warnings)
	}
}
