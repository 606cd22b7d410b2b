package audio

import (
	"strings"
	"testing"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

func markerProject() *model.Project {
	return &model.Project{
		Info: model.ProjectInfo{
			ID:     "project_cue",
			Title:  "Night Market",
			Author: "studio",
		},
		Markers: []model.Marker{
			{ID: "m2", Name: "Scene 2", Time: 61.2},
			{ID: "m1", Name: "Scene 1", Time: 0},
			{ID: "m3", Name: "Credits", Time: 500},
		},
	}
}

func TestCueWriter_CreateCueSheet(t *testing.T) {
	writer := NewCueWriter()
	content := writer.CreateCueSheet(markerProject(), "/exports/night-market.wav", 120)

	if !strings.Contains(content, `TITLE "Night Market"`) {
		t.Error("cue sheet should carry the project title")
	}
	if !strings.Contains(content, `PERFORMER "studio"`) {
		t.Error("cue sheet should carry the author")
	}
	if !strings.Contains(content, `FILE "night-market.wav" WAVE`) {
		t.Errorf("cue sheet should reference the audio file by base name:\n%s", content)
	}

	// Markers sorted by time, and the out-of-range one dropped.
	first := strings.Index(content, `TITLE "Scene 1"`)
	second := strings.Index(content, `TITLE "Scene 2"`)
	if first < 0 || second < 0 || first > second {
		t.Errorf("markers out of order:\n%s", content)
	}
	if strings.Contains(content, "Credits") {
		t.Error("marker past the rendered duration should be dropped")
	}

	// 61.2s = 1m 01s 15 frames.
	if !strings.Contains(content, "INDEX 01 01:01:15") {
		t.Errorf("timestamp for 61.2s wrong:\n%s", content)
	}
}

func TestCueWriter_MP3FileType(t *testing.T) {
	content := NewCueWriter().CreateCueSheet(markerProject(), "out.MP3", 120)
	if !strings.Contains(content, `FILE "out.MP3" MP3`) {
		t.Errorf("mp3 export should use the MP3 file type:\n%s", content)
	}
}

func TestCueWriter_NoMarkersInRange(t *testing.T) {
	p := markerProject()
	p.Markers = []model.Marker{{ID: "m", Name: "late", Time: 300}}
	if content := NewCueWriter().CreateCueSheet(p, "out.wav", 10); content != "" {
		t.Errorf("expected empty cue sheet, got:\n%s", content)
	}
}

func TestCueWriter_UnnamedMarker(t *testing.T) {
	p := markerProject()
	p.Markers = []model.Marker{{ID: "m", Time: 5}}
	content := NewCueWriter().CreateCueSheet(p, "out.wav", 10)
	if !strings.Contains(content, `TITLE "Marker 1"`) {
		t.Errorf("unnamed marker should get a numbered title:\n%s", content)
	}
}

func TestCueTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{1, "00:01:00"},
		{0.5, "00:00:38"},
		{125, "02:05:00"},
	}
	for _, tc := range cases {
		if got := cueTimestamp(tc.seconds); got != tc.want {
			t.Errorf("cueTimestamp(%v) = %s, want %s", tc.seconds, got, tc.want)
		}
	}
}
