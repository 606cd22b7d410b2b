package audio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// CueWriter generates cue sheets from timeline markers.
//
// A cue sheet turns markers into named index points over the rendered
// file, so players and DAWs that understand .cue can jump between
// scenes. Markers are sorted by time; markers past the rendered
// duration are dropped.
//
// Example:
//
//	writer := NewCueWriter()
//	content := writer.CreateCueSheet(project, "story.wav", 182.5)
//	os.WriteFile("story.cue", []byte(content), 0644)
type CueWriter struct{}

// NewCueWriter creates a new CueWriter.
func NewCueWriter() *CueWriter {
	return &CueWriter{}
}

// CreateCueSheet generates cue sheet content for a rendered project.
//
// audioPath is referenced by base name, assuming the cue sheet sits in
// the same directory as the rendered file. totalDuration bounds which
// markers are included. Returns an empty string when no marker falls
// inside the rendered range.
func (w *CueWriter) CreateCueSheet(p *model.Project, audioPath string, totalDuration float64) string {
	var markers []model.Marker
	for _, m := range p.Markers {
		if m.Time >= 0 && m.Time <= totalDuration {
			markers = append(markers, m)
		}
	}
	if len(markers) == 0 {
		return ""
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Time < markers[j].Time
	})

	fileType := "WAVE"
	if strings.EqualFold(filepath.Ext(audioPath), ".mp3") {
		fileType = "MP3"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("TITLE %q\n", p.Info.Title))
	if p.Info.Author != "" {
		sb.WriteString(fmt.Sprintf("PERFORMER %q\n", p.Info.Author))
	}
	sb.WriteString(fmt.Sprintf("FILE %q %s\n", filepath.Base(audioPath), fileType))

	for i, m := range markers {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("Marker %d", i+1)
		}
		sb.WriteString(fmt.Sprintf("  TRACK %02d AUDIO\n", i+1))
		sb.WriteString(fmt.Sprintf("    TITLE %q\n", name))
		sb.WriteString(fmt.Sprintf("    INDEX 01 %s\n", cueTimestamp(m.Time)))
	}

	return sb.String()
}

// cueTimestamp formats seconds as MM:SS:FF, where FF counts 75 frames
// per second as cue sheets require.
func cueTimestamp(seconds float64) string {
	totalFrames := int(seconds*75 + 0.5)
	frames := totalFrames % 75
	totalSeconds := totalFrames / 75
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/60, totalSeconds%60, frames)
}
