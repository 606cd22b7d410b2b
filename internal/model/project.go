package model

import (
	"encoding/json"
	"time"
)

// TrackType categorizes a track's role in the mix.
type TrackType string

const (
	TrackDialogue    TrackType = "dialogue"
	TrackEnvironment TrackType = "environment"
	TrackBackground  TrackType = "background"
)

// Valid reports whether t is one of the known track types.
func (t TrackType) Valid() bool {
	switch t {
	case TrackDialogue, TrackEnvironment, TrackBackground:
		return true
	}
	return false
}

// ProjectInfo holds project-level metadata.
//
// TotalDuration is derived, not authored: it is recomputed from the clip
// layout after every structural mutation (see timeline.Normalize) so the
// persisted value is always consistent.
type ProjectInfo struct {
	// ID is unique and immutable once assigned.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`

	// TotalDuration is the max clip end time across all tracks, in seconds.
	TotalDuration float64 `json:"totalDuration"`

	SampleRate   int    `json:"sampleRate"`
	Channels     int    `json:"channels"`
	BitDepth     int    `json:"bitDepth"`
	ExportFormat string `json:"exportFormat"`

	CreatedAt time.Time `json:"createdAt,omitzero"`
	Version   string    `json:"version"`
}

// Character identifies the speaker of a dialogue clip. Pass-through
// metadata: rendering never looks at it.
type Character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Voice  string `json:"voice,omitempty"`
	Color  string `json:"color,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// AudioClip is a single timed reference to a source audio asset placed on
// a track.
//
// Source is an opaque reference resolved to decodable bytes by the codec
// resolver; the timeline itself never touches audio data. StartTime is
// relative to the project timeline, Duration is the clip's length on the
// timeline, both in seconds.
type AudioClip struct {
	// ID is unique within the owning track.
	ID   string `json:"id"`
	Name string `json:"name"`

	Source    string  `json:"filePath"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`

	// Volume is a linear gain multiplier, >= 0.
	Volume float64 `json:"volume"`

	// FadeIn and FadeOut are ramp lengths in seconds, each within
	// [0, Duration]. Their sum may exceed Duration in stored projects;
	// the planner clamps at render time.
	FadeIn  float64 `json:"fadeIn"`
	FadeOut float64 `json:"fadeOut"`

	// PlaybackRate > 0 stretches source time onto timeline time; 1.0
	// plays the source as recorded.
	PlaybackRate float64 `json:"playbackRate"`

	// Loop repeats the source when it runs out before Duration elapses.
	Loop bool `json:"loop,omitempty"`

	Character *Character     `json:"character,omitempty"`
	Text      string         `json:"text,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// End returns the clip's end time on the project timeline.
func (c AudioClip) End() float64 {
	return c.StartTime + c.Duration
}

// Track is an independently mixable lane of clips.
type Track struct {
	// ID is unique within the project.
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type TrackType `json:"type"`

	// Volume is a linear gain multiplier applied to every clip, >= 0.
	Volume float64 `json:"volume"`

	Muted bool   `json:"muted"`
	Solo  bool   `json:"solo"`
	Color string `json:"color,omitempty"`

	// Order is a render/display priority hint. Duplicates are legal;
	// ties keep input order.
	Order int `json:"order"`

	Clips []AudioClip `json:"clips"`
}

// Marker is a named point on the timeline. Markers are informational and
// never affect rendering.
type Marker struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Time  float64 `json:"time"`
	Type  string  `json:"type,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Project is the full timeline document: info, tracks, and markers.
type Project struct {
	Info    ProjectInfo `json:"project"`
	Tracks  []Track     `json:"tracks"`
	Markers []Marker    `json:"markers,omitempty"`
}

// Defaults used when a stored project omits optional fields.
const (
	DefaultSampleRate   = 44100
	DefaultChannels     = 2
	DefaultBitDepth     = 16
	DefaultExportFormat = "wav"
	DefaultVersion      = "1.0"
)

// ApplyDefaults fills zero-valued audio format fields with project
// defaults. Per-clip and per-track defaults are handled at decode time
// by the UnmarshalJSON implementations below.
func (p *Project) ApplyDefaults() {
	if p.Info.SampleRate == 0 {
		p.Info.SampleRate = DefaultSampleRate
	}
	if p.Info.Channels == 0 {
		p.Info.Channels = DefaultChannels
	}
	if p.Info.BitDepth == 0 {
		p.Info.BitDepth = DefaultBitDepth
	}
	if p.Info.ExportFormat == "" {
		p.Info.ExportFormat = DefaultExportFormat
	}
	if p.Info.Version == "" {
		p.Info.Version = DefaultVersion
	}
}

// UnmarshalJSON decodes a clip with the file format's field defaults:
// volume and playbackRate are 1.0 when absent, so a hand-written project
// file that omits them plays at unity gain and normal speed.
func (c *AudioClip) UnmarshalJSON(data []byte) error {
	type alias AudioClip
	a := alias{Volume: 1.0, PlaybackRate: 1.0}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = AudioClip(a)
	return nil
}

// UnmarshalJSON decodes a track with volume defaulting to 1.0 when absent.
func (t *Track) UnmarshalJSON(data []byte) error {
	type alias Track
	a := alias{Volume: 1.0}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Track(a)
	return nil
}
