package audio

import (
	"fmt"

	"github.com/bogem/id3v2"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty clears the tag value (sets to empty string).
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the project.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// This allows fine-grained control over which tags are written
// when finishing an MP3 export.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags: true,
//	    Title:      TagModify,      // Project title
//	    Artist:     TagModify,      // Project author
//	    Year:       TagModify,      // Project creation year
//	    Comment:    TagDoNotModify, // Keep whatever is there
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no tags are modified.
	ModifyTags bool

	// Title controls the TIT2 (Title) frame.
	Title TagEditAction

	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// Year controls the TYER (Year) frame.
	Year TagEditAction

	// Date controls the TDRC (Recording time) frame (ID3v2.4).
	Date TagEditAction

	// Comment controls the COMM (Comments) frame, filled from the
	// project description.
	Comment TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// By default every field is written from project metadata.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags: true,
		Title:      TagModify,
		Artist:     TagModify,
		Year:       TagModify,
		Date:       TagModify,
		Comment:    TagModify,
	}
}

// Tagger writes ID3 tags to exported MP3 files.
//
// Tagger uses the id3v2 library to stamp project metadata onto the
// rendered file: title, author, creation date, and description.
// WAV exports are left untouched (ID3 is an MP3 container feature).
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes ID3 tags from project metadata to the file at path.
//
// The file must already exist; a file with no tag gets a fresh one
// prepended on save. Returns an error if the file cannot be opened or
// saved.
func (t *Tagger) SaveTags(path string, info model.ProjectInfo) error {
	if !t.config.ModifyTags {
		return nil
	}

	// A file without an existing tag opens fine and gets a fresh tag
	// prepended on save.
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	t.updateStringTags(tag, info)

	return tag.Save()
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, info model.ProjectInfo) {
	// Title (TIT2)
	switch t.config.Title {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		tag.SetTitle(info.Title)
	}

	// Artist (TPE1)
	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		if info.Author != "" {
			tag.SetArtist(info.Author)
		}
	}

	// Year (TYER) - ID3v2.3
	switch t.config.Year {
	case TagEmpty:
		tag.DeleteFrames("TYER")
	case TagModify:
		if !info.CreatedAt.IsZero() {
			tag.AddTextFrame("TYER", id3v2.EncodingUTF8, info.CreatedAt.Format("2006"))
		}
	}

	// Date (TDRC) - ID3v2.4
	switch t.config.Date {
	case TagEmpty:
		tag.DeleteFrames("TDRC")
	case TagModify:
		if !info.CreatedAt.IsZero() {
			tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, info.CreatedAt.Format("2006-01-02"))
		}
	}

	// Comment (COMM)
	switch t.config.Comment {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Comments"))
	case TagModify:
		if info.Description != "" {
			comment := id3v2.CommentFrame{
				Encoding:    id3v2.EncodingUTF8,
				Language:    "eng",
				Description: "",
				Text:        info.Description,
			}
			tag.AddCommentFrame(comment)
		}
	}
}
