// Package audio provides post-render file services: ID3 tag writing
// for MP3 exports and cue sheet generation from timeline markers.
//
// # ID3 Tagging
//
// Use the Tagger to stamp project metadata onto an exported MP3:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags("story.mp3", project.Info)
//
// The tagger writes:
//   - Title (project title)
//   - Artist (project author)
//   - Year and Date (project creation time)
//   - Comment (project description)
//
// # Cue Sheets
//
// Generate a cue sheet from a project's markers:
//
//	writer := audio.NewCueWriter()
//	content := writer.CreateCueSheet(project, "story.wav", totalDuration)
//	os.WriteFile("story.cue", []byte(content), 0644)
//
// Each marker becomes a named index point over the rendered file.
package audio
