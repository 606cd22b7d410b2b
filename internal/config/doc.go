// Package config provides configuration management for soundedit.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - SOUNDEDIT_* environment variable overrides
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Stores everything under ~/.soundedit
//	// 4 render workers, 30 minute stale-task timeout
//	// 44.1 kHz stereo 16-bit WAV output
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Environment variables are applied after the file, so deployments can
// override individual values without editing it:
//
//	SOUNDEDIT_PROJECTS_DIR=/data/projects soundedit list
//
// # Saving Settings
//
//	settings.RenderWorkers = 8
//	err := settings.Save("/path/to/config.json")
package config
