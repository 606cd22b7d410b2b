package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Settings holds all configuration options.
type Settings struct {
	// Storage locations
	ProjectsDir string `json:"projects_dir"`
	ExportsDir  string `json:"exports_dir"`
	PreviewsDir string `json:"previews_dir"`
	StatusDir   string `json:"status_dir"`

	// Render settings
	RenderWorkers           int     `json:"render_workers"`
	StaleTaskTimeoutMinutes int     `json:"stale_task_timeout_minutes"`
	DefaultPreviewDuration  float64 `json:"default_preview_duration"`

	// Output defaults, used when a project leaves them unset
	DefaultSampleRate   int    `json:"default_sample_rate"`
	DefaultChannels     int    `json:"default_channels"`
	DefaultBitDepth     int    `json:"default_bit_depth"`
	DefaultExportFormat string `json:"default_export_format"`

	// Export extras
	WriteTags      bool `json:"write_tags"`
	WriteCueSheets bool `json:"write_cue_sheets"`

	// External tools
	FFmpegPath string `json:"ffmpeg_path"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".soundedit")
	return &Settings{
		ProjectsDir: filepath.Join(root, "projects"),
		ExportsDir:  filepath.Join(root, "exports"),
		PreviewsDir: filepath.Join(root, "previews"),
		StatusDir:   filepath.Join(root, "tasks"),

		RenderWorkers:           4,
		StaleTaskTimeoutMinutes: 30,
		DefaultPreviewDuration:  10,

		DefaultSampleRate:   44100,
		DefaultChannels:     2,
		DefaultBitDepth:     16,
		DefaultExportFormat: "wav",

		WriteTags:      true,
		WriteCueSheets: false,
	}
}

// Load reads settings from a JSON file, then applies any SOUNDEDIT_*
// environment overrides on top.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	settings.applyEnv()
	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// StaleTaskTimeout returns the processing deadline as a duration. Zero
// or negative disables the sweeper.
func (s *Settings) StaleTaskTimeout() time.Duration {
	return time.Duration(s.StaleTaskTimeoutMinutes) * time.Minute
}

func (s *Settings) applyEnv() {
	setString(&s.ProjectsDir, "SOUNDEDIT_PROJECTS_DIR")
	setString(&s.ExportsDir, "SOUNDEDIT_EXPORTS_DIR")
	setString(&s.PreviewsDir, "SOUNDEDIT_PREVIEWS_DIR")
	setString(&s.StatusDir, "SOUNDEDIT_STATUS_DIR")
	setString(&s.FFmpegPath, "SOUNDEDIT_FFMPEG_PATH")
	setInt(&s.RenderWorkers, "SOUNDEDIT_RENDER_WORKERS")
	setInt(&s.StaleTaskTimeoutMinutes, "SOUNDEDIT_STALE_TASK_TIMEOUT_MINUTES")
	setInt(&s.DefaultSampleRate, "SOUNDEDIT_SAMPLE_RATE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
