package studio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SunguochaoYeepay/sound-Edit/internal/audio"
	"github.com/SunguochaoYeepay/sound-Edit/internal/codec"
	"github.com/SunguochaoYeepay/sound-Edit/internal/config"
	"github.com/SunguochaoYeepay/sound-Edit/internal/fsutil"
	"github.com/SunguochaoYeepay/sound-Edit/internal/mix"
	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
	"github.com/SunguochaoYeepay/sound-Edit/internal/store"
	"github.com/SunguochaoYeepay/sound-Edit/internal/task"
	"github.com/SunguochaoYeepay/sound-Edit/internal/timeline"
	"github.com/SunguochaoYeepay/sound-Edit/internal/waveform"
)

// Options carries optional collaborators for NewService. Any nil field
// gets a file-backed or native default built from settings.
type Options struct {
	Projects store.ProjectStore
	Statuses store.StatusStore
	Decoder  codec.Decoder
	Resolver codec.Resolver
	Encoder  codec.Encoder

	// OnProgress receives task lifecycle and per-segment events. May be
	// nil.
	OnProgress func(task.Event)
}

// Service is the composition root for the studio: all project and
// render operations go through it.
type Service struct {
	settings *config.Settings

	projects store.ProjectStore
	statuses store.StatusStore
	resolver codec.Resolver
	encoder  codec.Encoder
	engine   *mix.Engine
	orch     *task.Orchestrator
	tagger   *audio.Tagger
	cues     *audio.CueWriter

	onProgress func(task.Event)
}

// NewService wires a service from settings, filling in any collaborator
// Options leaves nil.
func NewService(settings *config.Settings, opts Options) (*Service, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	projects := opts.Projects
	if projects == nil {
		var err error
		projects, err = store.NewFileProjectStore(settings.ProjectsDir)
		if err != nil {
			return nil, err
		}
	}
	statuses := opts.Statuses
	if statuses == nil {
		var err error
		statuses, err = store.NewFileStatusStore(settings.StatusDir)
		if err != nil {
			return nil, err
		}
	}

	wav := codec.NewWAVCodec()
	decoder := opts.Decoder
	if decoder == nil {
		decoder = wav
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = wav
	}
	encoder := opts.Encoder
	if encoder == nil {
		encoder = codec.NewFFmpegEncoder(settings.FFmpegPath)
	}

	svc := &Service{
		settings:   settings,
		projects:   projects,
		statuses:   statuses,
		resolver:   resolver,
		encoder:    encoder,
		engine:     mix.NewEngine(decoder),
		tagger:     audio.NewTagger(&audio.TagConfig{ModifyTags: settings.WriteTags, Title: audio.TagModify, Artist: audio.TagModify, Year: audio.TagModify, Date: audio.TagModify, Comment: audio.TagModify}),
		cues:       audio.NewCueWriter(),
		onProgress: opts.OnProgress,
	}
	svc.orch = task.NewOrchestrator(statuses, settings.RenderWorkers, settings.StaleTaskTimeout(), opts.OnProgress)
	return svc, nil
}

// Start launches the render worker pool. Must be called before
// StartExport or StartPreview.
func (s *Service) Start(ctx context.Context) {
	s.orch.Start(ctx)
}

// Close cancels in-flight renders and stops the pool.
func (s *Service) Close() {
	s.orch.Close()
}

// WaitForRenders blocks until every submitted render task has reached a
// terminal state.
func (s *Service) WaitForRenders() {
	s.orch.Wait()
}

// SaveProject validates and persists a project document, assigning an
// id and creation time to new projects and recomputing the derived
// total duration. Validation errors reject the save; warnings do not.
func (s *Service) SaveProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	if p == nil {
		return nil, fmt.Errorf("no project document")
	}
	if p.Info.ID == "" {
		p.Info.ID = "project_" + uuid.NewString()
	}
	if p.Info.CreatedAt.IsZero() {
		p.Info.CreatedAt = time.Now().UTC()
	}
	p.ApplyDefaults()

	result := timeline.Validate(p)
	if !result.Valid {
		return nil, fmt.Errorf("invalid project: %s", strings.Join(result.Errors, "; "))
	}
	for _, w := range result.Warnings {
		s.progress(task.Event{Message: fmt.Sprintf("project %s: %s", p.Info.ID, w), Level: task.LevelWarning})
	}

	timeline.Normalize(p)
	if err := s.projects.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject loads a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.Load(ctx, id)
}

// ListProjects returns stored project summaries, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]model.ProjectInfo, error) {
	return s.projects.List(ctx)
}

// DeleteProject removes a stored project.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.projects.Delete(ctx, id)
}

// ValidateProject runs timeline validation against a stored project
// without rendering anything.
func (s *Service) ValidateProject(ctx context.Context, id string) (timeline.Result, error) {
	p, err := s.projects.Load(ctx, id)
	if err != nil {
		return timeline.Result{}, err
	}
	return timeline.Validate(p), nil
}

// ProbeAsset resolves a source reference to its technical properties.
func (s *Service) ProbeAsset(ctx context.Context, source string) (codec.AssetInfo, error) {
	return s.resolver.Resolve(ctx, source)
}

// StartExport queues a full-project render in the project's configured
// format and returns the task id immediately.
func (s *Service) StartExport(ctx context.Context, projectID string) (string, error) {
	if _, err := s.projects.Load(ctx, projectID); err != nil {
		return "", err
	}
	return s.orch.Submit(ctx, model.KindExport, func(ctx context.Context) (string, error) {
		return s.renderExport(ctx, projectID)
	})
}

// StartPreview queues a render of a sub-range of the project, always as
// WAV. A non-positive duration means the default preview length, capped
// at the remaining project time.
func (s *Service) StartPreview(ctx context.Context, projectID string, start, duration float64) (string, error) {
	if _, err := s.projects.Load(ctx, projectID); err != nil {
		return "", err
	}
	return s.orch.Submit(ctx, model.KindPreview, func(ctx context.Context) (string, error) {
		return s.renderPreview(ctx, projectID, start, duration)
	})
}

// TaskStatus returns the durable status of a render task. Unknown ids
// report the not_found state without an error.
func (s *Service) TaskStatus(ctx context.Context, taskID string) (model.StatusRecord, error) {
	return s.orch.Status(ctx, taskID)
}

// ListTasks returns every persisted render task record.
func (s *Service) ListTasks(ctx context.Context) ([]model.StatusRecord, error) {
	return s.statuses.List(ctx)
}

// RenderWaveform renders the full project and writes a peak-overview
// PNG of the given size. The render is synchronous; waveforms are cheap
// compared to exports and callers want the image now.
func (s *Service) RenderWaveform(ctx context.Context, projectID string, width, height int, outPath string) error {
	p, err := s.projects.Load(ctx, projectID)
	if err != nil {
		return err
	}

	buf, results, err := s.render(ctx, p, mix.ExportWindow(timeline.DeriveTotalDuration(p)))
	if err != nil {
		return err
	}
	s.reportSkipped(p.Info.ID, results)

	peaks := waveform.Peaks(buf.Data, buf.Channels, width)
	if len(peaks) == 0 {
		return fmt.Errorf("project %s renders no audio", projectID)
	}
	if err := fsutil.EnsureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	return waveform.RenderPNG(peaks, width, height, outPath)
}

func (s *Service) renderExport(ctx context.Context, projectID string) (string, error) {
	p, err := s.projects.Load(ctx, projectID)
	if err != nil {
		return "", err
	}

	total := timeline.DeriveTotalDuration(p)
	win := mix.ExportWindow(total)
	segments := mix.Plan(p.Tracks, win)
	if len(segments) == 0 {
		return "", fmt.Errorf("project %s has no audible clips to export", projectID)
	}

	buf, results, err := s.render(ctx, p, win)
	if err != nil {
		return "", err
	}
	s.reportSkipped(p.Info.ID, results)
	if allSkipped(results) {
		return "", fmt.Errorf("project %s: every segment failed to decode", projectID)
	}

	format := p.Info.ExportFormat
	if format == "" {
		format = s.settings.DefaultExportFormat
	}
	outPath := s.outputPath(s.settings.ExportsDir, p.Info.Title, p.Info.ID, format)
	if err := fsutil.EnsureDir(s.settings.ExportsDir); err != nil {
		return "", err
	}
	if err := s.encoder.Encode(ctx, buf.Data, buf.Rate, buf.Channels, p.Info.BitDepth, format, outPath); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	if format == "mp3" && s.settings.WriteTags {
		if err := s.tagger.SaveTags(outPath, p.Info); err != nil {
			s.progress(task.Event{Message: fmt.Sprintf("tag %s: %v", outPath, err), Level: task.LevelWarning})
		}
	}
	if s.settings.WriteCueSheets {
		if content := s.cues.CreateCueSheet(p, outPath, total); content != "" {
			cuePath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".cue"
			if err := fsutil.WriteFileAtomic(cuePath, []byte(content)); err != nil {
				s.progress(task.Event{Message: fmt.Sprintf("write cue sheet: %v", err), Level: task.LevelWarning})
			}
		}
	}
	return outPath, nil
}

func (s *Service) renderPreview(ctx context.Context, projectID string, start, duration float64) (string, error) {
	p, err := s.projects.Load(ctx, projectID)
	if err != nil {
		return "", err
	}

	total := timeline.DeriveTotalDuration(p)
	if duration <= 0 {
		duration = s.settings.DefaultPreviewDuration
	}
	win := mix.PreviewWindow(start, duration, total)
	if win.Duration <= 0 {
		return "", fmt.Errorf("preview window [%.3fs, %.3fs) is outside the project", start, start+duration)
	}

	// A preview of an empty range is valid: it renders silence, so the
	// caller can still scrub past the last clip.
	buf, results, err := s.render(ctx, p, win)
	if err != nil {
		return "", err
	}
	s.reportSkipped(p.Info.ID, results)

	outPath := s.outputPath(s.settings.PreviewsDir, p.Info.Title, p.Info.ID, "wav")
	if err := fsutil.EnsureDir(s.settings.PreviewsDir); err != nil {
		return "", err
	}
	if err := s.encoder.Encode(ctx, buf.Data, buf.Rate, buf.Channels, p.Info.BitDepth, "wav", outPath); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return outPath, nil
}

func (s *Service) render(ctx context.Context, p *model.Project, win mix.Window) (*mix.Buffer, []mix.SegmentResult, error) {
	segments := mix.Plan(p.Tracks, win)
	return s.engine.Render(ctx, segments, p.Info.SampleRate, p.Info.Channels, win.Duration)
}

func (s *Service) reportSkipped(projectID string, results []mix.SegmentResult) {
	for _, r := range results {
		if r.Skipped {
			s.progress(task.Event{
				Message: fmt.Sprintf("project %s: clip %s skipped: %s", projectID, r.ClipID, r.Reason),
				Level:   task.LevelWarning,
			})
		}
	}
}

func allSkipped(results []mix.SegmentResult) bool {
	for _, r := range results {
		if !r.Skipped {
			return false
		}
	}
	return true
}

// outputPath builds a collision-free file name from the project title,
// falling back to the id for untitled projects.
func (s *Service) outputPath(dir, title, projectID, format string) string {
	base := fsutil.SanitizeFileName(title)
	if base == "" {
		base = fsutil.SanitizeFileName(projectID)
	}
	name := fmt.Sprintf("%s-%s.%s", base, uuid.NewString()[:8], format)
	return filepath.Join(dir, name)
}

func (s *Service) progress(event task.Event) {
	if s.onProgress != nil {
		s.onProgress(event)
	}
}
