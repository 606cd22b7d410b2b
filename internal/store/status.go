package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SunguochaoYeepay/sound-Edit/internal/fsutil"
	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// StatusStore is the durable key-value store for render-task status,
// one record per task id. Writes come from the task's own execution
// only; reads may happen concurrently from any number of pollers.
type StatusStore interface {
	Put(ctx context.Context, rec model.StatusRecord) error
	Get(ctx context.Context, taskID string) (model.StatusRecord, error)
	List(ctx context.Context) ([]model.StatusRecord, error)
}

// FileStatusStore keeps one JSON status file per task id.
type FileStatusStore struct {
	dir string
}

// NewFileStatusStore returns a status store rooted at dir, creating it
// if needed.
func NewFileStatusStore(dir string) (*FileStatusStore, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create status dir: %w", err)
	}
	return &FileStatusStore{dir: dir}, nil
}

func (s *FileStatusStore) path(taskID string) string {
	return filepath.Join(s.dir, fsutil.SanitizeFileName(taskID)+".status.json")
}

// Put replaces the task's status record atomically, so a poller reading
// concurrently sees either the previous record or this one.
func (s *FileStatusStore) Put(ctx context.Context, rec model.StatusRecord) error {
	if rec.TaskID == "" {
		return fmt.Errorf("status record has no task id")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status %s: %w", rec.TaskID, err)
	}
	return fsutil.WriteFileAtomic(s.path(rec.TaskID), data)
}

// Get reads a task's status record. An unknown id returns ErrNotFound.
func (s *FileStatusStore) Get(ctx context.Context, taskID string) (model.StatusRecord, error) {
	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return model.StatusRecord{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		return model.StatusRecord{}, err
	}

	var rec model.StatusRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.StatusRecord{}, fmt.Errorf("decode status %s: %w", taskID, err)
	}
	return rec, nil
}

// List returns every persisted status record. Used by the stale-task
// sweeper.
func (s *FileStatusStore) List(ctx context.Context) ([]model.StatusRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var recs []model.StatusRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".status.json") {
			continue
		}
		rec, err := s.Get(ctx, strings.TrimSuffix(name, ".status.json"))
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
