package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SunguochaoYeepay/sound-Edit/internal/fsutil"
	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
)

// ErrNotFound reports a missing project or task record. It is a result,
// not a failure: callers surface it as a distinct absent/not_found state.
var ErrNotFound = errors.New("record not found")

// ProjectStore is the durable project repository, keyed by project id.
type ProjectStore interface {
	Save(ctx context.Context, p *model.Project) error
	Load(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) ([]model.ProjectInfo, error)
	Delete(ctx context.Context, id string) error
}

// FileProjectStore keeps one JSON document per project under a directory.
type FileProjectStore struct {
	dir string
}

// NewFileProjectStore returns a store rooted at dir, creating it if
// needed.
func NewFileProjectStore(dir string) (*FileProjectStore, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create projects dir: %w", err)
	}
	return &FileProjectStore{dir: dir}, nil
}

func (s *FileProjectStore) path(id string) string {
	return filepath.Join(s.dir, fsutil.SanitizeFileName(id)+".json")
}

// Save writes the project document atomically.
func (s *FileProjectStore) Save(ctx context.Context, p *model.Project) error {
	if p.Info.ID == "" {
		return fmt.Errorf("project has no id")
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project %s: %w", p.Info.ID, err)
	}
	return fsutil.WriteFileAtomic(s.path(p.Info.ID), data)
}

// Load reads a project by id. A missing project returns ErrNotFound.
func (s *FileProjectStore) Load(ctx context.Context, id string) (*model.Project, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ApplyDefaults()
	return &p, nil
}

// List returns every stored project's info, newest first.
func (s *FileProjectStore) List(ctx context.Context) ([]model.ProjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []model.ProjectInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		p, err := s.Load(ctx, id)
		if err != nil {
			// A corrupt document should not hide the healthy ones.
			continue
		}
		infos = append(infos, p.Info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Delete removes a project. A missing project returns ErrNotFound.
func (s *FileProjectStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return err
}
