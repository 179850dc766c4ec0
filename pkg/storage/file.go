package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// FileStore writes each run as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store. An empty baseDir means
// os.UserConfigDir()/healthviz/runs.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config dir")
		}
		baseDir = filepath.Join(dir, "healthviz", "runs")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create run dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the directory holding run files.
func (s *FileStore) Path() string { return s.baseDir }

func (s *FileStore) runPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid run id %q", id)
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) SaveRun(_ context.Context, run *Run) error {
	path, err := s.runPath(run.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal run")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write run file")
	}
	return nil
}

func (s *FileStore) GetRun(_ context.Context, id string) (*Run, error) {
	path, err := s.runPath(id)
	if err != nil {
		return nil, notFound(id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readRun(path, id)
}

func readRun(path, id string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read run file")
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse run %s", id)
	}
	return &run, nil
}

func (s *FileStore) ListRuns(_ context.Context, preset string, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read run dir")
	}

	var out []*Run
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		run, err := readRun(filepath.Join(s.baseDir, entry.Name()), id)
		if err != nil {
			continue
		}
		if preset != "" && run.Preset != preset {
			continue
		}
		out = append(out, run)
	}
	sortNewestFirst(out)
	return out[:min(len(out), listLimit(limit))], nil
}

func (s *FileStore) Close(context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
