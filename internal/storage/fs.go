package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

const (
	projectSuffix = ".json"
	historySuffix = ".history.json"

	fileMode = 0o600
	dirMode  = 0o700
)

// ownWriteWindow is how long after one of our writes a watch event on
// the same file is attributed to this process.
const ownWriteWindow = 2 * time.Second

// FSBackend stores documents as JSON files in a single data directory.
type FSBackend struct {
	dir    string
	logger *zap.Logger

	mu     sync.Mutex
	writes map[string]time.Time
}

// NewFSBackend creates the data directory if needed and returns a backend
// rooted there.
func NewFSBackend(dir string, logger *zap.Logger) (*FSBackend, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FSBackend{
		dir:    dir,
		logger: logger,
		writes: make(map[string]time.Time),
	}, nil
}

// Dir returns the backing data directory.
func (b *FSBackend) Dir() string {
	return b.dir
}

func (b *FSBackend) projectPath(name string) string {
	return filepath.Join(b.dir, name+projectSuffix)
}

func (b *FSBackend) historyPath(name string) string {
	return filepath.Join(b.dir, name+historySuffix)
}

// checkName rejects names that would resolve to a path outside the data
// directory. Callers higher up sanitize on create, but load/delete paths
// take caller-supplied names straight from the transport.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}
	return nil
}

// LoadProject reads a project document by name.
func (b *FSBackend) LoadProject(name string) (*store.Project, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.projectPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrProjectNotFound, name)
		}
		return nil, fmt.Errorf("failed to read project %q: %w", name, err)
	}
	var p store.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project %q: %w", name, err)
	}
	return &p, nil
}

// SaveProject writes the full project document atomically.
func (b *FSBackend) SaveProject(p *store.Project) error {
	if p == nil || p.Name == "" {
		return errors.New("project name is required")
	}
	if err := checkName(p.Name); err != nil {
		return err
	}
	return b.writeJSON(b.projectPath(p.Name), p)
}

// DeleteProject removes the project document. The history document is
// intentionally left behind as an orphan; callers wanting it gone use
// DeleteHistory.
func (b *FSBackend) DeleteProject(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	path := b.projectPath(name)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", store.ErrProjectNotFound, name)
	}
	if err == nil {
		b.markWritten(path)
	}
	return err
}

// ProjectExists reports whether a project document is on disk.
func (b *FSBackend) ProjectExists(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(b.projectPath(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ListProjects enumerates project document names, excluding histories.
func (b *FSBackend) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, historySuffix) || !strings.HasSuffix(n, projectSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(n, projectSuffix))
	}
	return names, nil
}

// LoadHistory reads a project's history document. A missing file is an
// empty history.
func (b *FSBackend) LoadHistory(project string) (*History, error) {
	if err := checkName(project); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.historyPath(project))
	if err != nil {
		if os.IsNotExist(err) {
			return &History{Project: project}, nil
		}
		return nil, fmt.Errorf("failed to read history for %q: %w", project, err)
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode history for %q: %w", project, err)
	}
	return &h, nil
}

// SaveHistory writes the full history document atomically.
func (b *FSBackend) SaveHistory(h *History) error {
	if h == nil || h.Project == "" {
		return errors.New("history project name is required")
	}
	if err := checkName(h.Project); err != nil {
		return err
	}
	return b.writeJSON(b.historyPath(h.Project), h)
}

// DeleteHistory removes a project's history document if present.
func (b *FSBackend) DeleteHistory(project string) error {
	if err := checkName(project); err != nil {
		return err
	}
	path := b.historyPath(project)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err == nil {
		b.markWritten(path)
	}
	return err
}

// markWritten records that this process just touched path.
func (b *FSBackend) markWritten(path string) {
	b.mu.Lock()
	b.writes[path] = time.Now()
	b.mu.Unlock()
}

// RecentlyWrote reports whether this process wrote path within the own
// write window. The monitor uses it to suppress events for our own
// saves.
func (b *FSBackend) RecentlyWrote(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.writes[path]
	return ok && time.Since(t) < ownWriteWindow
}

// writeJSON marshals v and replaces path via temp file + rename.
func (b *FSBackend) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(b.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	b.markWritten(path)
	return nil
}
