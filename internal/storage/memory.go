package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// MemoryBackend is an in-memory Backend used by tests and by callers that
// want a throwaway store. Documents are deep-copied on the way in and out
// so callers cannot alias persisted state.
type MemoryBackend struct {
	mu        sync.Mutex
	projects  map[string]*store.Project
	histories map[string]*History

	// HistoryErr, when set, is returned by SaveHistory and LoadHistory.
	// Tests use it to force history-write failures.
	HistoryErr error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		projects:  make(map[string]*store.Project),
		histories: make(map[string]*History),
	}
}

func (b *MemoryBackend) LoadProject(name string) (*store.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrProjectNotFound, name)
	}
	return p.Clone(), nil
}

func (b *MemoryBackend) SaveProject(p *store.Project) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.projects[p.Name] = p.Clone()
	return nil
}

func (b *MemoryBackend) DeleteProject(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.projects[name]; !ok {
		return fmt.Errorf("%w: %s", store.ErrProjectNotFound, name)
	}
	delete(b.projects, name)
	return nil
}

func (b *MemoryBackend) ProjectExists(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.projects[name]
	return ok, nil
}

func (b *MemoryBackend) ListProjects() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.projects))
	for n := range b.projects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (b *MemoryBackend) LoadHistory(project string) (*History, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.HistoryErr != nil {
		return nil, b.HistoryErr
	}
	h, ok := b.histories[project]
	if !ok {
		return &History{Project: project}, nil
	}
	cp := &History{Project: h.Project, Commits: make([]*store.Commit, 0, len(h.Commits))}
	for _, c := range h.Commits {
		cp.Commits = append(cp.Commits, c.Clone())
	}
	return cp, nil
}

func (b *MemoryBackend) SaveHistory(h *History) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.HistoryErr != nil {
		return b.HistoryErr
	}
	cp := &History{Project: h.Project, Commits: make([]*store.Commit, 0, len(h.Commits))}
	for _, c := range h.Commits {
		cp.Commits = append(cp.Commits, c.Clone())
	}
	b.histories[h.Project] = cp
	return nil
}

func (b *MemoryBackend) DeleteHistory(project string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.histories, project)
	return nil
}
