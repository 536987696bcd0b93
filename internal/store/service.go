// Package store implements the local document store for knowledge chunk
// datasets: projects containing categories containing chunks, persisted
// one JSON document per project.
//
// Every mutating operation is a complete load, mutate, save cycle over
// the project document, guarded by a per-project mutex so interleaved
// calls cannot lose updates. Single-entity mutators fail fast and
// atomically; batch operations convert per-entry failures into counted
// skips. History recording is best-effort and never fails a mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/sanitize"
)

const instrumentationName = "github.com/Skizziik/tryll-dataset-builder/internal/store"

// HistoryAccess is what the store needs from the history ledger: Record
// receives a commit request after every successful mutation and must not
// fail it; Commit resolves a stored commit for rollback.
type HistoryAccess interface {
	Record(p *Project, source, action, summary string)
	Commit(project, commitID string) (*Commit, error)
	List(project string) ([]*Commit, error)
	Get(project, commitID string) (*CommitDetail, error)
}

// Backend is the persistence surface the service needs. It matches
// storage.Backend minus the history methods, which belong to the ledger.
type Backend interface {
	LoadProject(name string) (*Project, error)
	SaveProject(p *Project) error
	DeleteProject(name string) error
	ProjectExists(name string) (bool, error)
	ListProjects() ([]string, error)
}

// Config configures the store service.
type Config struct {
	// DefaultLicense is applied to chunks whose metadata carries none.
	DefaultLicense string

	// ImportCategory is the fallback category name for ImportRecords.
	ImportCategory string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLicense: DefaultLicense,
		ImportCategory: "Imported",
	}
}

// Service is the local document store.
type Service struct {
	config  *Config
	backend Backend
	history HistoryAccess
	logger  *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	mutationCount metric.Int64Counter

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a store service. history may be nil to disable
// history tracking (rollback then fails with ErrCommitNotFound).
func NewService(cfg *Config, backend Backend, history HistoryAccess, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if backend == nil {
		return nil, errors.New("storage backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config:  cfg,
		backend: backend,
		history: history,
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
		locks:   make(map[string]*sync.Mutex),
	}

	var err error
	s.mutationCount, err = s.meter.Int64Counter(
		"tryll.store.mutations_total",
		metric.WithDescription("Total number of store mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create mutation counter", zap.Error(err))
	}

	return s, nil
}

// lockProject returns the mutex guarding one project's load-mutate-save
// cycle. Lock entries are never reaped; project counts are small.
func (s *Service) lockProject(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) countMutation(ctx context.Context, action string, err error) {
	if s.mutationCount == nil {
		return
	}
	s.mutationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("error", err != nil),
	))
}

// record forwards a commit request to the ledger, if any.
func (s *Service) record(p *Project, action, summary string) {
	if s.history == nil {
		return
	}
	s.history.Record(p, SourceMCP, action, summary)
}

// CreateProject sanitizes name, then creates and persists an empty
// project document.
func (s *Service) CreateProject(ctx context.Context, name string) (p *Project, err error) {
	ctx, span := s.tracer.Start(ctx, "store.create_project")
	defer span.End()
	defer func() { s.countMutation(ctx, "create_project", err) }()

	clean := sanitize.ProjectName(name)
	if clean == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	span.SetAttributes(attribute.String("project", clean))

	unlock := s.lockProject(clean)
	defer unlock()

	exists, err := s.backend.ProjectExists(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, clean)
	}

	p = &Project{
		Name:       clean,
		CreatedAt:  time.Now(),
		Categories: []*Category{},
	}
	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "create_project", fmt.Sprintf("Created project %q", clean))
	s.logger.Info("created project", zap.String("project", clean))
	return p, nil
}

// DeleteProject permanently removes the project document. Its history
// document is left behind as an orphan.
func (s *Service) DeleteProject(ctx context.Context, name string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.delete_project")
	defer span.End()
	span.SetAttributes(attribute.String("project", name))
	defer func() { s.countMutation(ctx, "delete_project", err) }()

	unlock := s.lockProject(name)
	defer unlock()

	if err = s.backend.DeleteProject(name); err != nil {
		return err
	}
	s.logger.Info("deleted project", zap.String("project", name))
	return nil
}

// ListProjects enumerates project names known to the backend.
func (s *Service) ListProjects(ctx context.Context) ([]string, error) {
	_, span := s.tracer.Start(ctx, "store.list_projects")
	defer span.End()
	return s.backend.ListProjects()
}

// GetProject returns the full project document.
func (s *Service) GetProject(ctx context.Context, name string) (*Project, error) {
	_, span := s.tracer.Start(ctx, "store.get_project")
	defer span.End()
	span.SetAttributes(attribute.String("project", name))
	return s.backend.LoadProject(name)
}

// GetStats computes the read-only aggregate over all chunks of a project.
// Shortest is 0, not an unbounded sentinel, when the project is empty.
func (s *Service) GetStats(ctx context.Context, name string) (*ProjectStats, error) {
	_, span := s.tracer.Start(ctx, "store.get_stats")
	defer span.End()
	span.SetAttributes(attribute.String("project", name))

	p, err := s.backend.LoadProject(name)
	if err != nil {
		return nil, err
	}

	stats := &ProjectStats{
		Project:     p.Name,
		Categories:  len(p.Categories),
		PerCategory: make([]CategoryCount, 0, len(p.Categories)),
	}
	total := 0
	for _, cat := range p.Categories {
		stats.PerCategory = append(stats.PerCategory, CategoryCount{
			Name:   cat.Name,
			Chunks: len(cat.Chunks),
		})
		for _, ch := range cat.Chunks {
			n := len(ch.Text)
			total += n
			stats.Chunks++
			if n > stats.LongestText {
				stats.LongestText = n
			}
			if stats.Chunks == 1 || n < stats.ShortestText {
				stats.ShortestText = n
			}
		}
	}
	if stats.Chunks > 0 {
		stats.AvgTextLen = total / stats.Chunks
	}
	return stats, nil
}
