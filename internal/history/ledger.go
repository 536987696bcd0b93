// Package history keeps the per-project commit ledger: an append-only,
// newest-first, bounded log where every entry carries a full snapshot of
// the project document.
//
// Recording is best-effort by contract: a failure while writing history
// must never fail or roll back the mutation it documents, so Record logs
// and swallows every error.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/storage"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// DefaultLimit caps commits retained per project. Oldest entries are
// silently dropped once exceeded.
const DefaultLimit = 50

// Ledger records and serves per-project commit history.
type Ledger struct {
	backend storage.Backend
	limit   int
	logger  *zap.Logger
}

// NewLedger creates a ledger over the given backend. A limit of 0 means
// DefaultLimit.
func NewLedger(backend storage.Backend, limit int, logger *zap.Logger) (*Ledger, error) {
	if backend == nil {
		return nil, errors.New("storage backend is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{backend: backend, limit: limit, logger: logger}, nil
}

// Record prepends a commit documenting the given action against the
// current project state. The snapshot is a deep copy taken here, so later
// mutations of p cannot leak into history. All failures are swallowed.
func (l *Ledger) Record(p *store.Project, source, action, summary string) {
	if p == nil {
		return
	}
	commit := &store.Commit{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Source:    source,
		Action:    action,
		Summary:   summary,
		Stats:     statsFor(p),
		Snapshot:  p.Clone(),
	}

	h, err := l.backend.LoadHistory(p.Name)
	if err != nil {
		l.logger.Warn("history load failed, commit dropped",
			zap.String("project", p.Name),
			zap.String("action", action),
			zap.Error(err))
		return
	}

	h.Commits = append([]*store.Commit{commit}, h.Commits...)
	if len(h.Commits) > l.limit {
		h.Commits = h.Commits[:l.limit]
	}

	if err := l.backend.SaveHistory(h); err != nil {
		l.logger.Warn("history save failed, commit dropped",
			zap.String("project", p.Name),
			zap.String("action", action),
			zap.Error(err))
	}
}

// List returns the project's commits newest first with snapshots
// stripped. A project with no history yields an empty list.
func (l *Ledger) List(project string) ([]*store.Commit, error) {
	h, err := l.backend.LoadHistory(project)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	out := make([]*store.Commit, 0, len(h.Commits))
	for _, c := range h.Commits {
		out = append(out, c.Stripped())
	}
	return out, nil
}

// Get returns the full commit with the given id plus the snapshot of the
// chronologically previous (next-older) commit.
func (l *Ledger) Get(project, commitID string) (*store.CommitDetail, error) {
	h, err := l.backend.LoadHistory(project)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	for i, c := range h.Commits {
		if c.ID != commitID {
			continue
		}
		detail := &store.CommitDetail{Commit: c.Clone()}
		if i+1 < len(h.Commits) {
			detail.PrevSnapshot = h.Commits[i+1].Snapshot.Clone()
		}
		return detail, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrCommitNotFound, commitID)
}

// Commit resolves a single full commit by id. This is the lookup the
// store's rollback path uses.
func (l *Ledger) Commit(project, commitID string) (*store.Commit, error) {
	detail, err := l.Get(project, commitID)
	if err != nil {
		return nil, err
	}
	return detail.Commit, nil
}

// Limit returns the configured retention cap.
func (l *Ledger) Limit() int {
	return l.limit
}

func statsFor(p *store.Project) store.CommitStats {
	stats := store.CommitStats{Categories: len(p.Categories)}
	for _, cat := range p.Categories {
		stats.Chunks += len(cat.Chunks)
	}
	return stats
}
