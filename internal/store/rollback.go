package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// History returns the project's commits newest first with snapshots
// stripped. Returns an empty list when history tracking is disabled.
func (s *Service) History(ctx context.Context, project string) ([]*Commit, error) {
	_, span := s.tracer.Start(ctx, "store.history")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))

	if s.history == nil {
		return []*Commit{}, nil
	}
	return s.history.List(project)
}

// GetCommit returns one full commit plus the snapshot of the next-older
// commit for diffing.
func (s *Service) GetCommit(ctx context.Context, project, commitID string) (*CommitDetail, error) {
	_, span := s.tracer.Start(ctx, "store.get_commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("commit_id", commitID),
	)

	if s.history == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, commitID)
	}
	return s.history.Get(project, commitID)
}

// Rollback overwrites the live project document with a stored commit's
// snapshot: a full destructive replace, not a merge. The rollback itself
// is recorded as a new commit referencing the restored commit's
// timestamp, so it can be undone by rolling forward to a later commit.
// Returns the resulting live project state.
func (s *Service) Rollback(ctx context.Context, project, commitID string) (p *Project, err error) {
	ctx, span := s.tracer.Start(ctx, "store.rollback")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("commit_id", commitID),
	)
	defer func() { s.countMutation(ctx, "rollback", err) }()

	if s.history == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, commitID)
	}

	unlock := s.lockProject(project)
	defer unlock()

	commit, err := s.history.Commit(project, commitID)
	if err != nil {
		return nil, err
	}
	if commit.Snapshot == nil {
		return nil, fmt.Errorf("%w: commit %s has no snapshot", ErrCommitNotFound, commitID)
	}

	p = commit.Snapshot.Clone()
	p.Name = project

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "rollback",
		fmt.Sprintf("Rolled back to commit %s from %s",
			commitID, commit.Timestamp.Format("2006-01-02 15:04:05")))
	s.logger.Info("rolled back project",
		zap.String("project", project),
		zap.String("commit_id", commitID))
	return p, nil
}
