package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/sanitize"
)

// findCategory locates a category by case-folded name.
func findCategory(p *Project, name string) *Category {
	folded := sanitize.FoldName(name)
	for _, cat := range p.Categories {
		if sanitize.FoldName(cat.Name) == folded {
			return cat
		}
	}
	return nil
}

// isCategoryNameTaken reports whether another category (different id than
// excludeID) already uses name under case folding.
func isCategoryNameTaken(p *Project, name, excludeID string) bool {
	folded := sanitize.FoldName(name)
	for _, cat := range p.Categories {
		if cat.ID != excludeID && sanitize.FoldName(cat.Name) == folded {
			return true
		}
	}
	return false
}

// CreateCategory appends a new empty category with a fresh identity.
func (s *Service) CreateCategory(ctx context.Context, project, name string) (cat *Category, err error) {
	ctx, span := s.tracer.Start(ctx, "store.create_category")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))
	defer func() { s.countMutation(ctx, "create_category", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	if isCategoryNameTaken(p, name, "") {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}

	cat = &Category{
		ID:     uuid.New().String(),
		Name:   name,
		Chunks: []*Chunk{},
	}
	p.Categories = append(p.Categories, cat)

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "create_category", fmt.Sprintf("Created category %q", name))
	s.logger.Info("created category",
		zap.String("project", project),
		zap.String("category", name))
	return cat, nil
}

// RenameCategory changes a category's name, keeping its identity. Renaming
// a category to its own current name is a legal no-op.
func (s *Service) RenameCategory(ctx context.Context, project, oldName, newName string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.rename_category")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))
	defer func() { s.countMutation(ctx, "rename_category", err) }()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return err
	}
	cat := findCategory(p, oldName)
	if cat == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, oldName)
	}
	if isCategoryNameTaken(p, newName, cat.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, newName)
	}

	prev := cat.Name
	cat.Name = newName

	if err = s.backend.SaveProject(p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "rename_category", fmt.Sprintf("Renamed category %q to %q", prev, newName))
	s.logger.Info("renamed category",
		zap.String("project", project),
		zap.String("from", prev),
		zap.String("to", newName))
	return nil
}

// DeleteCategory removes a category and all its chunks in one write.
func (s *Service) DeleteCategory(ctx context.Context, project, name string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.delete_category")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))
	defer func() { s.countMutation(ctx, "delete_category", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return err
	}
	cat := findCategory(p, name)
	if cat == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}

	kept := make([]*Category, 0, len(p.Categories)-1)
	for _, c := range p.Categories {
		if c.ID != cat.ID {
			kept = append(kept, c)
		}
	}
	p.Categories = kept

	if err = s.backend.SaveProject(p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "delete_category",
		fmt.Sprintf("Deleted category %q (%d chunks)", cat.Name, len(cat.Chunks)))
	s.logger.Info("deleted category",
		zap.String("project", project),
		zap.String("category", cat.Name),
		zap.Int("chunks", len(cat.Chunks)))
	return nil
}
