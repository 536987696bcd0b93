package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/sanitize"
)

// flatten merges a chunk's standard metadata with its custom fields into
// the flat export shape. Custom fields are applied after the standard
// keys, so a colliding custom key wins. That is the defined collision
// policy, not an accident.
func flatten(ch *Chunk) ExportRecord {
	meta := map[string]string{
		FieldPageTitle: ch.Metadata.PageTitle,
		FieldSource:    ch.Metadata.Source,
		FieldLicense:   ch.Metadata.License,
	}
	for _, cf := range ch.CustomFields {
		meta[cf.Key] = cf.Value
	}
	return ExportRecord{ID: ch.ID, Text: ch.Text, Metadata: meta}
}

// ExportProject produces the flat RAG-ready record sequence for every
// chunk in the project, in category then chunk order.
func (s *Service) ExportProject(ctx context.Context, project string) ([]ExportRecord, error) {
	_, span := s.tracer.Start(ctx, "store.export_project")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	records := []ExportRecord{}
	for _, cat := range p.Categories {
		for _, ch := range cat.Chunks {
			records = append(records, flatten(ch))
		}
	}
	return records, nil
}

// ExportCategory produces the flat record sequence for one category.
func (s *Service) ExportCategory(ctx context.Context, project, category string) ([]ExportRecord, error) {
	_, span := s.tracer.Start(ctx, "store.export_category")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	cat := findCategory(p, category)
	if cat == nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	records := []ExportRecord{}
	for _, ch := range cat.Chunks {
		records = append(records, flatten(ch))
	}
	return records, nil
}

// ImportRecords loads flat records into the named category, creating the
// project and the category on the fly when absent. Blank or duplicate ids
// are skipped and counted, never hard errors. The whole batch is applied
// to one loaded-then-saved document.
func (s *Service) ImportRecords(ctx context.Context, project string, records []ChunkSpec, category string) (res *ImportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "store.import_records")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.Int("record_count", len(records)),
	)
	defer func() { s.countMutation(ctx, "import_records", err) }()

	if records == nil {
		return nil, fmt.Errorf("%w: records must be a sequence", ErrInvalidInput)
	}
	if category == "" {
		category = s.config.ImportCategory
	}

	clean := sanitize.ProjectName(project)
	if clean == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, project)
	}

	unlock := s.lockProject(clean)
	defer unlock()

	p, err := s.backend.LoadProject(clean)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		p = &Project{
			Name:       clean,
			CreatedAt:  time.Now(),
			Categories: []*Category{},
		}
	}

	cat := findCategory(p, category)
	if cat == nil {
		cat = &Category{
			ID:     uuid.New().String(),
			Name:   category,
			Chunks: []*Chunk{},
		}
		p.Categories = append(p.Categories, cat)
	}

	res = &ImportResult{}
	for _, rec := range records {
		if _, addErr := s.appendChunk(p, cat, rec); addErr != nil {
			res.Skipped++
			continue
		}
		res.Imported++
	}

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "import",
		fmt.Sprintf("Imported %d chunks into %q (%d skipped)", res.Imported, cat.Name, res.Skipped))
	s.logger.Info("imported records",
		zap.String("project", clean),
		zap.String("category", cat.Name),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
