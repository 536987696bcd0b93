package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BulkUpdateMetadata sets field to value on every chunk in the project,
// or only within one named category when category is non-empty. Standard
// fields overwrite their slot; any other field is upserted into the
// custom-field list by key. Returns the number of chunks touched.
func (s *Service) BulkUpdateMetadata(ctx context.Context, project, field, value, category string) (updated int, err error) {
	ctx, span := s.tracer.Start(ctx, "store.bulk_update_metadata")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("field", field),
	)
	defer func() { s.countMutation(ctx, "bulk_update_metadata", err) }()

	if field == "" {
		return 0, fmt.Errorf("%w: field is required", ErrInvalidInput)
	}

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return 0, err
	}

	cats := p.Categories
	if category != "" {
		cat := findCategory(p, category)
		if cat == nil {
			return 0, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		cats = []*Category{cat}
	}

	for _, cat := range cats {
		for _, ch := range cat.Chunks {
			applyMetadataField(ch, field, value)
			updated++
		}
	}

	if err = s.backend.SaveProject(p); err != nil {
		return 0, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "bulk_update_metadata",
		fmt.Sprintf("Set %q on %d chunks", field, updated))
	s.logger.Info("bulk updated metadata",
		zap.String("project", project),
		zap.String("field", field),
		zap.Int("updated", updated))
	return updated, nil
}

// applyMetadataField writes one field on a chunk: standard slot or
// custom-field upsert.
func applyMetadataField(ch *Chunk, field, value string) {
	switch field {
	case FieldPageTitle:
		ch.Metadata.PageTitle = value
	case FieldSource:
		ch.Metadata.Source = value
	case FieldLicense:
		ch.Metadata.License = value
	default:
		for i := range ch.CustomFields {
			if ch.CustomFields[i].Key == field {
				ch.CustomFields[i].Value = value
				return
			}
		}
		ch.CustomFields = append(ch.CustomFields, CustomField{Key: field, Value: value})
	}
}

// MergeProjects copies every chunk of source into target. Same-named
// categories (case folded) receive the chunks; missing categories are
// created in target with freshly minted identities. Chunks whose id
// already exists anywhere in target are skipped and counted. The source
// project is never mutated.
func (s *Service) MergeProjects(ctx context.Context, source, target string) (res *MergeResult, err error) {
	ctx, span := s.tracer.Start(ctx, "store.merge_projects")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
	)
	defer func() { s.countMutation(ctx, "merge_projects", err) }()

	if source == target {
		return nil, fmt.Errorf("%w: cannot merge a project into itself", ErrInvalidInput)
	}

	// Lock ordering: alphabetical, so two concurrent merges in opposite
	// directions cannot deadlock.
	first, second := source, target
	if first > second {
		first, second = second, first
	}
	unlockFirst := s.lockProject(first)
	defer unlockFirst()
	unlockSecond := s.lockProject(second)
	defer unlockSecond()

	src, err := s.backend.LoadProject(source)
	if err != nil {
		return nil, err
	}
	dst, err := s.backend.LoadProject(target)
	if err != nil {
		return nil, err
	}

	res = &MergeResult{}
	for _, srcCat := range src.Categories {
		dstCat := findCategory(dst, srcCat.Name)
		if dstCat == nil {
			dstCat = &Category{
				ID:     uuid.New().String(),
				Name:   srcCat.Name,
				Chunks: []*Chunk{},
			}
			dst.Categories = append(dst.Categories, dstCat)
		}
		res.CategoriesMerged++

		for _, ch := range srcCat.Chunks {
			if isIDTaken(dst, ch.ID, "") {
				res.ChunksSkipped++
				continue
			}
			cp := ch.Clone()
			cp.UID = uuid.New().String()
			dstCat.Chunks = append(dstCat.Chunks, cp)
			res.ChunksAdded++
		}
	}

	if err = s.backend.SaveProject(dst); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(dst, "merge_projects",
		fmt.Sprintf("Merged %q into %q: %d added, %d skipped",
			source, target, res.ChunksAdded, res.ChunksSkipped))
	s.logger.Info("merged projects",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("added", res.ChunksAdded),
		zap.Int("skipped", res.ChunksSkipped))
	return res, nil
}
