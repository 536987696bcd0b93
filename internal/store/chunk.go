package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// isIDTaken scans every category for a chunk with the exact external id,
// ignoring the chunk whose internal identity is excludeUID. This is the
// central project-wide uniqueness invariant.
func isIDTaken(p *Project, id, excludeUID string) bool {
	for _, cat := range p.Categories {
		for _, ch := range cat.Chunks {
			if ch.ID == id && ch.UID != excludeUID {
				return true
			}
		}
	}
	return false
}

// findChunk locates a chunk by exact external id. Returns the owning
// category, the chunk's index within it, and the chunk itself.
func findChunk(p *Project, id string) (*Category, int, *Chunk) {
	for _, cat := range p.Categories {
		for i, ch := range cat.Chunks {
			if ch.ID == id {
				return cat, i, ch
			}
		}
	}
	return nil, -1, nil
}

// coerceString renders a metadata value as a string. Explicit null comes
// through as nil and coerces to "".
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// splitMetadata separates an incoming metadata map into the three
// standard fields, each individually defaulted, and a custom-field list
// from every remaining key. JSON objects decode into unordered Go maps,
// so custom fields are stored in sorted key order (see DESIGN.md).
func (s *Service) splitMetadata(meta map[string]any) (Metadata, []CustomField) {
	md := Metadata{License: s.config.DefaultLicense}
	if meta == nil {
		return md, nil
	}
	if v, ok := meta[FieldPageTitle]; ok {
		md.PageTitle = coerceString(v)
	}
	if v, ok := meta[FieldSource]; ok {
		md.Source = coerceString(v)
	}
	if v, ok := meta[FieldLicense]; ok {
		if lic := coerceString(v); lic != "" {
			md.License = lic
		}
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k == FieldPageTitle || k == FieldSource || k == FieldLicense {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var custom []CustomField
	for _, k := range keys {
		custom = append(custom, CustomField{Key: k, Value: coerceString(meta[k])})
	}
	return md, custom
}

// newChunk builds a chunk from a spec with a fresh internal identity.
func (s *Service) newChunk(spec ChunkSpec) *Chunk {
	md, custom := s.splitMetadata(spec.Metadata)
	return &Chunk{
		UID:          uuid.New().String(),
		ID:           spec.ID,
		Text:         spec.Text,
		Metadata:     md,
		CustomFields: custom,
	}
}

// appendChunk validates a spec against the current project state and
// appends it to cat. Shared by AddChunk and BulkAddChunks.
func (s *Service) appendChunk(p *Project, cat *Category, spec ChunkSpec) (*Chunk, error) {
	spec.ID = strings.TrimSpace(spec.ID)
	if spec.ID == "" {
		return nil, ErrEmptyChunkID
	}
	if isIDTaken(p, spec.ID, "") {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateChunkID, spec.ID)
	}
	ch := s.newChunk(spec)
	cat.Chunks = append(cat.Chunks, ch)
	return ch, nil
}

// AddChunk appends a single chunk to the named category.
func (s *Service) AddChunk(ctx context.Context, project, category string, spec ChunkSpec) (ch *Chunk, err error) {
	ctx, span := s.tracer.Start(ctx, "store.add_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", spec.ID),
	)
	defer func() { s.countMutation(ctx, "add_chunk", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	cat := findCategory(p, category)
	if cat == nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}

	ch, err = s.appendChunk(p, cat, spec)
	if err != nil {
		return nil, err
	}
	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "add_chunk", fmt.Sprintf("Added chunk %q to %q", ch.ID, cat.Name))
	s.logger.Info("added chunk",
		zap.String("project", project),
		zap.String("category", cat.Name),
		zap.String("chunk_id", ch.ID))
	return ch, nil
}

// BulkAddChunks processes a batch of specs with partial success: each
// entry is validated independently against the project state as updated
// by earlier entries in the same batch, and either appended or reported
// as a skipped error. One save covers the whole batch.
func (s *Service) BulkAddChunks(ctx context.Context, project, category string, specs []ChunkSpec) (res *BulkAddResult, err error) {
	ctx, span := s.tracer.Start(ctx, "store.bulk_add_chunks")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.Int("batch_size", len(specs)),
	)
	defer func() { s.countMutation(ctx, "bulk_add_chunks", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	cat := findCategory(p, category)
	if cat == nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}

	res = &BulkAddResult{AddedIDs: []string{}}
	for _, spec := range specs {
		ch, addErr := s.appendChunk(p, cat, spec)
		if addErr != nil {
			res.Errored++
			res.Errors = append(res.Errors, BulkAddError{
				ID:     spec.ID,
				Reason: addErr.Error(),
			})
			continue
		}
		res.Added++
		res.AddedIDs = append(res.AddedIDs, ch.ID)
	}

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "bulk_add_chunks",
		fmt.Sprintf("Bulk added %d chunks to %q (%d skipped)", res.Added, cat.Name, res.Errored))
	s.logger.Info("bulk added chunks",
		zap.String("project", project),
		zap.String("category", cat.Name),
		zap.Int("added", res.Added),
		zap.Int("errored", res.Errored))
	return res, nil
}

// GetChunk returns a chunk and its owning category name by exact id.
func (s *Service) GetChunk(ctx context.Context, project, id string) (*ChunkInfo, error) {
	_, span := s.tracer.Start(ctx, "store.get_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", id),
	)

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	cat, _, ch := findChunk(p, id)
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}
	return &ChunkInfo{Chunk: ch.Clone(), Category: cat.Name}, nil
}

// UpdateChunk applies only the fields present in upd. A requested id
// change is checked project-wide excluding the chunk's own internal
// identity, so renaming a chunk to its current id is legal. A supplied
// custom-field list replaces the existing one outright.
func (s *Service) UpdateChunk(ctx context.Context, project, id string, upd ChunkUpdate) (ch *Chunk, err error) {
	ctx, span := s.tracer.Start(ctx, "store.update_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", id),
	)
	defer func() { s.countMutation(ctx, "update_chunk", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	_, _, ch = findChunk(p, id)
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}

	if upd.ID != nil {
		newID := strings.TrimSpace(*upd.ID)
		if newID == "" {
			return nil, ErrEmptyChunkID
		}
		if isIDTaken(p, newID, ch.UID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChunkID, newID)
		}
		ch.ID = newID
	}
	if upd.Text != nil {
		ch.Text = *upd.Text
	}
	if upd.PageTitle != nil {
		ch.Metadata.PageTitle = *upd.PageTitle
	}
	if upd.Source != nil {
		ch.Metadata.Source = *upd.Source
	}
	if upd.License != nil {
		ch.Metadata.License = *upd.License
	}
	if upd.CustomFields != nil {
		ch.CustomFields = make([]CustomField, len(upd.CustomFields))
		copy(ch.CustomFields, upd.CustomFields)
	}

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "update_chunk", fmt.Sprintf("Updated chunk %q", ch.ID))
	s.logger.Info("updated chunk",
		zap.String("project", project),
		zap.String("chunk_id", ch.ID))
	return ch.Clone(), nil
}

// DeleteChunk removes the first chunk matching id in iteration order.
func (s *Service) DeleteChunk(ctx context.Context, project, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.delete_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", id),
	)
	defer func() { s.countMutation(ctx, "delete_chunk", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return err
	}
	cat, i, ch := findChunk(p, id)
	if ch == nil {
		return fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}
	cat.Chunks = append(cat.Chunks[:i], cat.Chunks[i+1:]...)

	if err = s.backend.SaveProject(p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "delete_chunk", fmt.Sprintf("Deleted chunk %q from %q", id, cat.Name))
	s.logger.Info("deleted chunk",
		zap.String("project", project),
		zap.String("chunk_id", id))
	return nil
}

// copyID derives an unused external id for a duplicate: <id>_copy, then
// <id>_copy_1, <id>_copy_2, incrementing until free.
func copyID(p *Project, base string) string {
	candidate := base + "_copy"
	for n := 1; isIDTaken(p, candidate, ""); n++ {
		candidate = fmt.Sprintf("%s_copy_%d", base, n)
	}
	return candidate
}

// DuplicateChunk deep-copies a chunk within its category, minting a new
// internal identity and a derived external id.
func (s *Service) DuplicateChunk(ctx context.Context, project, id string) (ch *Chunk, err error) {
	ctx, span := s.tracer.Start(ctx, "store.duplicate_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", id),
	)
	defer func() { s.countMutation(ctx, "duplicate_chunk", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}
	cat, _, orig := findChunk(p, id)
	if orig == nil {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}

	ch = orig.Clone()
	ch.UID = uuid.New().String()
	ch.ID = copyID(p, orig.ID)
	cat.Chunks = append(cat.Chunks, ch)

	if err = s.backend.SaveProject(p); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "duplicate_chunk", fmt.Sprintf("Duplicated chunk %q as %q", id, ch.ID))
	s.logger.Info("duplicated chunk",
		zap.String("project", project),
		zap.String("from", id),
		zap.String("to", ch.ID))
	return ch.Clone(), nil
}

// MoveChunk transfers a chunk between sibling categories, preserving its
// content and internal identity. Identity of the category is compared,
// not its name, so a renamed target is still "the same category".
func (s *Service) MoveChunk(ctx context.Context, project, id, targetCategory string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.move_chunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", project),
		attribute.String("chunk_id", id),
	)
	defer func() { s.countMutation(ctx, "move_chunk", err) }()

	unlock := s.lockProject(project)
	defer unlock()

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return err
	}
	src, i, ch := findChunk(p, id)
	if ch == nil {
		return fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}
	dst := findCategory(p, targetCategory)
	if dst == nil {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, targetCategory)
	}
	if dst.ID == src.ID {
		return fmt.Errorf("%w: %s", ErrAlreadyInCategory, dst.Name)
	}

	src.Chunks = append(src.Chunks[:i], src.Chunks[i+1:]...)
	dst.Chunks = append(dst.Chunks, ch)

	if err = s.backend.SaveProject(p); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.record(p, "move_chunk",
		fmt.Sprintf("Moved chunk %q from %q to %q", id, src.Name, dst.Name))
	s.logger.Info("moved chunk",
		zap.String("project", project),
		zap.String("chunk_id", id),
		zap.String("from", src.Name),
		zap.String("to", dst.Name))
	return nil
}

// SearchChunks does a case-insensitive substring match over chunk ids and
// text. No ranking: results follow category then chunk iteration order.
func (s *Service) SearchChunks(ctx context.Context, project, query string) ([]SearchResult, error) {
	_, span := s.tracer.Start(ctx, "store.search_chunks")
	defer span.End()
	span.SetAttributes(attribute.String("project", project))

	p, err := s.backend.LoadProject(project)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	results := []SearchResult{}
	for _, cat := range p.Categories {
		for _, ch := range cat.Chunks {
			if !strings.Contains(strings.ToLower(ch.ID), q) &&
				!strings.Contains(strings.ToLower(ch.Text), q) {
				continue
			}
			results = append(results, SearchResult{
				ID:       ch.ID,
				Category: cat.Name,
				Preview:  preview(ch.Text),
			})
		}
	}
	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}

// preview truncates text to PreviewLength runes with an ellipsis marker.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
