package store

// Explicit recursive clones over the entity types. Snapshots and merge
// copies rely on these instead of a serialize/parse round trip.

// Clone returns a deep copy of the chunk, keeping the same UID.
func (c *Chunk) Clone() *Chunk {
	if c == nil {
		return nil
	}
	cp := &Chunk{
		UID:      c.UID,
		ID:       c.ID,
		Text:     c.Text,
		Metadata: c.Metadata,
	}
	if c.CustomFields != nil {
		cp.CustomFields = make([]CustomField, len(c.CustomFields))
		copy(cp.CustomFields, c.CustomFields)
	}
	return cp
}

// Clone returns a deep copy of the category including all chunks.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := &Category{
		ID:     c.ID,
		Name:   c.Name,
		Chunks: make([]*Chunk, 0, len(c.Chunks)),
	}
	for _, ch := range c.Chunks {
		cp.Chunks = append(cp.Chunks, ch.Clone())
	}
	return cp
}

// Clone returns a deep copy of the whole project document.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := &Project{
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		Categories: make([]*Category, 0, len(p.Categories)),
	}
	for _, cat := range p.Categories {
		cp.Categories = append(cp.Categories, cat.Clone())
	}
	return cp
}
