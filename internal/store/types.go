package store

import (
	"time"
)

// Standard metadata field names recognized on every chunk. Any other key in
// an incoming metadata object is routed into the chunk's custom-field list.
const (
	FieldPageTitle = "page_title"
	FieldSource    = "source"
	FieldLicense   = "license"
)

// DefaultLicense is applied when an incoming chunk carries no license.
const DefaultLicense = "CC BY-NC-SA 3.0"

// PreviewLength is the maximum text length returned by chunk search results.
const PreviewLength = 120

// Metadata holds the three standard chunk fields. All three are always
// present in persisted documents, defaulted to "" (license to
// DefaultLicense) when the caller never set them.
type Metadata struct {
	PageTitle string `json:"page_title"`
	Source    string `json:"source"`
	License   string `json:"license"`
}

// CustomField is a single non-standard metadata entry. Order of insertion is
// preserved, which is why chunks carry a slice rather than a map.
type CustomField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Chunk is the atomic unit of knowledge text. ID is the caller-facing
// identity and must be unique across the whole project. UID is the durable
// internal identity, stable across ID renames.
type Chunk struct {
	UID          string        `json:"_uid"`
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Metadata     Metadata      `json:"metadata"`
	CustomFields []CustomField `json:"customFields"`
}

// Category groups chunks within a project. ID is stable across renames;
// Name is unique within the project under case folding.
type Category struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Chunks []*Chunk `json:"chunks"`
}

// Project is the top-level dataset container, persisted as one document
// keyed by Name.
type Project struct {
	Name       string      `json:"name"`
	CreatedAt  time.Time   `json:"createdAt"`
	Categories []*Category `json:"categories"`
}

// ChunkSpec is the flat input shape consumed by add/bulk-add/import. The
// metadata map mixes standard and custom keys; splitting happens in the
// store.
type ChunkSpec struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExportRecord is the flat RAG-ready output shape. Metadata carries the
// three standard keys merged with every custom field; a custom key that
// collides with a standard key wins because it is applied last.
type ExportRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// ChunkInfo is a chunk plus its owning category name, returned by lookups.
type ChunkInfo struct {
	Chunk    *Chunk `json:"chunk"`
	Category string `json:"category"`
}

// ChunkUpdate describes a partial update. Nil pointers mean "leave alone";
// a non-nil CustomFields replaces the chunk's custom-field list outright.
// CustomFields must not carry omitempty: an empty replacement list has to
// survive a JSON round trip as [] rather than collapsing into nil.
type ChunkUpdate struct {
	ID           *string       `json:"id,omitempty"`
	Text         *string       `json:"text,omitempty"`
	PageTitle    *string       `json:"page_title,omitempty"`
	Source       *string       `json:"source,omitempty"`
	License      *string       `json:"license,omitempty"`
	CustomFields []CustomField `json:"customFields"`
}

// SearchResult is one match from SearchChunks.
type SearchResult struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Preview  string `json:"preview"`
}

// CategoryCount labels a category with its chunk count for stats output.
type CategoryCount struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// ProjectStats is the read-only aggregate returned by GetStats.
type ProjectStats struct {
	Project      string          `json:"project"`
	Categories   int             `json:"categories"`
	Chunks       int             `json:"chunks"`
	PerCategory  []CategoryCount `json:"per_category"`
	AvgTextLen   int             `json:"avg_text_len"`
	LongestText  int             `json:"longest_text"`
	ShortestText int             `json:"shortest_text"`
}

// BulkAddResult reports the outcome of a partial-success batch add.
type BulkAddResult struct {
	Added    int            `json:"added"`
	Errored  int            `json:"errored"`
	AddedIDs []string       `json:"added_ids"`
	Errors   []BulkAddError `json:"errors,omitempty"`
}

// BulkAddError records one skipped batch entry and why.
type BulkAddError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ImportResult reports counts from ImportRecords.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// MergeResult reports counts from MergeProjects.
type MergeResult struct {
	CategoriesMerged int `json:"categories_merged"`
	ChunksAdded      int `json:"chunks_added"`
	ChunksSkipped    int `json:"chunks_skipped"`
}
