package store

import "context"

// API is the full operation set of the document store. Both operating
// modes implement it: Service against the local file-backed store, and
// the remote client by forwarding to a remote server. Callers observe
// the identical contract and error taxonomy either way.
type API interface {
	CreateProject(ctx context.Context, name string) (*Project, error)
	DeleteProject(ctx context.Context, name string) error
	ListProjects(ctx context.Context) ([]string, error)
	GetProject(ctx context.Context, name string) (*Project, error)
	GetStats(ctx context.Context, name string) (*ProjectStats, error)

	CreateCategory(ctx context.Context, project, name string) (*Category, error)
	RenameCategory(ctx context.Context, project, oldName, newName string) error
	DeleteCategory(ctx context.Context, project, name string) error

	AddChunk(ctx context.Context, project, category string, spec ChunkSpec) (*Chunk, error)
	BulkAddChunks(ctx context.Context, project, category string, specs []ChunkSpec) (*BulkAddResult, error)
	GetChunk(ctx context.Context, project, id string) (*ChunkInfo, error)
	UpdateChunk(ctx context.Context, project, id string, upd ChunkUpdate) (*Chunk, error)
	DeleteChunk(ctx context.Context, project, id string) error
	DuplicateChunk(ctx context.Context, project, id string) (*Chunk, error)
	MoveChunk(ctx context.Context, project, id, targetCategory string) error
	SearchChunks(ctx context.Context, project, query string) ([]SearchResult, error)

	ExportProject(ctx context.Context, project string) ([]ExportRecord, error)
	ExportCategory(ctx context.Context, project, category string) ([]ExportRecord, error)
	ImportRecords(ctx context.Context, project string, records []ChunkSpec, category string) (*ImportResult, error)
	BulkUpdateMetadata(ctx context.Context, project, field, value, category string) (int, error)
	MergeProjects(ctx context.Context, source, target string) (*MergeResult, error)

	History(ctx context.Context, project string) ([]*Commit, error)
	GetCommit(ctx context.Context, project, commitID string) (*CommitDetail, error)
	Rollback(ctx context.Context, project, commitID string) (*Project, error)
}

// compile-time check that Service covers the full API.
var _ API = (*Service)(nil)
