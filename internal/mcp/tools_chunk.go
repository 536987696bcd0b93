package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

type chunkAddInput struct {
	Project  string         `json:"project" jsonschema:"required,Project name"`
	Category string         `json:"category" jsonschema:"required,Category name"`
	ID       string         `json:"id" jsonschema:"required,Chunk id, unique across the whole project"`
	Text     string         `json:"text" jsonschema:"Chunk text"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Metadata object; keys outside page_title/source/license become custom fields"`
}

type chunkOutput struct {
	UID      string         `json:"_uid" jsonschema:"Internal identity, stable across id renames"`
	ID       string         `json:"id" jsonschema:"Chunk id"`
	Category string         `json:"category,omitempty" jsonschema:"Owning category name"`
	Text     string         `json:"text" jsonschema:"Chunk text"`
	Metadata store.Metadata `json:"metadata" jsonschema:"Standard metadata fields"`

	CustomFields []store.CustomField `json:"customFields,omitempty" jsonschema:"Ordered custom metadata"`
}

type chunkBulkAddInput struct {
	Project  string            `json:"project" jsonschema:"required,Project name"`
	Category string            `json:"category" jsonschema:"required,Category name"`
	Chunks   []store.ChunkSpec `json:"chunks" jsonschema:"required,Chunk specs; entries failing validation are skipped and reported"`
}

type chunkRefInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
	ID      string `json:"id" jsonschema:"required,Chunk id"`
}

type chunkUpdateInput struct {
	Project   string  `json:"project" jsonschema:"required,Project name"`
	ID        string  `json:"id" jsonschema:"required,Current chunk id"`
	NewID     *string `json:"new_id,omitempty" jsonschema:"New chunk id (checked project-wide, self-rename allowed)"`
	Text      *string `json:"text,omitempty" jsonschema:"New chunk text"`
	PageTitle *string `json:"page_title,omitempty" jsonschema:"New page title"`
	Source    *string `json:"source,omitempty" jsonschema:"New source"`
	License   *string `json:"license,omitempty" jsonschema:"New license"`

	CustomFields []store.CustomField `json:"custom_fields,omitempty" jsonschema:"Replacement custom-field list (replaces, never merges)"`
}

type chunkMoveInput struct {
	Project        string `json:"project" jsonschema:"required,Project name"`
	ID             string `json:"id" jsonschema:"required,Chunk id"`
	TargetCategory string `json:"target_category" jsonschema:"required,Destination category name"`
}

type chunkSearchInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
	Query   string `json:"query" jsonschema:"required,Case-insensitive substring matched against chunk ids and text"`
}

type chunkSearchOutput struct {
	Results []store.SearchResult `json:"results" jsonschema:"Matches in category then chunk order"`
	Count   int                  `json:"count" jsonschema:"Number of matches"`
}

type metadataBulkUpdateInput struct {
	Project  string `json:"project" jsonschema:"required,Project name"`
	Field    string `json:"field" jsonschema:"required,Metadata field to set (standard slot or custom key)"`
	Value    string `json:"value" jsonschema:"Value to apply"`
	Category string `json:"category,omitempty" jsonschema:"Restrict to one category"`
}

type metadataBulkUpdateOutput struct {
	Updated int `json:"updated" jsonschema:"Number of chunks touched"`
}

func toChunkOutput(ch *store.Chunk, category string) chunkOutput {
	return chunkOutput{
		UID:          ch.UID,
		ID:           ch.ID,
		Category:     category,
		Text:         ch.Text,
		Metadata:     ch.Metadata,
		CustomFields: ch.CustomFields,
	}
}

func (s *Server) registerChunkTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_add",
		Description: "Add a single knowledge chunk to a category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkAddInput) (*mcp.CallToolResult, chunkOutput, error) {
		start := time.Now()
		ch, err := s.api.AddChunk(ctx, args.Project, args.Category, store.ChunkSpec{
			ID:       args.ID,
			Text:     args.Text,
			Metadata: args.Metadata,
		})
		s.metrics.RecordInvocation(ctx, "chunk_add", time.Since(start), err)
		if err != nil {
			return nil, chunkOutput{}, err
		}
		return textResult("Added chunk %q", ch.ID), toChunkOutput(ch, args.Category), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_bulk_add",
		Description: "Add a batch of chunks; invalid entries are skipped and reported, never aborting the batch",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkBulkAddInput) (*mcp.CallToolResult, store.BulkAddResult, error) {
		start := time.Now()
		res, err := s.api.BulkAddChunks(ctx, args.Project, args.Category, args.Chunks)
		s.metrics.RecordInvocation(ctx, "chunk_bulk_add", time.Since(start), err)
		if err != nil {
			return nil, store.BulkAddResult{}, err
		}
		return textResult("Added %d chunks (%d skipped)", res.Added, res.Errored), *res, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_get",
		Description: "Get a chunk's full representation and its owning category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkRefInput) (*mcp.CallToolResult, chunkOutput, error) {
		start := time.Now()
		info, err := s.api.GetChunk(ctx, args.Project, args.ID)
		s.metrics.RecordInvocation(ctx, "chunk_get", time.Since(start), err)
		if err != nil {
			return nil, chunkOutput{}, err
		}
		return textResult("Chunk %q in %q", info.Chunk.ID, info.Category),
			toChunkOutput(info.Chunk, info.Category), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_update",
		Description: "Update a chunk; only the supplied fields change, a supplied custom-field list replaces the old one",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkUpdateInput) (*mcp.CallToolResult, chunkOutput, error) {
		start := time.Now()
		ch, err := s.api.UpdateChunk(ctx, args.Project, args.ID, store.ChunkUpdate{
			ID:           args.NewID,
			Text:         args.Text,
			PageTitle:    args.PageTitle,
			Source:       args.Source,
			License:      args.License,
			CustomFields: args.CustomFields,
		})
		s.metrics.RecordInvocation(ctx, "chunk_update", time.Since(start), err)
		if err != nil {
			return nil, chunkOutput{}, err
		}
		return textResult("Updated chunk %q", ch.ID), toChunkOutput(ch, ""), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_delete",
		Description: "Delete a chunk by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkRefInput) (*mcp.CallToolResult, struct{}, error) {
		start := time.Now()
		err := s.api.DeleteChunk(ctx, args.Project, args.ID)
		s.metrics.RecordInvocation(ctx, "chunk_delete", time.Since(start), err)
		if err != nil {
			return nil, struct{}{}, err
		}
		return textResult("Deleted chunk %q", args.ID), struct{}{}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_duplicate",
		Description: "Duplicate a chunk within its category under a derived id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkRefInput) (*mcp.CallToolResult, chunkOutput, error) {
		start := time.Now()
		ch, err := s.api.DuplicateChunk(ctx, args.Project, args.ID)
		s.metrics.RecordInvocation(ctx, "chunk_duplicate", time.Since(start), err)
		if err != nil {
			return nil, chunkOutput{}, err
		}
		return textResult("Duplicated %q as %q", args.ID, ch.ID), toChunkOutput(ch, ""), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_move",
		Description: "Move a chunk to a sibling category in the same project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkMoveInput) (*mcp.CallToolResult, struct{}, error) {
		start := time.Now()
		err := s.api.MoveChunk(ctx, args.Project, args.ID, args.TargetCategory)
		s.metrics.RecordInvocation(ctx, "chunk_move", time.Since(start), err)
		if err != nil {
			return nil, struct{}{}, err
		}
		return textResult("Moved chunk %q to %q", args.ID, args.TargetCategory), struct{}{}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_search",
		Description: "Search chunk ids and text by case-insensitive substring",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args chunkSearchInput) (*mcp.CallToolResult, chunkSearchOutput, error) {
		start := time.Now()
		results, err := s.api.SearchChunks(ctx, args.Project, args.Query)
		s.metrics.RecordInvocation(ctx, "chunk_search", time.Since(start), err)
		if err != nil {
			return nil, chunkSearchOutput{}, err
		}
		return textResult("%d matches", len(results)),
			chunkSearchOutput{Results: results, Count: len(results)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "metadata_bulk_update",
		Description: "Set one metadata field on every chunk in a project or category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args metadataBulkUpdateInput) (*mcp.CallToolResult, metadataBulkUpdateOutput, error) {
		start := time.Now()
		updated, err := s.api.BulkUpdateMetadata(ctx, args.Project, args.Field, args.Value, args.Category)
		s.metrics.RecordInvocation(ctx, "metadata_bulk_update", time.Since(start), err)
		if err != nil {
			return nil, metadataBulkUpdateOutput{}, err
		}
		return textResult("Updated %d chunks", updated), metadataBulkUpdateOutput{Updated: updated}, nil
	})
}
