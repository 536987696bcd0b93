package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type categoryCreateInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
	Name    string `json:"name" jsonschema:"required,Category name (unique per project, case-insensitive)"`
}

type categoryCreateOutput struct {
	ID   string `json:"id" jsonschema:"Category identity, stable across renames"`
	Name string `json:"name" jsonschema:"Category name"`
}

type categoryRenameInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
	OldName string `json:"old_name" jsonschema:"required,Current category name"`
	NewName string `json:"new_name" jsonschema:"required,New category name"`
}

type categoryDeleteInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
	Name    string `json:"name" jsonschema:"required,Category name (deletion cascades to all chunks)"`
}

type categoryExportInput struct {
	Project  string `json:"project" jsonschema:"required,Project name"`
	Category string `json:"category" jsonschema:"required,Category name"`
}

func (s *Server) registerCategoryTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "category_create",
		Description: "Create a new category in a project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args categoryCreateInput) (*mcp.CallToolResult, categoryCreateOutput, error) {
		start := time.Now()
		cat, err := s.api.CreateCategory(ctx, args.Project, args.Name)
		s.metrics.RecordInvocation(ctx, "category_create", time.Since(start), err)
		if err != nil {
			return nil, categoryCreateOutput{}, err
		}
		return textResult("Created category %q", cat.Name),
			categoryCreateOutput{ID: cat.ID, Name: cat.Name}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "category_rename",
		Description: "Rename a category, keeping its identity and chunks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args categoryRenameInput) (*mcp.CallToolResult, struct{}, error) {
		start := time.Now()
		err := s.api.RenameCategory(ctx, args.Project, args.OldName, args.NewName)
		s.metrics.RecordInvocation(ctx, "category_rename", time.Since(start), err)
		if err != nil {
			return nil, struct{}{}, err
		}
		return textResult("Renamed category %q to %q", args.OldName, args.NewName), struct{}{}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "category_delete",
		Description: "Delete a category and every chunk it contains",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args categoryDeleteInput) (*mcp.CallToolResult, struct{}, error) {
		start := time.Now()
		err := s.api.DeleteCategory(ctx, args.Project, args.Name)
		s.metrics.RecordInvocation(ctx, "category_delete", time.Since(start), err)
		if err != nil {
			return nil, struct{}{}, err
		}
		return textResult("Deleted category %q", args.Name), struct{}{}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "category_export",
		Description: "Export one category's chunks as flat RAG-ready records",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args categoryExportInput) (*mcp.CallToolResult, exportOutput, error) {
		start := time.Now()
		records, err := s.api.ExportCategory(ctx, args.Project, args.Category)
		s.metrics.RecordInvocation(ctx, "category_export", time.Since(start), err)
		if err != nil {
			return nil, exportOutput{}, err
		}
		return textResult("Exported %d records", len(records)),
			exportOutput{Records: records, Count: len(records)}, nil
	})
}
