package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

type projectCreateInput struct {
	Name string `json:"name" jsonschema:"required,Project name (sanitized to a safe charset)"`
}

type projectCreateOutput struct {
	Name      string    `json:"name" jsonschema:"Sanitized project name"`
	CreatedAt time.Time `json:"created_at" jsonschema:"Creation timestamp"`
}

type projectDeleteInput struct {
	Name string `json:"name" jsonschema:"required,Project name"`
}

type projectListOutput struct {
	Projects []string `json:"projects" jsonschema:"Known project names"`
	Count    int      `json:"count" jsonschema:"Number of projects"`
}

type projectGetInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
}

type projectGetOutput struct {
	Name       string            `json:"name" jsonschema:"Project name"`
	CreatedAt  time.Time         `json:"created_at" jsonschema:"Creation timestamp"`
	Categories []*store.Category `json:"categories" jsonschema:"Categories with their chunks"`
}

type projectStatsInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
}

type projectExportInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
}

type exportOutput struct {
	Records []store.ExportRecord `json:"records" jsonschema:"Flat RAG-ready records"`
	Count   int                  `json:"count" jsonschema:"Number of records"`
}

type projectImportInput struct {
	Project  string            `json:"project" jsonschema:"required,Target project (created when absent)"`
	Records  []store.ChunkSpec `json:"records" jsonschema:"required,Flat records to import"`
	Category string            `json:"category,omitempty" jsonschema:"Target category (default Imported, created when absent)"`
}

type projectMergeInput struct {
	Source string `json:"source" jsonschema:"required,Source project (never mutated)"`
	Target string `json:"target" jsonschema:"required,Target project"`
}

func (s *Server) registerProjectTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_create",
		Description: "Create a new empty dataset project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectCreateInput) (*mcp.CallToolResult, projectCreateOutput, error) {
		start := time.Now()
		p, err := s.api.CreateProject(ctx, args.Name)
		s.metrics.RecordInvocation(ctx, "project_create", time.Since(start), err)
		if err != nil {
			return nil, projectCreateOutput{}, err
		}
		return textResult("Created project %q", p.Name),
			projectCreateOutput{Name: p.Name, CreatedAt: p.CreatedAt}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_delete",
		Description: "Permanently delete a project and all its data",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectDeleteInput) (*mcp.CallToolResult, struct{}, error) {
		start := time.Now()
		err := s.api.DeleteProject(ctx, args.Name)
		s.metrics.RecordInvocation(ctx, "project_delete", time.Since(start), err)
		if err != nil {
			return nil, struct{}{}, err
		}
		return textResult("Deleted project %q", args.Name), struct{}{}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_list",
		Description: "List all dataset projects",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, projectListOutput, error) {
		start := time.Now()
		names, err := s.api.ListProjects(ctx)
		s.metrics.RecordInvocation(ctx, "project_list", time.Since(start), err)
		if err != nil {
			return nil, projectListOutput{}, err
		}
		return textResult("%d projects", len(names)),
			projectListOutput{Projects: names, Count: len(names)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_get",
		Description: "Get a project's full document: every category and chunk",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectGetInput) (*mcp.CallToolResult, projectGetOutput, error) {
		start := time.Now()
		p, err := s.api.GetProject(ctx, args.Project)
		s.metrics.RecordInvocation(ctx, "project_get", time.Since(start), err)
		if err != nil {
			return nil, projectGetOutput{}, err
		}
		chunks := 0
		for _, cat := range p.Categories {
			chunks += len(cat.Chunks)
		}
		return textResult("Project %q: %d categories, %d chunks", p.Name, len(p.Categories), chunks),
			projectGetOutput{Name: p.Name, CreatedAt: p.CreatedAt, Categories: p.Categories}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_stats",
		Description: "Aggregate chunk statistics for a project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectStatsInput) (*mcp.CallToolResult, store.ProjectStats, error) {
		start := time.Now()
		stats, err := s.api.GetStats(ctx, args.Project)
		s.metrics.RecordInvocation(ctx, "project_stats", time.Since(start), err)
		if err != nil {
			return nil, store.ProjectStats{}, err
		}
		return textResult("%d chunks in %d categories", stats.Chunks, stats.Categories), *stats, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_export",
		Description: "Export every chunk of a project as flat RAG-ready records",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectExportInput) (*mcp.CallToolResult, exportOutput, error) {
		start := time.Now()
		records, err := s.api.ExportProject(ctx, args.Project)
		s.metrics.RecordInvocation(ctx, "project_export", time.Since(start), err)
		if err != nil {
			return nil, exportOutput{}, err
		}
		return textResult("Exported %d records", len(records)),
			exportOutput{Records: records, Count: len(records)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_import",
		Description: "Import flat records into a project, creating it on the fly when absent",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectImportInput) (*mcp.CallToolResult, store.ImportResult, error) {
		start := time.Now()
		res, err := s.api.ImportRecords(ctx, args.Project, args.Records, args.Category)
		s.metrics.RecordInvocation(ctx, "project_import", time.Since(start), err)
		if err != nil {
			return nil, store.ImportResult{}, err
		}
		return textResult("Imported %d records (%d skipped)", res.Imported, res.Skipped), *res, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "project_merge",
		Description: "Merge every category and chunk of one project into another",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args projectMergeInput) (*mcp.CallToolResult, store.MergeResult, error) {
		start := time.Now()
		res, err := s.api.MergeProjects(ctx, args.Source, args.Target)
		s.metrics.RecordInvocation(ctx, "project_merge", time.Since(start), err)
		if err != nil {
			return nil, store.MergeResult{}, err
		}
		return textResult("Merged %d categories, %d chunks added, %d skipped",
			res.CategoriesMerged, res.ChunksAdded, res.ChunksSkipped), *res, nil
	})
}

// textResult builds the human-readable half of a tool response.
func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
