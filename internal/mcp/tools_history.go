package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

type historyListInput struct {
	Project string `json:"project" jsonschema:"required,Project name"`
}

type historyListOutput struct {
	Commits []*store.Commit `json:"commits" jsonschema:"Commits newest first, snapshots stripped"`
	Count   int             `json:"count" jsonschema:"Number of commits"`
}

type historyGetInput struct {
	Project  string `json:"project" jsonschema:"required,Project name"`
	CommitID string `json:"commit_id" jsonschema:"required,Commit id"`
}

type historyRollbackInput struct {
	Project  string `json:"project" jsonschema:"required,Project name"`
	CommitID string `json:"commit_id" jsonschema:"required,Commit whose snapshot becomes the live state"`
}

type historyRollbackOutput struct {
	Project    string `json:"project" jsonschema:"Project name"`
	Categories int    `json:"categories" jsonschema:"Categories after rollback"`
	Chunks     int    `json:"chunks" jsonschema:"Chunks after rollback"`
}

func (s *Server) registerHistoryTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "history_list",
		Description: "List a project's commit history, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args historyListInput) (*mcp.CallToolResult, historyListOutput, error) {
		start := time.Now()
		commits, err := s.api.History(ctx, args.Project)
		s.metrics.RecordInvocation(ctx, "history_list", time.Since(start), err)
		if err != nil {
			return nil, historyListOutput{}, err
		}
		return textResult("%d commits", len(commits)),
			historyListOutput{Commits: commits, Count: len(commits)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "history_get",
		Description: "Get a full commit with its snapshot and the previous commit's snapshot for diffing",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args historyGetInput) (*mcp.CallToolResult, store.CommitDetail, error) {
		start := time.Now()
		detail, err := s.api.GetCommit(ctx, args.Project, args.CommitID)
		s.metrics.RecordInvocation(ctx, "history_get", time.Since(start), err)
		if err != nil {
			return nil, store.CommitDetail{}, err
		}
		return textResult("Commit %s (%s)", detail.Commit.ID, detail.Commit.Action), *detail, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "history_rollback",
		Description: "Restore a project to a commit's snapshot; the rollback itself is recorded and reversible",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args historyRollbackInput) (*mcp.CallToolResult, historyRollbackOutput, error) {
		start := time.Now()
		p, err := s.api.Rollback(ctx, args.Project, args.CommitID)
		s.metrics.RecordInvocation(ctx, "history_rollback", time.Since(start), err)
		if err != nil {
			return nil, historyRollbackOutput{}, err
		}
		out := historyRollbackOutput{Project: p.Name, Categories: len(p.Categories)}
		for _, cat := range p.Categories {
			out.Chunks += len(cat.Chunks)
		}
		return textResult("Rolled back %q to commit %s", p.Name, args.CommitID), out, nil
	})
}
