// Package remote implements the store API against a remote server's REST
// surface. A daemon running in remote mode constructs its tool layer over
// this client instead of the local file-backed service, so callers observe
// the identical contract in both modes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// ErrServerUnavailable wraps transport-level failures reaching the server.
var ErrServerUnavailable = errors.New("remote server unavailable")

// Config holds client settings.
type Config struct {
	// BaseURL is the server root, e.g. http://127.0.0.1:8765.
	BaseURL string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *zap.Logger
}

// DefaultTimeout bounds a single round trip to the server.
const DefaultTimeout = 30 * time.Second

// Client forwards every store operation to a remote server over its REST
// API. Error bodies carry the store's wire codes and are mapped back to
// the matching sentinels, so errors.Is works the same as against the
// local service.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

var _ store.API = (*Client)(nil)

// NewClient validates cfg and returns a connected-mode client. No request
// is made until the first operation.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: cfg.Logger,
	}, nil
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// do performs one round trip. in (when non-nil) is the JSON request body;
// out (when non-nil) receives the decoded response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Code == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if sentinel := store.FromCode(eb.Code); sentinel != nil {
		if eb.Error != "" && eb.Error != sentinel.Error() {
			return fmt.Errorf("%w: %s", sentinel, eb.Error)
		}
		return sentinel
	}
	return fmt.Errorf("server error: %s", eb.Error)
}

func projectPath(project string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString("/api/v1/projects/")
	b.WriteString(url.PathEscape(project))
	for _, p := range parts {
		b.WriteString("/")
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *Client) CreateProject(ctx context.Context, name string) (*store.Project, error) {
	var p store.Project
	req := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProject(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, projectPath(name), nil, nil)
}

func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var out struct {
		Projects []string `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) GetProject(ctx context.Context, name string) (*store.Project, error) {
	var p store.Project
	if err := c.do(ctx, http.MethodGet, projectPath(name), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetStats(ctx context.Context, name string) (*store.ProjectStats, error) {
	var stats store.ProjectStats
	if err := c.do(ctx, http.MethodGet, projectPath(name, "stats"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) CreateCategory(ctx context.Context, project, name string) (*store.Category, error) {
	var cat store.Category
	req := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPost, projectPath(project, "categories"), req, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) RenameCategory(ctx context.Context, project, oldName, newName string) error {
	req := struct {
		NewName string `json:"new_name"`
	}{NewName: newName}
	return c.do(ctx, http.MethodPut, projectPath(project, "categories", oldName), req, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, project, name string) error {
	return c.do(ctx, http.MethodDelete, projectPath(project, "categories", name), nil, nil)
}

func (c *Client) AddChunk(ctx context.Context, project, category string, spec store.ChunkSpec) (*store.Chunk, error) {
	var ch store.Chunk
	req := struct {
		Category string          `json:"category"`
		Chunk    store.ChunkSpec `json:"chunk"`
	}{Category: category, Chunk: spec}
	if err := c.do(ctx, http.MethodPost, projectPath(project, "chunks"), req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) BulkAddChunks(ctx context.Context, project, category string, specs []store.ChunkSpec) (*store.BulkAddResult, error) {
	var res store.BulkAddResult
	req := struct {
		Category string            `json:"category"`
		Chunks   []store.ChunkSpec `json:"chunks"`
	}{Category: category, Chunks: specs}
	if err := c.do(ctx, http.MethodPost, projectPath(project, "chunks", "bulk"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetChunk(ctx context.Context, project, id string) (*store.ChunkInfo, error) {
	var info store.ChunkInfo
	if err := c.do(ctx, http.MethodGet, projectPath(project, "chunks", id), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) UpdateChunk(ctx context.Context, project, id string, upd store.ChunkUpdate) (*store.Chunk, error) {
	var ch store.Chunk
	if err := c.do(ctx, http.MethodPatch, projectPath(project, "chunks", id), upd, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) DeleteChunk(ctx context.Context, project, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(project, "chunks", id), nil, nil)
}

func (c *Client) DuplicateChunk(ctx context.Context, project, id string) (*store.Chunk, error) {
	var ch store.Chunk
	if err := c.do(ctx, http.MethodPost, projectPath(project, "chunks", id, "duplicate"), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) MoveChunk(ctx context.Context, project, id, targetCategory string) error {
	req := struct {
		TargetCategory string `json:"target_category"`
	}{TargetCategory: targetCategory}
	return c.do(ctx, http.MethodPost, projectPath(project, "chunks", id, "move"), req, nil)
}

func (c *Client) SearchChunks(ctx context.Context, project, query string) ([]store.SearchResult, error) {
	var results []store.SearchResult
	path := projectPath(project, "search") + "?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) ExportProject(ctx context.Context, project string) ([]store.ExportRecord, error) {
	var records []store.ExportRecord
	if err := c.do(ctx, http.MethodGet, projectPath(project, "export"), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) ExportCategory(ctx context.Context, project, category string) ([]store.ExportRecord, error) {
	var records []store.ExportRecord
	if err := c.do(ctx, http.MethodGet, projectPath(project, "categories", category, "export"), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) ImportRecords(ctx context.Context, project string, records []store.ChunkSpec, category string) (*store.ImportResult, error) {
	var res store.ImportResult
	req := struct {
		Category string            `json:"category"`
		Records  []store.ChunkSpec `json:"records"`
	}{Category: category, Records: records}
	if err := c.do(ctx, http.MethodPost, projectPath(project, "import"), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) BulkUpdateMetadata(ctx context.Context, project, field, value, category string) (int, error) {
	var out struct {
		Updated int `json:"updated"`
	}
	req := struct {
		Field    string `json:"field"`
		Value    string `json:"value"`
		Category string `json:"category"`
	}{Field: field, Value: value, Category: category}
	if err := c.do(ctx, http.MethodPost, projectPath(project, "metadata"), req, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

func (c *Client) MergeProjects(ctx context.Context, source, target string) (*store.MergeResult, error) {
	var res store.MergeResult
	if err := c.do(ctx, http.MethodPost, projectPath(source, "merge-into", target), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) History(ctx context.Context, project string) ([]*store.Commit, error) {
	var commits []*store.Commit
	if err := c.do(ctx, http.MethodGet, projectPath(project, "history"), nil, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *Client) GetCommit(ctx context.Context, project, commitID string) (*store.CommitDetail, error) {
	var detail store.CommitDetail
	if err := c.do(ctx, http.MethodGet, projectPath(project, "history", commitID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) Rollback(ctx context.Context, project, commitID string) (*store.Project, error) {
	var p store.Project
	if err := c.do(ctx, http.MethodPost, projectPath(project, "history", commitID, "rollback"), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
