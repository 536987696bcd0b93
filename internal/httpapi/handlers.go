package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// ErrorBody is the wire shape of a failed operation. Code is one of the
// store's stable error codes; the remote proxy maps it back to the
// matching sentinel.
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// fail writes the taxonomy-mapped error response.
func fail(c echo.Context, err error) error {
	code := store.Code(err)
	status := http.StatusInternalServerError
	switch {
	case store.IsNotFound(err):
		status = http.StatusNotFound
	case code == "project_exists" || code == "duplicate_category" ||
		code == "duplicate_chunk_id" || code == "already_in_category":
		status = http.StatusConflict
	case code != "internal":
		status = http.StatusBadRequest
	}
	return c.JSON(status, ErrorBody{Code: code, Error: err.Error()})
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

type renameCategoryRequest struct {
	NewName string `json:"new_name"`
}

type addChunkRequest struct {
	Category string          `json:"category"`
	Chunk    store.ChunkSpec `json:"chunk"`
}

type bulkAddRequest struct {
	Category string            `json:"category"`
	Chunks   []store.ChunkSpec `json:"chunks"`
}

type importRequest struct {
	Category string            `json:"category"`
	Records  []store.ChunkSpec `json:"records"`
}

type moveChunkRequest struct {
	TargetCategory string `json:"target_category"`
}

type metadataRequest struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Category string `json:"category"`
}

type listResponse struct {
	Projects []string `json:"projects"`
}

type updatedResponse struct {
	Updated int `json:"updated"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	names, err := s.api.ListProjects(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Projects: names})
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	p, err := s.api.CreateProject(c.Request().Context(), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.api.GetProject(c.Request().Context(), c.Param("project"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.api.DeleteProject(c.Request().Context(), c.Param("project")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.api.GetStats(c.Request().Context(), c.Param("project"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleExportProject(c echo.Context) error {
	records, err := s.api.ExportProject(c.Request().Context(), c.Param("project"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleImport(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	res, err := s.api.ImportRecords(c.Request().Context(), c.Param("project"), req.Records, req.Category)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleMerge(c echo.Context) error {
	res, err := s.api.MergeProjects(c.Request().Context(), c.Param("project"), c.Param("target"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	cat, err := s.api.CreateCategory(c.Request().Context(), c.Param("project"), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleRenameCategory(c echo.Context) error {
	var req renameCategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	if err := s.api.RenameCategory(c.Request().Context(), c.Param("project"), c.Param("category"), req.NewName); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	if err := s.api.DeleteCategory(c.Request().Context(), c.Param("project"), c.Param("category")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExportCategory(c echo.Context) error {
	records, err := s.api.ExportCategory(c.Request().Context(), c.Param("project"), c.Param("category"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleAddChunk(c echo.Context) error {
	var req addChunkRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	ch, err := s.api.AddChunk(c.Request().Context(), c.Param("project"), req.Category, req.Chunk)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ch)
}

func (s *Server) handleBulkAddChunks(c echo.Context) error {
	var req bulkAddRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	res, err := s.api.BulkAddChunks(c.Request().Context(), c.Param("project"), req.Category, req.Chunks)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetChunk(c echo.Context) error {
	info, err := s.api.GetChunk(c.Request().Context(), c.Param("project"), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleUpdateChunk(c echo.Context) error {
	var upd store.ChunkUpdate
	if err := c.Bind(&upd); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	ch, err := s.api.UpdateChunk(c.Request().Context(), c.Param("project"), c.Param("id"), upd)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (s *Server) handleDeleteChunk(c echo.Context) error {
	if err := s.api.DeleteChunk(c.Request().Context(), c.Param("project"), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDuplicateChunk(c echo.Context) error {
	ch, err := s.api.DuplicateChunk(c.Request().Context(), c.Param("project"), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ch)
}

func (s *Server) handleMoveChunk(c echo.Context) error {
	var req moveChunkRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	if err := s.api.MoveChunk(c.Request().Context(), c.Param("project"), c.Param("id"), req.TargetCategory); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSearch(c echo.Context) error {
	results, err := s.api.SearchChunks(c.Request().Context(), c.Param("project"), c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) handleBulkUpdateMetadata(c echo.Context) error {
	var req metadataRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, store.ErrInvalidInput)
	}
	updated, err := s.api.BulkUpdateMetadata(c.Request().Context(), c.Param("project"), req.Field, req.Value, req.Category)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, updatedResponse{Updated: updated})
}

func (s *Server) handleHistory(c echo.Context) error {
	commits, err := s.api.History(c.Request().Context(), c.Param("project"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, commits)
}

func (s *Server) handleGetCommit(c echo.Context) error {
	detail, err := s.api.GetCommit(c.Request().Context(), c.Param("project"), c.Param("commit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleRollback(c echo.Context) error {
	p, err := s.api.Rollback(c.Request().Context(), c.Param("project"), c.Param("commit"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
