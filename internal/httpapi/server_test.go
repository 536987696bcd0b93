package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/history"
	"github.com/Skizziik/tryll-dataset-builder/internal/httpapi"
	"github.com/Skizziik/tryll-dataset-builder/internal/storage"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	backend := storage.NewMemoryBackend()
	ledger, err := history.NewLedger(backend, 0, zap.NewNop())
	require.NoError(t, err)
	svc, err := store.NewService(nil, backend, ledger, zap.NewNop())
	require.NoError(t, err)
	srv, err := httpapi.NewServer(nil, svc, zap.NewNop())
	require.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServer_RequiresAPI(t *testing.T) {
	_, err := httpapi.NewServer(nil, nil, zap.NewNop())
	require.Error(t, err)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "norse_myths"})
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[store.Project](t, rec)
	assert.Equal(t, "norse_myths", p.Name)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]string](t, rec)
	assert.Equal(t, []string{"norse_myths"}, list["projects"])

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/norse_myths", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/projects/norse_myths", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/norse_myths", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorBodies(t *testing.T) {
	h := newTestHandler(t)

	// absence maps to 404 with a stable code
	rec := doJSON(t, h, http.MethodGet, "/api/v1/projects/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[httpapi.ErrorBody](t, rec)
	assert.Equal(t, "project_not_found", body.Code)
	assert.NotEmpty(t, body.Error)

	// conflicts map to 409
	doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "p"})
	rec = doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "p"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body = decode[httpapi.ErrorBody](t, rec)
	assert.Equal(t, "project_exists", body.Code)

	// invalid input maps to 400
	rec = doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "@@@"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode[httpapi.ErrorBody](t, rec)
	assert.Equal(t, "invalid_name", body.Code)
}

func TestChunkEndpoints(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "p"})
	doJSON(t, h, http.MethodPost, "/api/v1/projects/p/categories", map[string]string{"name": "Creatures"})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/p/chunks", map[string]any{
		"category": "Creatures",
		"chunk": map[string]any{
			"id":       "creeper",
			"text":     "A hostile mob.",
			"metadata": map[string]any{"danger": "high"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ch := decode[store.Chunk](t, rec)
	assert.Equal(t, "creeper", ch.ID)
	assert.Equal(t, store.DefaultLicense, ch.Metadata.License)

	// duplicate id conflicts
	rec = doJSON(t, h, http.MethodPost, "/api/v1/projects/p/chunks", map[string]any{
		"category": "Creatures",
		"chunk":    map[string]any{"id": "creeper", "text": "again"},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_chunk_id", decode[httpapi.ErrorBody](t, rec).Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/p/chunks/creeper", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[store.ChunkInfo](t, rec)
	assert.Equal(t, "Creatures", info.Category)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/p/search?q=hostile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]store.SearchResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "creeper", results[0].ID)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/projects/p/chunks/creeper", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHistoryAndRollbackEndpoints(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]string{"name": "p"})
	doJSON(t, h, http.MethodPost, "/api/v1/projects/p/categories", map[string]string{"name": "C"})
	doJSON(t, h, http.MethodPost, "/api/v1/projects/p/chunks", map[string]any{
		"category": "C",
		"chunk":    map[string]any{"id": "a", "text": "x"},
	})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/projects/p/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	commits := decode[[]store.Commit](t, rec)
	require.Len(t, commits, 3)
	target := commits[0].ID

	doJSON(t, h, http.MethodDelete, "/api/v1/projects/p/chunks/a", nil)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/projects/p/history/"+target+"/rollback", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/p/chunks/a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
