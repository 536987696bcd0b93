package remote_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/history"
	"github.com/Skizziik/tryll-dataset-builder/internal/httpapi"
	"github.com/Skizziik/tryll-dataset-builder/internal/remote"
	"github.com/Skizziik/tryll-dataset-builder/internal/storage"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// newProxiedStore stands up a real server over an in-memory store and
// returns a client speaking to it. This is the contract both operating
// modes share.
func newProxiedStore(t *testing.T) store.API {
	t.Helper()
	backend := storage.NewMemoryBackend()
	ledger, err := history.NewLedger(backend, 0, zap.NewNop())
	require.NoError(t, err)
	svc, err := store.NewService(nil, backend, ledger, zap.NewNop())
	require.NoError(t, err)
	srv, err := httpapi.NewServer(nil, svc, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := remote.NewClient(remote.Config{BaseURL: ts.URL, Logger: zap.NewNop()})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := remote.NewClient(remote.Config{})
	require.Error(t, err)

	_, err = remote.NewClient(remote.Config{BaseURL: "ftp://host"})
	require.Error(t, err)

	_, err = remote.NewClient(remote.Config{BaseURL: "http://localhost:8765"})
	require.NoError(t, err)
}

func TestClient_ServerUnavailable(t *testing.T) {
	client, err := remote.NewClient(remote.Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.ListProjects(context.Background())
	require.ErrorIs(t, err, remote.ErrServerUnavailable)
}

func TestClient_ProjectRoundTrip(t *testing.T) {
	api := newProxiedStore(t)
	ctx := context.Background()

	p, err := api.CreateProject(ctx, "norse_myths")
	require.NoError(t, err)
	assert.Equal(t, "norse_myths", p.Name)

	names, err := api.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"norse_myths"}, names)

	got, err := api.GetProject(ctx, "norse_myths")
	require.NoError(t, err)
	assert.Equal(t, "norse_myths", got.Name)

	require.NoError(t, api.DeleteProject(ctx, "norse_myths"))
	_, err = api.GetProject(ctx, "norse_myths")
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

// TestClient_ErrorTaxonomy verifies wire codes decode back to the exact
// sentinels the local service returns.
func TestClient_ErrorTaxonomy(t *testing.T) {
	api := newProxiedStore(t)
	ctx := context.Background()

	_, err := api.CreateProject(ctx, "p")
	require.NoError(t, err)

	_, err = api.CreateProject(ctx, "p")
	require.ErrorIs(t, err, store.ErrProjectExists)

	_, err = api.GetChunk(ctx, "p", "ghost")
	require.ErrorIs(t, err, store.ErrChunkNotFound)

	_, err = api.CreateCategory(ctx, "p", "  ")
	require.ErrorIs(t, err, store.ErrEmptyName)

	_, err = api.MergeProjects(ctx, "p", "p")
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestClient_ChunkOperations(t *testing.T) {
	api := newProxiedStore(t)
	ctx := context.Background()

	_, err := api.CreateProject(ctx, "p")
	require.NoError(t, err)
	_, err = api.CreateCategory(ctx, "p", "Creatures")
	require.NoError(t, err)

	ch, err := api.AddChunk(ctx, "p", "Creatures", store.ChunkSpec{
		ID:       "creeper",
		Text:     "A hostile mob.",
		Metadata: map[string]any{"danger": "high"},
	})
	require.NoError(t, err)
	assert.Equal(t, store.DefaultLicense, ch.Metadata.License)

	res, err := api.BulkAddChunks(ctx, "p", "Creatures", []store.ChunkSpec{
		{ID: "zombie", Text: "groans"},
		{ID: "creeper", Text: "dup"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Errored)

	text := "updated"
	upd, err := api.UpdateChunk(ctx, "p", "creeper", store.ChunkUpdate{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "updated", upd.Text)

	dup, err := api.DuplicateChunk(ctx, "p", "creeper")
	require.NoError(t, err)
	assert.Equal(t, "creeper_copy", dup.ID)

	_, err = api.CreateCategory(ctx, "p", "Monsters")
	require.NoError(t, err)
	require.NoError(t, api.MoveChunk(ctx, "p", "zombie", "Monsters"))

	info, err := api.GetChunk(ctx, "p", "zombie")
	require.NoError(t, err)
	assert.Equal(t, "Monsters", info.Category)

	results, err := api.SearchChunks(ctx, "p", "creeper")
	require.NoError(t, err)
	require.Len(t, results, 2) // creeper and its copy

	updated, err := api.BulkUpdateMetadata(ctx, "p", "source", "wiki", "")
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	stats, err := api.GetStats(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Chunks)
}

func TestClient_UpdateChunkClearsCustomFields(t *testing.T) {
	api := newProxiedStore(t)
	ctx := context.Background()

	_, err := api.CreateProject(ctx, "p")
	require.NoError(t, err)
	_, err = api.CreateCategory(ctx, "p", "Creatures")
	require.NoError(t, err)
	_, err = api.AddChunk(ctx, "p", "Creatures", store.ChunkSpec{
		ID:       "creeper",
		Text:     "A hostile mob.",
		Metadata: map[string]any{"danger": "high"},
	})
	require.NoError(t, err)

	// nil leaves the custom fields alone
	text := "updated"
	ch, err := api.UpdateChunk(ctx, "p", "creeper", store.ChunkUpdate{Text: &text})
	require.NoError(t, err)
	require.Len(t, ch.CustomFields, 1)

	// an empty replacement list must survive the wire as [] and clear them
	ch, err = api.UpdateChunk(ctx, "p", "creeper", store.ChunkUpdate{
		CustomFields: []store.CustomField{},
	})
	require.NoError(t, err)
	assert.Empty(t, ch.CustomFields)

	info, err := api.GetChunk(ctx, "p", "creeper")
	require.NoError(t, err)
	assert.Empty(t, info.Chunk.CustomFields)
}

func TestClient_ExportImportAndHistory(t *testing.T) {
	api := newProxiedStore(t)
	ctx := context.Background()

	_, err := api.ImportRecords(ctx, "p", []store.ChunkSpec{
		{ID: "a", Text: "one"},
		{ID: "b", Text: "two"},
	}, "Lore")
	require.NoError(t, err)

	records, err := api.ExportProject(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	catRecords, err := api.ExportCategory(ctx, "p", "Lore")
	require.NoError(t, err)
	assert.Len(t, catRecords, 2)

	commits, err := api.History(ctx, "p")
	require.NoError(t, err)
	require.NotEmpty(t, commits)

	detail, err := api.GetCommit(ctx, "p", commits[0].ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Commit.Snapshot)

	require.NoError(t, api.DeleteChunk(ctx, "p", "a"))
	p, err := api.Rollback(ctx, "p", commits[0].ID)
	require.NoError(t, err)
	require.Len(t, p.Categories, 1)
	assert.Len(t, p.Categories[0].Chunks, 2)
}
