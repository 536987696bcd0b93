package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "tryll-dataset-builder", cfg.Name)
	assert.NotEmpty(t, cfg.Version)
	assert.NotNil(t, cfg.Logger)
}

func TestNewServer_RequiresAPI(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store api is required")
}

func TestNewServer_NilConfig(t *testing.T) {
	srv, err := NewServer(nil, unimplementedAPI{})
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.NotNil(t, srv.mcp)
	assert.NotNil(t, srv.metrics)
}

func TestNewServer_NilLoggerDefaults(t *testing.T) {
	srv, err := NewServer(&Config{Name: "x", Version: "0"}, unimplementedAPI{})
	require.NoError(t, err)
	assert.NotNil(t, srv.logger)
}

func TestToChunkOutput(t *testing.T) {
	ch := &store.Chunk{
		UID:  "uid-1",
		ID:   "creeper",
		Text: "boom",
		Metadata: store.Metadata{
			PageTitle: "Creeper",
			License:   store.DefaultLicense,
		},
		CustomFields: []store.CustomField{{Key: "danger", Value: "high"}},
	}

	out := toChunkOutput(ch, "Creatures")
	assert.Equal(t, "uid-1", out.UID)
	assert.Equal(t, "creeper", out.ID)
	assert.Equal(t, "Creatures", out.Category)
	assert.Equal(t, ch.Metadata, out.Metadata)
	assert.Equal(t, ch.CustomFields, out.CustomFields)
}

func TestTextResult(t *testing.T) {
	res := textResult("Added chunk %q", "creeper")
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
}

func TestMetrics_RecordInvocation(t *testing.T) {
	m := NewMetrics(zap.NewNop())
	require.NotNil(t, m)
	// must not panic for success or failure paths
	m.RecordInvocation(t.Context(), "chunk_add", 0, nil)
	m.RecordInvocation(t.Context(), "chunk_add", 0, store.ErrChunkNotFound)
}

// unimplementedAPI satisfies store.API for construction tests.
type unimplementedAPI struct {
	store.API
}
