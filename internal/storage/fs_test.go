package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

func newFSBackend(t *testing.T) *FSBackend {
	t.Helper()
	b, err := NewFSBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return b
}

func sampleProject(name string) *store.Project {
	return &store.Project{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Categories: []*store.Category{
			{
				ID:   "cat-1",
				Name: "Creatures",
				Chunks: []*store.Chunk{
					{
						UID:  "uid-1",
						ID:   "creeper",
						Text: "boom",
						Metadata: store.Metadata{
							PageTitle: "Creeper",
							License:   store.DefaultLicense,
						},
						CustomFields: []store.CustomField{{Key: "danger", Value: "high"}},
					},
				},
			},
		},
	}
}

func TestNewFSBackend_RequiresDir(t *testing.T) {
	_, err := NewFSBackend("", zap.NewNop())
	require.Error(t, err)
}

func TestNewFSBackend_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "projects")
	_, err := NewFSBackend(dir, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestProjectRoundTrip(t *testing.T) {
	b := newFSBackend(t)
	p := sampleProject("norse_myths")

	require.NoError(t, b.SaveProject(p))

	got, err := b.LoadProject("norse_myths")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	require.Len(t, got.Categories, 1)
	require.Len(t, got.Categories[0].Chunks, 1)
	ch := got.Categories[0].Chunks[0]
	assert.Equal(t, "uid-1", ch.UID)
	assert.Equal(t, "creeper", ch.ID)
	assert.Equal(t, []store.CustomField{{Key: "danger", Value: "high"}}, ch.CustomFields)
}

func TestLoadProject_Missing(t *testing.T) {
	b := newFSBackend(t)
	_, err := b.LoadProject("ghost")
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestSaveProject_RequiresName(t *testing.T) {
	b := newFSBackend(t)
	require.Error(t, b.SaveProject(&store.Project{}))
	require.Error(t, b.SaveProject(nil))
}

func TestPathEscapingNamesRejected(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	b, err := NewFSBackend(dir, zap.NewNop())
	require.NoError(t, err)

	// a sibling file outside the data directory that must stay untouched
	outside := filepath.Join(filepath.Dir(dir), "other.json")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0o600))

	for _, name := range []string{"../other", "a/b", `a\b`, "..", "."} {
		_, err := b.LoadProject(name)
		assert.ErrorIs(t, err, store.ErrInvalidName, name)

		err = b.SaveProject(sampleProject(name))
		assert.ErrorIs(t, err, store.ErrInvalidName, name)

		err = b.DeleteProject(name)
		assert.ErrorIs(t, err, store.ErrInvalidName, name)

		_, err = b.ProjectExists(name)
		assert.ErrorIs(t, err, store.ErrInvalidName, name)

		_, err = b.LoadHistory(name)
		assert.ErrorIs(t, err, store.ErrInvalidName, name)

		err = b.DeleteHistory(name)
		assert.ErrorIs(t, err, store.ErrInvalidName, name)
	}

	_, err = os.Stat(outside)
	require.NoError(t, err)
}

func TestProjectExists(t *testing.T) {
	b := newFSBackend(t)

	ok, err := b.ProjectExists("p")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.SaveProject(sampleProject("p")))
	ok, err = b.ProjectExists("p")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteProject_LeavesHistoryOrphan(t *testing.T) {
	b := newFSBackend(t)
	require.NoError(t, b.SaveProject(sampleProject("p")))
	require.NoError(t, b.SaveHistory(&History{
		Project: "p",
		Commits: []*store.Commit{{ID: "c1", Timestamp: time.Now()}},
	}))

	require.NoError(t, b.DeleteProject("p"))

	_, err := b.LoadProject("p")
	require.ErrorIs(t, err, store.ErrProjectNotFound)

	h, err := b.LoadHistory("p")
	require.NoError(t, err)
	assert.Len(t, h.Commits, 1)

	require.NoError(t, b.DeleteHistory("p"))
	h, err = b.LoadHistory("p")
	require.NoError(t, err)
	assert.Empty(t, h.Commits)
}

func TestDeleteProject_Missing(t *testing.T) {
	b := newFSBackend(t)
	err := b.DeleteProject("ghost")
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestListProjects_ExcludesHistories(t *testing.T) {
	b := newFSBackend(t)
	require.NoError(t, b.SaveProject(sampleProject("alpha")))
	require.NoError(t, b.SaveProject(sampleProject("beta")))
	require.NoError(t, b.SaveHistory(&History{Project: "alpha"}))

	// stray non-JSON files are ignored too
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir(), "notes.txt"), []byte("x"), 0o600))

	names, err := b.ListProjects()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestLoadHistory_MissingIsEmpty(t *testing.T) {
	b := newFSBackend(t)
	h, err := b.LoadHistory("p")
	require.NoError(t, err)
	assert.Equal(t, "p", h.Project)
	assert.Empty(t, h.Commits)
}

func TestHistoryRoundTrip(t *testing.T) {
	b := newFSBackend(t)
	h := &History{
		Project: "p",
		Commits: []*store.Commit{
			{
				ID:        "c1",
				Timestamp: time.Now().UTC(),
				Source:    store.SourceMCP,
				Action:    "add_chunk",
				Summary:   "Added chunk",
				Stats:     store.CommitStats{Categories: 1, Chunks: 2},
				Snapshot:  sampleProject("p"),
			},
		},
	}
	require.NoError(t, b.SaveHistory(h))

	got, err := b.LoadHistory("p")
	require.NoError(t, err)
	require.Len(t, got.Commits, 1)
	assert.Equal(t, "c1", got.Commits[0].ID)
	require.NotNil(t, got.Commits[0].Snapshot)
	assert.Equal(t, "p", got.Commits[0].Snapshot.Name)
}

func TestWritesAreFileModeRestricted(t *testing.T) {
	b := newFSBackend(t)
	require.NoError(t, b.SaveProject(sampleProject("p")))

	info, err := os.Stat(filepath.Join(b.Dir(), "p.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRecentlyWrote(t *testing.T) {
	b := newFSBackend(t)
	path := filepath.Join(b.Dir(), "p.json")

	assert.False(t, b.RecentlyWrote(path))
	require.NoError(t, b.SaveProject(sampleProject("p")))
	assert.True(t, b.RecentlyWrote(path))
	assert.False(t, b.RecentlyWrote(filepath.Join(b.Dir(), "other.json")))
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	b := newFSBackend(t)
	require.NoError(t, b.SaveProject(sampleProject("p")))

	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
