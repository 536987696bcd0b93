// Package storage persists project and history documents.
//
// The filesystem backend keeps one JSON document per project
// (<name>.json) and a parallel history document (<name>.history.json) in
// a flat data directory. Saves go through a temp file and rename so a
// crash never leaves a half-written document behind. Nothing coordinates
// writers across processes; a second process on the same data directory
// is a last-write-wins race (a documented limitation, surfaced by the
// monitor package rather than fixed here).
package storage

import "github.com/Skizziik/tryll-dataset-builder/internal/store"

// History is the persisted commit log for one project, newest first.
type History struct {
	Project string          `json:"project"`
	Commits []*store.Commit `json:"commits"`
}

// Backend is the persistence contract shared by the store service and the
// history ledger. Implementations return store.ErrProjectNotFound for
// absent project documents; an absent history document is an empty
// history, not an error.
type Backend interface {
	LoadProject(name string) (*store.Project, error)
	SaveProject(p *store.Project) error
	DeleteProject(name string) error
	ProjectExists(name string) (bool, error)
	ListProjects() ([]string, error)

	LoadHistory(project string) (*History, error)
	SaveHistory(h *History) error
	DeleteHistory(project string) error
}
