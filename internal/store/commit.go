package store

import "time"

// Commit sources: which surface recorded the mutation.
const (
	SourceMCP     = "mcp"
	SourceBrowser = "browser"
)

// CommitStats is the aggregate recorded alongside every commit.
type CommitStats struct {
	Categories int `json:"categories"`
	Chunks     int `json:"chunks"`
}

// Commit is one entry of a project's append-only history: descriptive
// metadata plus a full, self-sufficient snapshot of the project at the
// moment of the mutation. Never a diff.
type Commit struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Action    string      `json:"action"`
	Summary   string      `json:"summary"`
	Stats     CommitStats `json:"stats"`
	Snapshot  *Project    `json:"snapshot,omitempty"`
}

// CommitDetail is a full commit plus the snapshot of the next-older
// commit, so callers can compute diffs. PrevSnapshot is nil for the
// oldest retained commit.
type CommitDetail struct {
	Commit       *Commit  `json:"commit"`
	PrevSnapshot *Project `json:"prevSnapshot"`
}

// Clone deep-copies the commit including its snapshot.
func (c *Commit) Clone() *Commit {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Snapshot = c.Snapshot.Clone()
	return &cp
}

// Stripped returns a copy of the commit without its snapshot, for
// lightweight history listings.
func (c *Commit) Stripped() *Commit {
	cp := *c
	cp.Snapshot = nil
	return &cp
}
