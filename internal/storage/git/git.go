// Package git versions organization data directories with go-git.
//
// Every mutation in the storage layer runs inside CommitTx so the data
// directory history doubles as an audit log.
package git

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

// Author identifies who made a change for git commits.
type Author struct {
	Name  string
	Email string
}

// Commit represents a commit in git history.
type Commit struct {
	Hash        string    `json:"hash"`
	Message     string    `json:"message"` // Subject line.
	Body        string    `json:"body"`    // Commit body (may be empty).
	Author      string    `json:"author"`
	AuthorEmail string    `json:"author_email"`
	AuthorDate  time.Time `json:"author_date"`
}

// Manager creates and caches repositories under a root directory.
type Manager struct {
	rootDir      string
	defaultName  string
	defaultEmail string
	repos        sync.Map // path -> *Repo
}

// NewManager creates a new git repository manager.
func NewManager(rootDir, defaultName, defaultEmail string) *Manager {
	if defaultName == "" {
		defaultName = "docgrid"
	}
	if defaultEmail == "" {
		defaultEmail = "docgrid@localhost"
	}
	return &Manager{
		rootDir:      rootDir,
		defaultName:  defaultName,
		defaultEmail: defaultEmail,
	}
}

// Repo returns or creates a repository for the given subdirectory.
// The subdir is relative to the manager's root directory.
func (m *Manager) Repo(ctx context.Context, subdir string) (*Repo, error) {
	dir := filepath.Join(m.rootDir, subdir)
	if r, ok := m.repos.Load(dir); ok {
		return r.(*Repo), nil
	}

	r, err := newRepo(ctx, dir, m.defaultName, m.defaultEmail)
	if err != nil {
		return nil, err
	}

	actual, _ := m.repos.LoadOrStore(dir, r)
	return actual.(*Repo), nil
}
