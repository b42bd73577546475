// Package storage provides versioned persistence for docgrid databases.
// Every database is a directory holding metadata.json (schema and views)
// plus data.jsonl (one entry per line); all mutations are committed to a
// per-org git repository.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path"
	"path/filepath"

	"github.com/docgrid/docgrid/internal/jsonldb"
	"github.com/docgrid/docgrid/internal/storage/content"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

var (
	errOrgIDRequired = errors.New("org id is required")

	// ErrQuotaDatabases is returned when an organization is at its database limit.
	ErrQuotaDatabases = errors.New("database quota exceeded")
	// ErrQuotaEntries is returned when a database is at its entry limit.
	ErrQuotaEntries = errors.New("entry quota exceeded")
)

// FileStore is the versioned on-disk store. Layout:
//
//	<root>/<orgID>/databases/<dbID>/metadata.json
//	<root>/<orgID>/databases/<dbID>/data.jsonl
//
// Each org directory is a git repository; every mutation is one commit.
type FileStore struct {
	rootDir string
	git     *git.Manager
	quotas  ServerQuotas
}

// NewFileStore creates a versioned store rooted at rootDir.
// gitMgr is required, all operations are versioned.
func NewFileStore(rootDir string, gitMgr *git.Manager, quotas ServerQuotas) (*FileStore, error) {
	if gitMgr == nil {
		return nil, errors.New("git manager is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileStore{rootDir: rootDir, git: gitMgr, quotas: quotas}, nil
}

// Repo returns the org's git repository, initializing it if needed.
func (fs *FileStore) Repo(ctx context.Context, orgID ksid.ID) (*git.Repo, error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	return fs.git.Repo(ctx, orgID.String())
}

func (fs *FileStore) databasesDir(orgID ksid.ID) string {
	return filepath.Join(fs.rootDir, orgID.String(), "databases")
}

func (fs *FileStore) databaseDir(orgID, dbID ksid.ID) string {
	return filepath.Join(fs.databasesDir(orgID), dbID.String())
}

func (fs *FileStore) metadataFile(orgID, dbID ksid.ID) string {
	return filepath.Join(fs.databaseDir(orgID, dbID), "metadata.json")
}

func (fs *FileStore) entriesFile(orgID, dbID ksid.ID) string {
	return filepath.Join(fs.databaseDir(orgID, dbID), "data.jsonl")
}

// gitPath returns a database file's path relative to the org repository root.
func (fs *FileStore) gitPath(dbID ksid.ID, fileName string) string {
	return path.Join("databases", dbID.String(), fileName)
}

// DatabaseExists reports whether a database directory holds metadata.
func (fs *FileStore) DatabaseExists(orgID, dbID ksid.ID) bool {
	if orgID.IsZero() || dbID.IsZero() {
		return false
	}
	_, err := os.Stat(fs.metadataFile(orgID, dbID))
	return err == nil
}

// ReadDatabase loads a database's schema and views.
func (fs *FileStore) ReadDatabase(orgID, dbID ksid.ID) (*content.Database, error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	data, err := os.ReadFile(fs.metadataFile(orgID, dbID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, content.ErrDatabaseNotFound
		}
		return nil, fmt.Errorf("failed to read database metadata: %w", err)
	}
	db := &content.Database{}
	if err := json.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("failed to parse database metadata: %w", err)
	}
	if db.OrgID != orgID {
		return nil, content.ErrForbidden
	}
	return db, nil
}

// WriteDatabase writes a database's metadata and commits. isNew triggers the
// per-org database quota check and changes the commit message.
func (fs *FileStore) WriteDatabase(ctx context.Context, db *content.Database, isNew bool, author git.Author) error {
	repo, err := fs.Repo(ctx, db.OrgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		if err := fs.writeDatabase(db, isNew); err != nil {
			return "", nil, err
		}
		msg := "update: database " + db.ID.String()
		if isNew {
			msg = "create: database " + db.ID.String() + " - " + db.Name
		}
		return msg, []string{fs.gitPath(db.ID, "metadata.json")}, nil
	})
}

func (fs *FileStore) writeDatabase(db *content.Database, isNew bool) error {
	if db.OrgID.IsZero() {
		return errOrgIDRequired
	}
	if isNew {
		if n, err := fs.countDatabases(db.OrgID); err != nil {
			return err
		} else if n >= fs.quotas.MaxDatabasesPerOrg {
			return fmt.Errorf("%w: max %d", ErrQuotaDatabases, fs.quotas.MaxDatabasesPerOrg)
		}
	}
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to marshal database metadata: %w", err)
	}
	if err := os.MkdirAll(fs.databaseDir(db.OrgID, db.ID), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := os.WriteFile(fs.metadataFile(db.OrgID, db.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write database metadata: %w", err)
	}
	return nil
}

func (fs *FileStore) countDatabases(orgID ksid.ID) (int, error) {
	dirs, err := os.ReadDir(fs.databasesDir(orgID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list databases: %w", err)
	}
	n := 0
	for _, d := range dirs {
		if d.IsDir() {
			n++
		}
	}
	return n, nil
}

// DeleteDatabase removes a database's directory and commits.
func (fs *FileStore) DeleteDatabase(ctx context.Context, orgID, dbID ksid.ID, author git.Author) error {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		if !fs.DatabaseExists(orgID, dbID) {
			return "", nil, content.ErrDatabaseNotFound
		}
		files := []string{fs.gitPath(dbID, "metadata.json")}
		if _, err := os.Stat(fs.entriesFile(orgID, dbID)); err == nil {
			files = append(files, fs.gitPath(dbID, "data.jsonl"))
		}
		if err := os.RemoveAll(fs.databaseDir(orgID, dbID)); err != nil {
			return "", nil, fmt.Errorf("failed to delete database: %w", err)
		}
		return "delete: database " + dbID.String(), files, nil
	})
}

// IterDatabases returns an iterator over all databases of an org.
func (fs *FileStore) IterDatabases(orgID ksid.ID) (iter.Seq[*content.Database], error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	dirs, err := os.ReadDir(fs.databasesDir(orgID))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return func(yield func(*content.Database) bool) {
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			id, err := ksid.Parse(d.Name())
			if err != nil {
				continue
			}
			db, err := fs.ReadDatabase(orgID, id)
			if err != nil {
				continue
			}
			if !yield(db) {
				return
			}
		}
	}, nil
}

func (fs *FileStore) entriesTable(orgID, dbID ksid.ID) (*jsonldb.Table[*content.Entry], error) {
	return jsonldb.NewTable[*content.Entry](fs.entriesFile(orgID, dbID))
}

// ReadEntries loads all entries of a database in creation order.
func (fs *FileStore) ReadEntries(orgID, dbID ksid.ID) ([]*content.Entry, error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	if !fs.DatabaseExists(orgID, dbID) {
		return nil, content.ErrDatabaseNotFound
	}
	if _, err := os.Stat(fs.entriesFile(orgID, dbID)); os.IsNotExist(err) {
		return []*content.Entry{}, nil
	}
	table, err := fs.entriesTable(orgID, dbID)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	entries := make([]*content.Entry, 0, table.Len())
	for e := range table.All() {
		entries = append(entries, e)
	}
	return entries, nil
}

// AppendEntry appends an entry to a database and commits.
func (fs *FileStore) AppendEntry(ctx context.Context, orgID, dbID ksid.ID, e *content.Entry, author git.Author) error {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		if err := fs.appendEntry(orgID, dbID, e); err != nil {
			return "", nil, err
		}
		msg := "create: entry " + e.ID.String() + " in database " + dbID.String()
		return msg, []string{fs.gitPath(dbID, "data.jsonl")}, nil
	})
}

func (fs *FileStore) appendEntry(orgID, dbID ksid.ID, e *content.Entry) error {
	if !fs.DatabaseExists(orgID, dbID) {
		return content.ErrDatabaseNotFound
	}
	table, err := fs.entriesTable(orgID, dbID)
	if err != nil {
		return fmt.Errorf("failed to open entries: %w", err)
	}
	if table.Len() >= fs.quotas.MaxEntriesPerDatabase {
		return fmt.Errorf("%w: max %d", ErrQuotaEntries, fs.quotas.MaxEntriesPerDatabase)
	}
	if err := table.Append(e); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// AppendEntries appends a batch of entries in a single commit. Used by the
// bulk import pipeline so one import is one point of history.
func (fs *FileStore) AppendEntries(ctx context.Context, orgID, dbID ksid.ID, entries []*content.Entry, author git.Author) error {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		for _, e := range entries {
			if err := fs.appendEntry(orgID, dbID, e); err != nil {
				return "", nil, err
			}
		}
		msg := fmt.Sprintf("import: %d entries into database %s", len(entries), dbID)
		return msg, []string{fs.gitPath(dbID, "data.jsonl")}, nil
	})
}

// UpdateEntry rewrites an entry in place and commits.
func (fs *FileStore) UpdateEntry(ctx context.Context, orgID, dbID ksid.ID, e *content.Entry, author git.Author) error {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		if !fs.DatabaseExists(orgID, dbID) {
			return "", nil, content.ErrDatabaseNotFound
		}
		table, err := fs.entriesTable(orgID, dbID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to open entries: %w", err)
		}
		if _, err := table.Update(e); err != nil {
			if errors.Is(err, jsonldb.ErrRowNotFound) {
				return "", nil, content.ErrEntryNotFound
			}
			return "", nil, fmt.Errorf("failed to update entry: %w", err)
		}
		msg := "update: entry " + e.ID.String() + " in database " + dbID.String()
		return msg, []string{fs.gitPath(dbID, "data.jsonl")}, nil
	})
}

// DeleteEntry removes an entry and commits.
func (fs *FileStore) DeleteEntry(ctx context.Context, orgID, dbID, entryID ksid.ID, author git.Author) error {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return err
	}
	return repo.CommitTx(ctx, author, func() (string, []string, error) {
		if !fs.DatabaseExists(orgID, dbID) {
			return "", nil, content.ErrDatabaseNotFound
		}
		table, err := fs.entriesTable(orgID, dbID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to open entries: %w", err)
		}
		if _, err := table.Delete(entryID); err != nil {
			if errors.Is(err, jsonldb.ErrRowNotFound) {
				return "", nil, content.ErrEntryNotFound
			}
			return "", nil, fmt.Errorf("failed to delete entry: %w", err)
		}
		msg := "delete: entry " + entryID.String() + " from database " + dbID.String()
		return msg, []string{fs.gitPath(dbID, "data.jsonl")}, nil
	})
}

// GetHistory returns the most recent commits touching a database, newest
// first.
func (fs *FileStore) GetHistory(ctx context.Context, orgID, dbID ksid.ID, n int) ([]*git.Commit, error) {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return repo.GetHistory(ctx, path.Join("databases", dbID.String()), n)
}

// GetFileAtCommit returns a database file's content at a given commit.
func (fs *FileStore) GetFileAtCommit(ctx context.Context, orgID, dbID ksid.ID, hash, fileName string) ([]byte, error) {
	repo, err := fs.Repo(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return repo.GetFileAtCommit(ctx, hash, fs.gitPath(dbID, fileName))
}
