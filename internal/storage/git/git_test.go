package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	mgr := NewManager(dir, "tester", "tester@localhost")
	repo, err := mgr.Repo(context.Background(), "org1")
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	return repo, filepath.Join(dir, "org1")
}

func TestCommitTx(t *testing.T) {
	repo, dir := newTestRepo(t)
	ctx := context.Background()

	err := repo.CommitTx(ctx, Author{Name: "alice", Email: "alice@example.com"}, func() (string, []string, error) {
		path := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
			return "", nil, err
		}
		return "create: file.txt", []string{"file.txt"}, nil
	})
	if err != nil {
		t.Fatalf("CommitTx: %v", err)
	}

	commits, err := repo.GetHistory(ctx, "file.txt", 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(commits))
	}
	if commits[0].Message != "create: file.txt" {
		t.Errorf("Message = %q", commits[0].Message)
	}
	if commits[0].Author != "alice" {
		t.Errorf("Author = %q, want alice", commits[0].Author)
	}
}

func TestCommitTxNoFilesNoCommit(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	err := repo.CommitTx(ctx, Author{}, func() (string, []string, error) {
		return "noop", nil, nil
	})
	if err != nil {
		t.Fatalf("CommitTx: %v", err)
	}

	n, err := repo.CommitCount(ctx)
	if err != nil {
		t.Fatalf("CommitCount: %v", err)
	}
	if n != 0 {
		t.Errorf("CommitCount = %d, want 0", n)
	}
}

func TestGetFileAtCommit(t *testing.T) {
	repo, dir := newTestRepo(t)
	ctx := context.Background()

	write := func(content string) {
		err := repo.CommitTx(ctx, Author{}, func() (string, []string, error) {
			if err := os.WriteFile(filepath.Join(dir, "doc.txt"), []byte(content), 0o644); err != nil {
				return "", nil, err
			}
			return "update: doc.txt", []string{"doc.txt"}, nil
		})
		if err != nil {
			t.Fatalf("CommitTx: %v", err)
		}
	}
	write("v1")
	write("v2")

	commits, err := repo.GetHistory(ctx, "doc.txt", 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}

	// History is newest first.
	data, err := repo.GetFileAtCommit(ctx, commits[1].Hash, "doc.txt")
	if err != nil {
		t.Fatalf("GetFileAtCommit: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("content = %q, want v1", data)
	}
}

func TestManagerCachesRepos(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, "", "")
	ctx := context.Background()
	a, err := mgr.Repo(ctx, "org1")
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	b, err := mgr.Repo(ctx, "org1")
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if a != b {
		t.Error("manager returned different instances for the same subdir")
	}
}
