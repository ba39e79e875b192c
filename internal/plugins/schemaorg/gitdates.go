package schemaorg

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitDates looks up when files were last committed.
type GitDates struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	cache map[string]time.Time
}

// OpenGitDates opens the repository containing dir, searching parent
// directories for .git.
func OpenGitDates(dir string) (*GitDates, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	return &GitDates{repo: repo, root: wt.Filesystem.Root(), cache: make(map[string]time.Time)}, nil
}

// LastModified returns the committer time of the newest commit touching
// path. ok is false when the file was never committed.
func (g *GitDates) LastModified(path string) (t time.Time, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, err
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return time.Time{}, false, err
	}
	rel = filepath.ToSlash(rel)

	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.cache[rel]; ok {
		return t, !t.IsZero(), nil
	}

	iter, err := g.repo.Log(&git.LogOptions{
		Order:    git.LogOrderCommitterTime,
		FileName: &rel,
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("log %s: %w", rel, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	switch {
	case errors.Is(err, io.EOF):
		g.cache[rel] = time.Time{}
		return time.Time{}, false, nil
	case err != nil:
		return time.Time{}, false, fmt.Errorf("log %s: %w", rel, err)
	}
	when := committed(commit)
	g.cache[rel] = when
	return when, true, nil
}

func committed(c *object.Commit) time.Time {
	return c.Committer.When.UTC()
}
