// Package snapshot inspects a tracked location's private store with
// go-git. It backs the human-facing repository listing; the MCP git
// tool never goes through here (it shells out to the real git binary).
package snapshot

import (
	"fmt"
	"path/filepath"
	"time"

	"snapview/internal/gitexec"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// Info summarizes the snapshot history of one tracked repository.
type Info struct {
	// Head is the abbreviated hash of the most recent snapshot.
	Head string
	// LastSnapshot is when that snapshot was taken.
	LastSnapshot time.Time
	// Count is the total number of snapshots.
	Count int
}

// Inspect opens the snapshot store inside location and reports its
// history. A location without a store, or with an empty one, returns an
// error; callers degrade to showing the entry without snapshot details.
func Inspect(location string) (Info, error) {
	store := filepath.Join(location, gitexec.MarkerDir)

	repo, err := git.PlainOpen(store)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return Info{}, fmt.Errorf("no snapshot store at %s", store)
		}
		return Info{}, fmt.Errorf("cannot open snapshot store: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return Info{}, fmt.Errorf("snapshot store has no snapshots yet: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Info{}, fmt.Errorf("cannot read head snapshot: %w", err)
	}

	count := 0
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return Info{}, fmt.Errorf("cannot walk snapshot history: %w", err)
	}
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("cannot walk snapshot history: %w", err)
	}

	return Info{
		Head:         head.Hash().String()[:7],
		LastSnapshot: commit.Committer.When,
		Count:        count,
	}, nil
}
