package vcs

import (
	"github.com/go-git/go-git/v5"
)

// IsDirty returns true if there are uncommitted changes in the working directory.
// Untracked files are not considered dirty.
func IsDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return false, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, ErrNoWorktree
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}

	for _, s := range status {
		// Skip untracked files
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return true, nil
		}
	}

	return false, nil
}

// CurrentRef returns the current branch name or commit SHA (for detached
// HEAD) of the repository containing path.
func CurrentRef(path string) (string, error) {
	repo, err := DefaultOpener().PlainOpenWithDetect(path)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", err
	}

	if name := head.Name(); name != "HEAD" {
		return name, nil
	}
	return head.Hash(), nil
}
