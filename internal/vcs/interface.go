// Package vcs provides version control system abstractions.
package vcs

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// TreeAt returns the file tree of the commit a revision resolves to
	// (branch, tag, short or full hash, HEAD~2, ...).
	TreeAt(rev string) (Tree, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	// Name is the short branch name, or "HEAD" when detached.
	Name() string
	// Hash is the full commit hash.
	Hash() string
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree represents a git tree object.
type Tree interface {
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
