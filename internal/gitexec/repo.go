package gitexec

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// ResolveError describes a repository resolution failure. Code is either
// "path_not_found" or "not_a_repository".
type ResolveError struct {
	Code    string
	Message string
}

func (e *ResolveError) Error() string {
	return e.Message
}

const (
	// ResolvePathNotFound means the supplied repository path does not exist.
	ResolvePathNotFound = "path_not_found"
	// ResolveNotARepository means the resolved directory has no git metadata.
	ResolveNotARepository = "not_a_repository"
)

// ResolveRepository resolves an optional repository path to the absolute
// working directory for a git invocation. An empty path means the current
// working directory. The resolution is repeated fresh on every call and the
// result is never cached.
//
// Error messages interpolate the literal input path for a missing path and
// the resolved absolute path for a missing repository marker, so identical
// failures produce identical messages across all tools.
func ResolveRepository(path string) (string, *ResolveError) {
	var resolved string

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", &ResolveError{
				Code:    ResolvePathNotFound,
				Message: fmt.Sprintf("Repository path does not exist: %s", path),
			}
		}
		if _, err := os.Stat(abs); err != nil {
			return "", &ResolveError{
				Code:    ResolvePathNotFound,
				Message: fmt.Sprintf("Repository path does not exist: %s", path),
			}
		}
		resolved = abs
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return "", &ResolveError{
				Code:    ResolvePathNotFound,
				Message: fmt.Sprintf("Repository path does not exist: %s", path),
			}
		}
		resolved = cwd
	}

	// PlainOpen fails unless the directory carries the .git marker.
	if _, err := git.PlainOpen(resolved); err != nil {
		return "", &ResolveError{
			Code:    ResolveNotARepository,
			Message: fmt.Sprintf("Not a git repository: %s", resolved),
		}
	}

	return resolved, nil
}
