package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var illegalPathChars = strings.NewReplacer(
	"<", "-",
	">", "-",
	":", "-",
	`"`, "-",
	"|", "-",
	"?", "-",
	"*", "-",
)

// ComputeWorktreePath returns where the worktree for branchName lives under
// projectRoot. Hierarchical branch names map to nested directories.
//
// Traversal tokens are rejected up front and the resolved result is checked
// again for containment, so symlinks inside the project cannot be used to
// escape it either.
func ComputeWorktreePath(branchName, projectRoot string) (string, error) {
	if strings.TrimSpace(branchName) == "" {
		return "", fmt.Errorf("%w: branch name is empty", ErrInvalidBranchName)
	}
	if strings.Contains(branchName, "..") || isAbsoluteName(branchName) {
		return "", fmt.Errorf("%w: %q contains path traversal characters", ErrInvalidBranchName, branchName)
	}

	sanitized := illegalPathChars.Replace(branchName)
	sanitized = filepath.FromSlash(sanitized)

	root, err := resolvePath(projectRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root %s: %w", projectRoot, err)
	}

	candidate := filepath.Join(root, sanitized)
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	}

	if !isWithin(root, candidate) {
		return "", fmt.Errorf("%w: %q would create a worktree outside the project", ErrInvalidBranchName, branchName)
	}

	return candidate, nil
}

func isAbsoluteName(name string) bool {
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return true
	}
	return strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`)
}

// resolvePath makes path absolute and resolves symlinks where it exists.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

// isWithin reports whether target equals root or lies below it.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && !filepath.IsAbs(rel)
}
