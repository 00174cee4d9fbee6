package git

import (
	"errors"

	"grove/internal/models"
)

var (
	// ErrNotFound means no grove-managed bare repository was found above the start directory.
	ErrNotFound = errors.New("not in a grove repository")

	// ErrUnrelatedRepository means discovery only found an ordinary git repository.
	ErrUnrelatedRepository = errors.New("git repository is not a grove-managed worktree setup")

	ErrInvalidBranchName = errors.New("invalid branch name")

	ErrRefNotFound = errors.New("reference not found")

	// ErrMergeCheckFailed is soft: prune skips the branch and logs a warning.
	ErrMergeCheckFailed = errors.New("merge check failed")

	ErrDirtyWorktree = errors.New("worktree has uncommitted changes")

	ErrRemovalFailed = errors.New("failed to remove worktree")

	// ErrBranchCheckedOut means git would refuse to update the branch because a worktree has it checked out.
	ErrBranchCheckedOut = errors.New("branch is checked out in a worktree")

	ErrConflictingPolicy = models.ErrConflictingPolicy
)
