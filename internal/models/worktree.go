package models

import (
	"errors"
	"time"
)

// DetachedHead is the branch name reported for worktrees that are not on a branch.
const DetachedHead = "detached HEAD"

// MainBranches are the branch names treated as the project's main line.
var MainBranches = []string{"main", "master"}

// IsMainBranch reports whether branch is one of MainBranches.
func IsMainBranch(branch string) bool {
	for _, b := range MainBranches {
		if branch == b {
			return true
		}
	}
	return false
}

// Worktree is a single entry of the repository's worktree listing. A new
// value is built on every scan; it is never updated in place.
type Worktree struct {
	Path       string    `json:"path"`
	Branch     string    `json:"branch"`
	Head       string    `json:"head"`
	CreatedAt  time.Time `json:"createdAt"`
	IsDirty    bool      `json:"isDirty"`
	IsLocked   bool      `json:"isLocked"`
	IsPrunable bool      `json:"isPrunable"`
	IsMain     bool      `json:"isMain"`
}

// IsDetached reports whether the worktree has no branch checked out.
func (w Worktree) IsDetached() bool {
	return w.Branch == DetachedHead
}

type WorktreeListOptions struct {
	ShowDirty   bool
	ShowLocked  bool
	ShowDetails bool
}

type PruneOptions struct {
	DryRun     bool
	Force      bool
	BaseBranch string
	OlderThan  time.Duration
}

// PruneReason records why a worktree qualified for removal.
type PruneReason int

const (
	PruneReasonMerged PruneReason = iota
	PruneReasonAge
)

func (r PruneReason) String() string {
	switch r {
	case PruneReasonMerged:
		return "merged"
	case PruneReasonAge:
		return "older than threshold"
	default:
		return "unknown"
	}
}

// PrunePolicy selects worktrees either by merge state against BaseBranch or
// by age against Cutoff. Exactly one of the two is set.
type PrunePolicy struct {
	BaseBranch string
	Cutoff     time.Time
}

// ErrConflictingPolicy is returned when a policy names both a base branch and a cutoff.
var ErrConflictingPolicy = errors.New("base branch and age threshold cannot be used together")

// ErrEmptyPolicy is returned when a policy names neither a base branch nor a cutoff.
var ErrEmptyPolicy = errors.New("prune policy needs a base branch or an age threshold")

func MergePolicy(baseBranch string) PrunePolicy {
	return PrunePolicy{BaseBranch: baseBranch}
}

func AgePolicy(cutoff time.Time) PrunePolicy {
	return PrunePolicy{Cutoff: cutoff}
}

// IsAge reports whether the policy selects by age.
func (p PrunePolicy) IsAge() bool {
	return !p.Cutoff.IsZero()
}

func (p PrunePolicy) Validate() error {
	switch {
	case p.BaseBranch != "" && !p.Cutoff.IsZero():
		return ErrConflictingPolicy
	case p.BaseBranch == "" && p.Cutoff.IsZero():
		return ErrEmptyPolicy
	}
	return nil
}

// PruneCandidate is a worktree selected for removal and the reason it was picked.
// Cutoff is only set for the age policy.
type PruneCandidate struct {
	Worktree
	Reason PruneReason
	Cutoff time.Time
}

// RemovalFailure pairs a worktree path with the error that kept it from being removed.
type RemovalFailure struct {
	Path string
	Err  error
}

// RemovalResult collects the outcome of a batch removal. A batch never stops
// at the first failure; every candidate ends up in exactly one of the lists.
type RemovalResult struct {
	Removed []string
	Failed  []RemovalFailure
}

// OK reports whether every removal succeeded.
func (r RemovalResult) OK() bool {
	return len(r.Failed) == 0
}
