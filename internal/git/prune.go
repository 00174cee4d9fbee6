package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"grove/internal/models"
)

// MergeChecker answers whether branch is already contained in base.
// *WorktreeManager satisfies it.
type MergeChecker interface {
	IsBranchMerged(branch, base string) (bool, error)
}

// Remover deletes a single worktree. *WorktreeManager satisfies it.
type Remover interface {
	RemoveWorktree(ctx context.Context, path string, force bool) error
}

// PruneCandidates lists the worktrees and selects the ones policy allows
// removing.
func (wm *WorktreeManager) PruneCandidates(ctx context.Context, policy models.PrunePolicy) ([]models.PruneCandidate, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	worktrees, err := wm.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}

	return SelectPruneCandidates(ctx, worktrees, policy, wm, wm.logger)
}

// SelectPruneCandidates filters worktrees by policy, keeping their order.
// Main, locked and detached worktrees are never selected. A branch whose
// merge state cannot be determined is logged and skipped.
func SelectPruneCandidates(ctx context.Context, worktrees []models.Worktree, policy models.PrunePolicy, checker MergeChecker, logger *slog.Logger) ([]models.PruneCandidate, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var candidates []models.PruneCandidate
	for _, wt := range worktrees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if wt.IsMain || wt.IsLocked || wt.IsDetached() {
			continue
		}

		if policy.IsAge() {
			if wt.CreatedAt.IsZero() || wt.CreatedAt.After(policy.Cutoff) {
				continue
			}
			candidates = append(candidates, models.PruneCandidate{
				Worktree: wt,
				Reason:   models.PruneReasonAge,
				Cutoff:   policy.Cutoff,
			})
			continue
		}

		if wt.Branch == policy.BaseBranch {
			continue
		}
		merged, err := checker.IsBranchMerged(wt.Branch, policy.BaseBranch)
		if err != nil {
			logger.Warn("skipping worktree, merge state unknown", "branch", wt.Branch, "base", policy.BaseBranch, "err", err)
			continue
		}
		if merged {
			candidates = append(candidates, models.PruneCandidate{Worktree: wt, Reason: models.PruneReasonMerged})
		}
	}

	return candidates, nil
}

// RemoveWorktrees removes candidates one after another. Failures are
// collected rather than returned, so one bad path never stops the batch.
// Dirty worktrees are refused unless force is set. Once ctx is cancelled no
// further removals are started; the rest are reported as failed.
func RemoveWorktrees(ctx context.Context, candidates []models.PruneCandidate, force bool, remover Remover) models.RemovalResult {
	var result models.RemovalResult

	fail := func(path string, err error) {
		result.Failed = append(result.Failed, models.RemovalFailure{Path: path, Err: err})
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			fail(c.Path, fmt.Errorf("not attempted: %w", err))
			continue
		}
		if c.IsDirty && !force {
			fail(c.Path, ErrDirtyWorktree)
			continue
		}
		if _, err := os.Stat(c.Path); err != nil {
			fail(c.Path, fmt.Errorf("%w: %w", ErrRemovalFailed, err))
			continue
		}
		if err := remover.RemoveWorktree(ctx, c.Path, force); err != nil {
			fail(c.Path, err)
			continue
		}
		result.Removed = append(result.Removed, c.Path)
	}

	return result
}
