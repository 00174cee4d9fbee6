package git

import (
	"context"
	"fmt"
	"strings"

	"grove/internal/models"

	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultRemote is the remote grove fetches from.
const DefaultRemote = "origin"

// EnsureTrackingRef makes the ref given to `add --track` available locally.
// A remote-tracking ref that is missing is fetched from its remote first.
func (wm *WorktreeManager) EnsureTrackingRef(ctx context.Context, track string) error {
	if wm.refExists(track) {
		return nil
	}

	remote, branch, ok := splitRemoteRef(track)
	if !ok {
		return fmt.Errorf("%w: tracking reference %q does not exist; use a remote branch like origin/main", ErrRefNotFound, track)
	}
	if wm.remoteBranchExists(remote, branch) {
		return nil
	}

	refspec := fmt.Sprintf("%s:%s", branch, plumbing.NewRemoteReferenceName(remote, branch))
	wm.logger.Debug("fetching tracking branch", "remote", remote, "refspec", refspec)
	if _, err := wm.runner.Run(ctx, wm.repoPath, "fetch", remote, refspec); err != nil {
		return fmt.Errorf("failed to fetch tracking branch %s: %w", track, err)
	}

	if !wm.remoteBranchExists(remote, branch) {
		return fmt.Errorf("%w: %s is still unavailable after fetching from %s", ErrRefNotFound, track, remote)
	}
	return nil
}

func (wm *WorktreeManager) refExists(name string) bool {
	_, err := wm.repo.ResolveRevision(plumbing.Revision(name))
	return err == nil
}

// splitRemoteRef splits "origin/feature/x" or "refs/remotes/origin/feature/x"
// into remote and branch. Other refs/ names are not remote-tracking refs.
func splitRemoteRef(ref string) (remote, branch string, ok bool) {
	if rest, found := strings.CutPrefix(ref, "refs/remotes/"); found {
		ref = rest
	} else if strings.HasPrefix(ref, "refs/") {
		return "", "", false
	}

	remote, branch, found := strings.Cut(ref, "/")
	if !found || remote == "" || branch == "" {
		return "", "", false
	}
	return remote, branch, true
}

// SyncBranch updates the local branch in the bare repository from origin.
// Git refuses to move a branch a worktree has checked out, so that case is
// reported as ErrBranchCheckedOut before anything is fetched.
func (wm *WorktreeManager) SyncBranch(ctx context.Context, branch string) error {
	if err := checkRefArg(branch); err != nil {
		return err
	}

	worktrees, err := wm.ListWorktrees(ctx)
	if err != nil {
		return err
	}
	if wt, ok := checkedOutIn(worktrees, branch); ok {
		return fmt.Errorf("%w: %s is checked out at %s", ErrBranchCheckedOut, branch, wt.Path)
	}

	refspec := branch + ":" + branch
	if _, err := wm.runner.Run(ctx, wm.repoPath, "fetch", DefaultRemote, refspec); err != nil {
		return fmt.Errorf("failed to sync branch %s: %w", branch, err)
	}
	return nil
}

func checkedOutIn(worktrees []models.Worktree, branch string) (models.Worktree, bool) {
	for _, wt := range worktrees {
		if wt.Branch == branch {
			return wt, true
		}
	}
	return models.Worktree{}, false
}

// checkRefArg rejects names git would read as an option or a refspec.
func checkRefArg(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: branch name is empty", ErrInvalidBranchName)
	case strings.HasPrefix(name, "-"), strings.ContainsAny(name, ": \t\n"):
		return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
	}
	return nil
}
