package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"

	"grove/internal/models"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the number of worktrees probed at once.
const DefaultWorkers = 8

type WorktreeManager struct {
	repo     *git.Repository
	repoPath string
	runner   Runner
	logger   *slog.Logger
	workers  int
}

type Option func(*WorktreeManager)

func WithRunner(r Runner) Option {
	return func(wm *WorktreeManager) { wm.runner = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(wm *WorktreeManager) { wm.logger = l }
}

// WithWorkers sets the enrichment pool size. Values below 1 keep the default.
func WithWorkers(n int) Option {
	return func(wm *WorktreeManager) {
		if n > 0 {
			wm.workers = n
		}
	}
}

// NewWorktreeManager opens the bare repository found by Discover.
func NewWorktreeManager(repository *Repository, opts ...Option) (*WorktreeManager, error) {
	repo, err := git.PlainOpen(repository.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", repository.Path, err)
	}

	wm := &WorktreeManager{
		repo:     repo,
		repoPath: repository.Path,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(wm)
	}
	if wm.runner == nil {
		wm.runner = ExecRunner{Logger: wm.logger}
	}
	return wm, nil
}

// RepoPath returns the bare repository path.
func (wm *WorktreeManager) RepoPath() string {
	return wm.repoPath
}

func (wm *WorktreeManager) listOutput(ctx context.Context) (string, error) {
	output, err := wm.runner.Run(ctx, wm.repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("failed to list worktrees: %w", err)
	}
	return output, nil
}

// ListWorktrees returns every worktree in listing order. The per-worktree
// filesystem probes run on a bounded pool.
func (wm *WorktreeManager) ListWorktrees(ctx context.Context) ([]models.Worktree, error) {
	output, err := wm.listOutput(ctx)
	if err != nil {
		return nil, err
	}

	entries := slices.Collect(worktreeEntries(output))
	worktrees := make([]models.Worktree, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wm.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			worktrees[i] = wm.completeWorktree(gctx, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return worktrees, nil
}

// StreamWorktrees yields worktrees one at a time as each is probed. Every
// call lists the worktrees again; the sequence cannot be restarted.
func (wm *WorktreeManager) StreamWorktrees(ctx context.Context) iter.Seq2[models.Worktree, error] {
	return func(yield func(models.Worktree, error) bool) {
		output, err := wm.listOutput(ctx)
		if err != nil {
			yield(models.Worktree{}, err)
			return
		}

		for entry := range worktreeEntries(output) {
			if err := ctx.Err(); err != nil {
				yield(models.Worktree{}, err)
				return
			}
			if !yield(wm.completeWorktree(ctx, entry), nil) {
				return
			}
		}
	}
}

func (wm *WorktreeManager) completeWorktree(ctx context.Context, entry worktreeEntry) models.Worktree {
	wt := models.Worktree{
		Path:       entry.path,
		Branch:     entry.branch,
		Head:       entry.head,
		IsLocked:   entry.locked,
		IsPrunable: entry.prunable,
		IsMain:     models.IsMainBranch(entry.branch),
	}

	if !worktreeExists(entry.path) {
		wm.logger.Warn("worktree directory is missing", "path", entry.path, "branch", entry.branch, "prunable", entry.prunable)
		return wt
	}

	dirty, err := wm.isWorktreeDirty(ctx, entry.path)
	if err != nil {
		wm.logger.Warn("could not check worktree status", "path", entry.path, "err", err)
	}
	wt.IsDirty = dirty
	wt.CreatedAt = createdTime(entry.path)

	return wt
}

func (wm *WorktreeManager) isWorktreeDirty(ctx context.Context, path string) (bool, error) {
	// git status is much faster than go-git's Status on large trees
	output, err := wm.runner.Run(ctx, path, "status", "--porcelain")
	if err == nil {
		return strings.TrimSpace(output) != "", nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	wm.logger.Debug("git status failed, falling back to go-git", "path", path, "err", err)
	return isWorktreeDirtyGoGit(path)
}

func isWorktreeDirtyGoGit(path string) (bool, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return false, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, err
	}

	status, err := worktree.Status()
	if err != nil {
		return false, err
	}

	return !status.IsClean(), nil
}

func worktreeExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultBranch resolves the branch merge-based pruning compares against:
// the remote's HEAD, then the bare repository's HEAD, then main or master.
func (wm *WorktreeManager) DefaultBranch() (string, error) {
	if ref, err := wm.repo.Reference(plumbing.NewRemoteHEADReferenceName("origin"), false); err == nil && ref.Type() == plumbing.SymbolicReference {
		if branch, ok := strings.CutPrefix(ref.Target().String(), "refs/remotes/origin/"); ok && branch != "" {
			return branch, nil
		}
	}

	if head, err := wm.repo.Reference(plumbing.HEAD, false); err == nil && head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		if wm.branchExists(head.Target().Short()) {
			return head.Target().Short(), nil
		}
	}

	for _, name := range models.MainBranches {
		if wm.branchExists(name) {
			return name, nil
		}
	}

	return "", errors.New("could not determine default branch; pass --base explicitly")
}

func (wm *WorktreeManager) branchExists(branch string) bool {
	_, err := wm.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	return err == nil
}

// CheckoutPlan decides how `add` gets branch into a new worktree. An existing
// local branch is checked out as is; a branch that only exists on origin is
// created tracking it; anything else is created from HEAD. An explicit track
// ref always creates.
func (wm *WorktreeManager) CheckoutPlan(branch, track string) (create bool, upstream string) {
	switch {
	case track != "":
		return true, track
	case wm.branchExists(branch):
		return false, ""
	case wm.remoteBranchExists("origin", branch):
		return true, "origin/" + branch
	}
	return true, ""
}

func (wm *WorktreeManager) remoteBranchExists(remote, branch string) bool {
	_, err := wm.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	return err == nil
}

// AddWorktree checks out branch at path. With create set a new branch is
// made, optionally tracking the remote ref track.
func (wm *WorktreeManager) AddWorktree(ctx context.Context, path, branch string, create bool, track string) error {
	if _, err := wm.runner.Run(ctx, wm.repoPath, addWorktreeArgs(path, branch, create, track)...); err != nil {
		return fmt.Errorf("failed to add worktree: %w", err)
	}
	return nil
}

func addWorktreeArgs(path, branch string, create bool, track string) []string {
	args := []string{"worktree", "add"}
	if !create {
		return append(args, path, branch)
	}

	args = append(args, "-b", branch)
	if track != "" {
		args = append(args, "--track")
	}
	args = append(args, path)
	if track != "" {
		args = append(args, track)
	}
	return args
}

// RemoveWorktree deletes the worktree directory and its metadata through git,
// which takes the repository's own locks.
func (wm *WorktreeManager) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)

	if _, err := wm.runner.Run(ctx, wm.repoPath, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrRemovalFailed, err)
	}
	return nil
}

// FindWorktree matches name against branch names, then directory names,
// then branch suffixes ("login" finds "feature/login").
func FindWorktree(worktrees []models.Worktree, name string) (models.Worktree, bool) {
	name = strings.TrimRight(name, "/")
	if name == "" {
		return models.Worktree{}, false
	}

	for _, wt := range worktrees {
		if wt.Branch == name {
			return wt, true
		}
	}
	for _, wt := range worktrees {
		if baseName(wt.Path) == name || wt.Path == name {
			return wt, true
		}
	}
	for _, wt := range worktrees {
		if strings.HasSuffix(wt.Branch, "/"+name) {
			return wt, true
		}
	}
	return models.Worktree{}, false
}

func baseName(path string) string {
	path = strings.TrimRight(strings.ReplaceAll(path, `\`, "/"), "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// WorktreeContaining returns the worktree whose directory holds dir. Nested
// worktrees resolve to the innermost one.
func WorktreeContaining(worktrees []models.Worktree, dir string) (models.Worktree, bool) {
	target, err := resolvePath(dir)
	if err != nil {
		return models.Worktree{}, false
	}

	var best models.Worktree
	bestRoot := ""
	for _, wt := range worktrees {
		root, err := resolvePath(wt.Path)
		if err != nil || !isWithin(root, target) {
			continue
		}
		if len(root) > len(bestRoot) {
			best, bestRoot = wt, root
		}
	}
	return best, bestRoot != ""
}
