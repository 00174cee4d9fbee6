package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// IsBranchMerged reports whether branch's changes are already on baseBranch,
// either through ancestry or as a squash merge.
func (wm *WorktreeManager) IsBranchMerged(branch, baseBranch string) (bool, error) {
	return isBranchMerged(wm.repo, branch, baseBranch)
}

func isBranchMerged(repo *git.Repository, branch, baseBranch string) (bool, error) {
	baseCommit, err := resolveCommit(repo, baseBranch)
	if err != nil {
		return false, err
	}
	branchCommit, err := resolveCommit(repo, branch)
	if err != nil {
		return false, err
	}

	if branchCommit.Hash == baseCommit.Hash {
		return true, nil
	}

	isAncestor, err := branchCommit.IsAncestor(baseCommit)
	if err != nil {
		return false, fmt.Errorf("%w: ancestry of %s in %s: %w", ErrMergeCheckFailed, branch, baseBranch, err)
	}
	if isAncestor {
		return true, nil
	}

	merged, err := isSquashMerged(branchCommit, baseCommit)
	if err != nil {
		return false, fmt.Errorf("%w: squash check of %s against %s: %w", ErrMergeCheckFailed, branch, baseBranch, err)
	}
	return merged, nil
}

// resolveCommit accepts a local branch name first and any other revision
// (remote branch, tag, hash) after that.
func resolveCommit(repo *git.Repository, name string) (*object.Commit, error) {
	var hash plumbing.Hash
	if ref, err := repo.Reference(plumbing.NewBranchReferenceName(name), true); err == nil {
		hash = ref.Hash()
	} else {
		h, err := repo.ResolveRevision(plumbing.Revision(name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, name)
		}
		hash = *h
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not point at a commit: %w", ErrRefNotFound, name, err)
	}
	return commit, nil
}

// isSquashMerged collects the paths the branch touched since it forked from
// base, then compares base and branch on exactly those paths. No difference
// means base already carries the branch's content.
//
// Two unrelated changes that happen to produce identical files are reported
// as merged.
func isSquashMerged(branch, base *object.Commit) (bool, error) {
	mergeBases, err := branch.MergeBase(base)
	if err != nil {
		return false, err
	}
	if len(mergeBases) == 0 {
		// unrelated histories
		return false, nil
	}

	paths, err := changedPaths(mergeBases[0], branch)
	if err != nil {
		return false, err
	}
	if len(paths) == 0 {
		return true, nil
	}

	baseTree, err := base.Tree()
	if err != nil {
		return false, err
	}
	branchTree, err := branch.Tree()
	if err != nil {
		return false, err
	}

	for _, path := range paths {
		same, err := sameEntry(baseTree, branchTree, path)
		if err != nil {
			return false, err
		}
		if !same {
			return false, nil
		}
	}
	return true, nil
}

func changedPaths(from, to *object.Commit) ([]string, error) {
	fromTree, err := from.Tree()
	if err != nil {
		return nil, err
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(changes))
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			paths = append(paths, name)
		}
	}
	return paths, nil
}

func sameEntry(a, b *object.Tree, path string) (bool, error) {
	ea, err := findEntry(a, path)
	if err != nil {
		return false, err
	}
	eb, err := findEntry(b, path)
	if err != nil {
		return false, err
	}

	switch {
	case ea == nil && eb == nil:
		return true, nil
	case ea == nil || eb == nil:
		return false, nil
	}
	return ea.Hash == eb.Hash && ea.Mode == eb.Mode, nil
}

func findEntry(tree *object.Tree, path string) (*object.TreeEntry, error) {
	entry, err := tree.FindEntry(path)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}
