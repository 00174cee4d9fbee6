package git

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grove/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	merged map[string]bool
	errs   map[string]error
	calls  []string
}

func (f *fakeChecker) IsBranchMerged(branch, base string) (bool, error) {
	f.calls = append(f.calls, branch)
	if err, ok := f.errs[branch]; ok {
		return false, err
	}
	return f.merged[branch], nil
}

type fakeRemover struct {
	removed []string
	fail    map[string]error
	onCall  func(path string)
}

func (f *fakeRemover) RemoveWorktree(_ context.Context, path string, _ bool) error {
	if f.onCall != nil {
		f.onCall(path)
	}
	if err, ok := f.fail[path]; ok {
		return err
	}
	f.removed = append(f.removed, path)
	return nil
}

func candidatePaths(candidates []models.PruneCandidate) []string {
	var out []string
	for _, c := range candidates {
		out = append(out, c.Path)
	}
	return out
}

func TestSelectPruneCandidatesByAge(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-30 * 24 * time.Hour)
	worktrees := []models.Worktree{
		{Path: "/p/old", Branch: "old", CreatedAt: now.Add(-45 * 24 * time.Hour)},
		{Path: "/p/new", Branch: "new", CreatedAt: now.Add(-5 * 24 * time.Hour)},
	}

	candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.AgePolicy(cutoff), nil, discardLogger())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "/p/old", candidates[0].Path)
	assert.Equal(t, models.PruneReasonAge, candidates[0].Reason)
	assert.Equal(t, cutoff, candidates[0].Cutoff)

	again, err := SelectPruneCandidates(context.Background(), worktrees, models.AgePolicy(cutoff), nil, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, candidates, again)
}

func TestSelectPruneCandidatesAgeBoundary(t *testing.T) {
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	worktrees := []models.Worktree{
		{Path: "/p/exact", Branch: "exact", CreatedAt: cutoff},
		{Path: "/p/after", Branch: "after", CreatedAt: cutoff.Add(time.Second)},
		{Path: "/p/unknown", Branch: "unknown"},
	}

	candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.AgePolicy(cutoff), nil, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/exact"}, candidatePaths(candidates))
}

func TestSelectPruneCandidatesExclusions(t *testing.T) {
	old := time.Now().Add(-365 * 24 * time.Hour)
	worktrees := []models.Worktree{
		{Path: "/p/main", Branch: "main", IsMain: true, CreatedAt: old},
		{Path: "/p/locked", Branch: "locked", IsLocked: true, CreatedAt: old},
		{Path: "/p/detached", Branch: models.DetachedHead, CreatedAt: old},
		{Path: "/p/eligible", Branch: "eligible", CreatedAt: old},
	}

	t.Run("age", func(t *testing.T) {
		candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.AgePolicy(time.Now()), nil, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"/p/eligible"}, candidatePaths(candidates))
	})

	t.Run("merge", func(t *testing.T) {
		checker := &fakeChecker{merged: map[string]bool{"main": true, "locked": true, models.DetachedHead: true, "eligible": true}}
		candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.MergePolicy("develop"), checker, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"/p/eligible"}, candidatePaths(candidates))
		assert.Equal(t, []string{"eligible"}, checker.calls)
	})
}

func TestSelectPruneCandidatesByMerge(t *testing.T) {
	worktrees := []models.Worktree{
		{Path: "/p/develop", Branch: "develop"},
		{Path: "/p/squashed", Branch: "feature/squashed"},
		{Path: "/p/pending", Branch: "feature/pending"},
	}
	checker := &fakeChecker{merged: map[string]bool{"develop": true, "feature/squashed": true}}

	candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.MergePolicy("develop"), checker, discardLogger())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "/p/squashed", candidates[0].Path)
	assert.Equal(t, models.PruneReasonMerged, candidates[0].Reason)
	assert.True(t, candidates[0].Cutoff.IsZero())
	assert.NotContains(t, checker.calls, "develop")
}

func TestSelectPruneCandidatesSkipsMergeErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	worktrees := []models.Worktree{
		{Path: "/p/broken", Branch: "broken"},
		{Path: "/p/merged", Branch: "merged"},
	}
	checker := &fakeChecker{
		merged: map[string]bool{"merged": true},
		errs:   map[string]error{"broken": ErrRefNotFound},
	}

	candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.MergePolicy("main"), checker, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/merged"}, candidatePaths(candidates))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "branch=broken")
}

func TestSelectPruneCandidatesRejectsBadPolicy(t *testing.T) {
	_, err := SelectPruneCandidates(context.Background(), nil, models.PrunePolicy{BaseBranch: "main", Cutoff: time.Now()}, nil, discardLogger())
	assert.ErrorIs(t, err, ErrConflictingPolicy)

	_, err = SelectPruneCandidates(context.Background(), nil, models.PrunePolicy{}, nil, discardLogger())
	assert.ErrorIs(t, err, models.ErrEmptyPolicy)
}

func TestSelectPruneCandidatesMergeEndToEnd(t *testing.T) {
	r := newMemRepo(t)
	r.commitFiles("initial", map[string]string{"README.md": "# repo\n"})

	r.checkout("feature", true)
	r.commitFiles("feature", map[string]string{"feature.go": "package feature\n"})
	r.checkout("main", false)
	r.checkout("pending", true)
	r.commitFiles("pending", map[string]string{"pending.go": "package pending\n"})
	r.checkout("main", false)
	r.commitFiles("squash feature", map[string]string{"feature.go": "package feature\n"})

	worktrees := []models.Worktree{
		{Path: "/p/main", Branch: "main", IsMain: true},
		{Path: "/p/feature", Branch: "feature"},
		{Path: "/p/pending", Branch: "pending"},
	}

	candidates, err := SelectPruneCandidates(context.Background(), worktrees, models.MergePolicy("main"), r.manager(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/feature"}, candidatePaths(candidates))
}

func existingDirs(t *testing.T, names ...string) []string {
	t.Helper()
	root := t.TempDir()
	var dirs []string
	for _, name := range names {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		dirs = append(dirs, dir)
	}
	return dirs
}

func candidatesFor(dirs ...string) []models.PruneCandidate {
	var out []models.PruneCandidate
	for _, dir := range dirs {
		out = append(out, models.PruneCandidate{Worktree: models.Worktree{Path: dir, Branch: filepath.Base(dir)}})
	}
	return out
}

func TestRemoveWorktreesMissingPath(t *testing.T) {
	dirs := existingDirs(t, "first", "second", "third")
	require.NoError(t, os.RemoveAll(dirs[1]))

	remover := &fakeRemover{}
	result := RemoveWorktrees(context.Background(), candidatesFor(dirs...), false, remover)

	assert.Equal(t, []string{dirs[0], dirs[2]}, result.Removed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, dirs[1], result.Failed[0].Path)
	assert.ErrorIs(t, result.Failed[0].Err, ErrRemovalFailed)
	assert.False(t, result.OK())
	assert.Equal(t, []string{dirs[0], dirs[2]}, remover.removed)
}

func TestRemoveWorktreesRemoverError(t *testing.T) {
	dirs := existingDirs(t, "a", "b")
	boom := errors.New("boom")
	remover := &fakeRemover{fail: map[string]error{dirs[0]: boom}}

	result := RemoveWorktrees(context.Background(), candidatesFor(dirs...), false, remover)

	assert.Equal(t, []string{dirs[1]}, result.Removed)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0].Err, boom)
}

func TestRemoveWorktreesDirtyGate(t *testing.T) {
	dirs := existingDirs(t, "clean", "dirty")
	candidates := candidatesFor(dirs...)
	candidates[1].IsDirty = true

	result := RemoveWorktrees(context.Background(), candidates, false, &fakeRemover{})
	assert.Equal(t, []string{dirs[0]}, result.Removed)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0].Err, ErrDirtyWorktree)

	result = RemoveWorktrees(context.Background(), candidates, true, &fakeRemover{})
	assert.Equal(t, dirs, result.Removed)
	assert.True(t, result.OK())
}

func TestRemoveWorktreesStopsOnCancel(t *testing.T) {
	dirs := existingDirs(t, "a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remover := &fakeRemover{onCall: func(string) { cancel() }}
	result := RemoveWorktrees(ctx, candidatesFor(dirs...), false, remover)

	assert.Equal(t, []string{dirs[0]}, result.Removed)
	require.Len(t, result.Failed, 2)
	for i, f := range result.Failed {
		assert.Equal(t, dirs[i+1], f.Path)
		assert.ErrorIs(t, f.Err, context.Canceled)
	}
}

func TestRemoveWorktreesEmpty(t *testing.T) {
	result := RemoveWorktrees(context.Background(), nil, false, &fakeRemover{})
	assert.Empty(t, result.Removed)
	assert.True(t, result.OK())
}
