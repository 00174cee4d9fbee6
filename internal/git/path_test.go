package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestComputeWorktreePathRejectsTraversal(t *testing.T) {
	root := resolvedTempDir(t)

	names := []string{
		"../malicious",
		"feature/../../../etc/passwd",
		"a..b",
		"..",
		"/etc/passwd",
		`\windows\system32`,
		"",
		"   ",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeWorktreePath(name, root)
			assert.ErrorIs(t, err, ErrInvalidBranchName)
		})
	}
}

func TestComputeWorktreePathSanitizesIllegalCharacters(t *testing.T) {
	root := resolvedTempDir(t)

	for _, name := range []string{"feature<test>", "feature:test", `feature"test`, "feature|test", "feature?test", "feature*test"} {
		t.Run(name, func(t *testing.T) {
			got, err := ComputeWorktreePath(name, root)
			require.NoError(t, err)
			base := filepath.Base(got)
			assert.False(t, strings.ContainsAny(base, `<>:"|?*`), "basename %q still has illegal characters", base)
			assert.Equal(t, root, filepath.Dir(got))
		})
	}
}

func TestComputeWorktreePathNestsHierarchicalBranches(t *testing.T) {
	root := resolvedTempDir(t)

	got, err := ComputeWorktreePath("feature/login/form", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "feature", "login", "form"), got)
}

func TestComputeWorktreePathStaysUnderRoot(t *testing.T) {
	root := resolvedTempDir(t)

	for _, name := range []string{"main", "feature/x", "fix-123", "release/v1.2", ".", "a/./b", "weird name"} {
		got, err := ComputeWorktreePath(name, root)
		require.NoError(t, err, name)
		assert.True(t, isWithin(root, got), "%q resolved outside %s: %s", name, root, got)
	}
}

func TestComputeWorktreePathRejectsSymlinkEscape(t *testing.T) {
	root := resolvedTempDir(t)
	outside := resolvedTempDir(t)

	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := ComputeWorktreePath("escape", root)
	assert.ErrorIs(t, err, ErrInvalidBranchName)
}

func TestIsWithin(t *testing.T) {
	sep := string(os.PathSeparator)
	root := sep + filepath.Join("a", "b")

	tests := []struct {
		target string
		want   bool
	}{
		{root, true},
		{filepath.Join(root, "c"), true},
		{filepath.Join(root, "..c"), true},
		{sep + "a", false},
		{sep + filepath.Join("a", "bc"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isWithin(root, tt.target), tt.target)
	}
}
