package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RepoHintEnv caches the discovered bare repository for child processes.
// The value is only ever trusted after the structural check passes again.
const RepoHintEnv = "GROVE_REPO"

// Repository is the canonical bare repository of a grove project. The
// project root is its parent directory; worktrees live beneath it.
type Repository struct {
	Path        string
	ProjectRoot string
}

func newRepository(path string) *Repository {
	return &Repository{Path: path, ProjectRoot: ProjectRoot(path)}
}

// ProjectRoot returns the directory holding the bare repository and its worktrees.
func ProjectRoot(repoPath string) string {
	return filepath.Dir(filepath.Clean(repoPath))
}

// Discover locates the bare repository for startDir. An empty startDir means
// the current working directory. It fails with ErrUnrelatedRepository when
// only ordinary repositories were seen on the way up, and ErrNotFound otherwise.
func Discover(startDir string) (*Repository, error) {
	if hint := os.Getenv(RepoHintEnv); hint != "" {
		if isBareRepoByStructure(hint) {
			return newRepository(filepath.Clean(hint)), nil
		}
		ClearRepoHint()
	}

	path, err := discoverBareClone(startDir)
	if err != nil {
		return nil, err
	}

	os.Setenv(RepoHintEnv, path)
	return newRepository(path), nil
}

// ClearRepoHint drops the cached discovery result.
func ClearRepoHint() {
	os.Unsetenv(RepoHintEnv)
}

func discoverBareClone(startDir string) (string, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		startDir = wd
	}

	current, err := resolvePath(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	if isBareRepoByStructure(current) {
		return current, nil
	}

	if child := findBareCloneChild(current); child != "" {
		return child, nil
	}

	foundRegularRepo := false
	dir := current
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		switch {
		case err != nil:
		case info.Mode().IsRegular():
			if bare, ok := bareCloneFromGitFile(dir); ok {
				return bare, nil
			}
		case info.IsDir():
			foundRegularRepo = true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if foundRegularRepo {
		return "", fmt.Errorf("%w: grove requires a bare clone with worktrees. Run `grove init <git-url>` in a different directory to create a new grove setup", ErrUnrelatedRepository)
	}
	return "", fmt.Errorf("%w: run `grove init <git-url>` to create one", ErrNotFound)
}

// isBareRepoByStructure checks the on-disk layout of a bare repository root.
// Asking git instead would answer for the linked bare repository when run
// from inside a worktree.
func isBareRepoByStructure(path string) bool {
	if _, err := os.Lstat(filepath.Join(path, ".git")); err == nil {
		return false
	}

	head, err := os.Stat(filepath.Join(path, "HEAD"))
	if err != nil || !head.Mode().IsRegular() {
		return false
	}
	for _, dir := range []string{"refs", "objects"} {
		info, err := os.Stat(filepath.Join(path, dir))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// findBareCloneChild looks for a "<name>.git" bare clone directly inside dir.
func findBareCloneChild(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".git") || entry.Name() == ".git" {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if isBareRepoByStructure(candidate) {
			return candidate
		}
	}
	return ""
}

func bareCloneFromGitFile(dir string) (string, bool) {
	gitdir, err := parseGitFile(filepath.Join(dir, ".git"))
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(dir, gitdir)
	}

	bare, err := bareCloneFromGitdir(filepath.Clean(gitdir))
	if err != nil {
		return "", false
	}
	if !isBareRepository(bare) {
		return "", false
	}
	return bare, true
}

// parseGitFile reads the "gitdir: <path>" pointer a linked worktree keeps in
// place of a .git directory.
func parseGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read .git file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	gitdir, ok := strings.CutPrefix(content, "gitdir:")
	gitdir = strings.TrimSpace(gitdir)
	if !ok || gitdir == "" || strings.ContainsAny(gitdir, "\r\n") {
		return "", fmt.Errorf("invalid .git file format at %s", path)
	}
	return gitdir, nil
}

// bareCloneFromGitdir strips the "worktrees/<name>" tail off a linked
// worktree's metadata directory. Only a whole "worktrees" path component
// counts, and one directly under a "*.git" directory wins, so a branch
// named "worktrees" cannot shift the split point.
func bareCloneFromGitdir(gitdir string) (string, error) {
	slashed := filepath.ToSlash(gitdir)
	parts := strings.Split(slashed, "/")

	split := -1
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] == "worktrees" && strings.HasSuffix(parts[i-1], ".git") {
			split = i
			break
		}
	}
	if split < 0 {
		for i := 1; i < len(parts)-1; i++ {
			if parts[i] == "worktrees" && parts[i+1] != "" {
				split = i
				break
			}
		}
	}
	if split < 0 {
		return "", fmt.Errorf("invalid worktree gitdir path: %q", gitdir)
	}

	bare := strings.Join(parts[:split], "/")
	if bare == "" {
		bare = "/"
	}
	return filepath.FromSlash(bare), nil
}

// isBareRepository asks the repository itself whether it is bare. Only valid
// when path is the bare repository, never a worktree linked to it.
func isBareRepository(path string) bool {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return false
	}
	cfg, err := repo.Config()
	if err != nil {
		return false
	}
	return cfg.Core.IsBare
}
