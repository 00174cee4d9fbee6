package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <git-url>",
	Short: "Initialize a new worktree setup",
	Long: `Initialize a new worktree setup by creating a bare clone of a repository.
The clone is placed in <name>/<name>.git; worktrees created with grove add live
next to it in <name>/.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var gitURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://.+/.+$`),
	regexp.MustCompile(`^git@[^:]+:.+$`),
	regexp.MustCompile(`^ssh://.+/.+$`),
}

// isValidGitURL accepts http(s), scp-like and ssh URLs as well as a path to
// an existing local repository.
func isValidGitURL(gitURL string) bool {
	if gitURL == "" {
		return false
	}
	for _, re := range gitURLPatterns {
		if re.MatchString(gitURL) {
			return true
		}
	}
	if info, err := os.Stat(gitURL); err == nil && info.IsDir() {
		return true
	}
	return false
}

func runInit(cmd *cobra.Command, args []string) error {
	gitURL := args[0]
	out := cmd.OutOrStdout()

	if !isValidGitURL(gitURL) {
		return fmt.Errorf("invalid git URL: %s", gitURL)
	}

	repoName, err := extractRepoName(gitURL)
	if err != nil {
		return fmt.Errorf("failed to extract repository name: %w", err)
	}

	bareRepoDir := filepath.Join(repoName, repoName+".git")
	if _, err := os.Stat(bareRepoDir); err == nil {
		return fmt.Errorf("directory %s already exists", bareRepoDir)
	}

	_, statErr := os.Stat(repoName)
	createdRoot := errors.Is(statErr, os.ErrNotExist)
	if err := os.MkdirAll(repoName, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", repoName, err)
	}

	fmt.Fprintf(out, "Cloning %s into %s...\n", gitURL, bareRepoDir)
	repo, err := git.PlainCloneContext(cmd.Context(), bareRepoDir, true, &git.CloneOptions{
		URL:      gitURL,
		Progress: out,
	})
	if err != nil {
		if createdRoot {
			os.RemoveAll(repoName)
		} else {
			os.RemoveAll(bareRepoDir)
		}
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	if err := configureFetch(repo); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s Successfully initialized worktree setup in %s\n", successStyle.Render("✓"), repoName)
	fmt.Fprintf(out, "  Bare repository: %s\n", bareRepoDir)
	fmt.Fprintf(out, "  Next: cd %s && grove add <branch>\n", repoName)

	return nil
}

// configureFetch makes `git fetch` in the bare clone update remote-tracking
// branches, which a bare clone does not do by default.
func configureFetch(repo *git.Repository) error {
	repoCfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get repository config: %w", err)
	}

	remote, ok := repoCfg.Remotes["origin"]
	if !ok {
		return fmt.Errorf("origin remote not found")
	}
	remote.Fetch = []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"}

	if err := repo.SetConfig(repoCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// extractRepoName extracts the repository name from a git URL
// Supports formats like:
//   - https://github.com/user/repo.git
//   - git@github.com:user/repo.git
//   - ssh://git@host/user/repo
//   - /path/to/repo
func extractRepoName(gitURL string) (string, error) {
	cleanURL := strings.TrimSuffix(strings.TrimRight(gitURL, "/"), ".git")

	// scp-like: the name follows the last colon
	if strings.HasPrefix(cleanURL, "git@") {
		i := strings.LastIndex(cleanURL, ":")
		if i < 0 {
			return "", fmt.Errorf("invalid SSH URL format: %s", gitURL)
		}
		cleanURL = cleanURL[i+1:]
	}

	repoName := cleanURL
	if i := strings.LastIndexAny(repoName, `/\`); i >= 0 {
		repoName = repoName[i+1:]
	}
	if repoName == "" || repoName == "." || repoName == ".." {
		return "", fmt.Errorf("could not extract repository name from: %s", gitURL)
	}
	return repoName, nil
}
