package cmd

import (
	"fmt"
	"io"
	"os"

	"grove/internal/copyconfig"
	"grove/internal/git"
	"grove/internal/models"

	"github.com/spf13/cobra"
)

var addTrack string

var addCmd = &cobra.Command{
	Use:   "add <branch>",
	Short: "Create a worktree for a branch",
	Long: `Create a worktree for a branch inside the grove project.
The worktree directory is derived from the branch name (feature/login becomes
<project>/feature/login). An existing local branch is checked out; otherwise the
branch is created, tracking origin/<branch> when that exists.

If the project root holds a .grove-copy.json file, the files it names are copied
from the source worktree into the new one:
  {"include": [".env*"], "exclude": [".env.example"], "source": "main"}`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTrack, "track", "", "Create the branch tracking this remote branch (e.g., origin/feature)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	branch := args[0]

	wm, repo, err := openManager()
	if err != nil {
		return err
	}

	path, err := git.ComputeWorktreePath(branch, repo.ProjectRoot)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("directory %s already exists", path)
	}

	if addTrack != "" {
		if err := wm.EnsureTrackingRef(cmd.Context(), addTrack); err != nil {
			return err
		}
	}

	create, upstream := wm.CheckoutPlan(branch, addTrack)
	logger.Debug("adding worktree", "branch", branch, "path", path, "create", create, "upstream", upstream)

	if err := wm.AddWorktree(cmd.Context(), path, branch, create, upstream); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Created worktree for %s at %s\n", successStyle.Render("✓"), branch, pathStyle.Render(path))

	copyLocalFiles(cmd, wm, repo, path, out)
	return nil
}

// copyLocalFiles applies .grove-copy.json. Failures are reported but do not
// undo the new worktree.
func copyLocalFiles(cmd *cobra.Command, wm *git.WorktreeManager, repo *git.Repository, dst string, out io.Writer) {
	copyCfg, err := copyconfig.Load(repo.ProjectRoot)
	if err != nil {
		logger.Warn("ignoring copy config", "err", err)
		return
	}
	if copyCfg == nil {
		return
	}

	worktrees, err := wm.ListWorktrees(cmd.Context())
	if err != nil {
		logger.Warn("could not list worktrees for copy config", "err", err)
		return
	}

	source, ok := copySource(worktrees, copyCfg.Source, wm.DefaultBranch)
	if !ok || source.Path == dst {
		logger.Warn("no source worktree to copy files from", "source", copyCfg.Source)
		return
	}

	copied, err := copyconfig.Apply(copyCfg, source.Path, dst)
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Warning: copying files from %s failed: %v", source.Path, err)))
	}
	if len(copied) > 0 {
		fmt.Fprintf(out, "  copied %d file(s) from %s\n", len(copied), mutedStyle.Render(source.Path))
	}
}

// copySource picks the worktree named in the copy config, or the worktree on
// the default branch when none is named.
func copySource(worktrees []models.Worktree, name string, defaultBranch func() (string, error)) (models.Worktree, bool) {
	if name != "" {
		return git.FindWorktree(worktrees, name)
	}

	if branch, err := defaultBranch(); err == nil {
		if wt, ok := git.FindWorktree(worktrees, branch); ok {
			return wt, true
		}
	}
	for _, wt := range worktrees {
		if wt.IsMain {
			return wt, true
		}
	}
	return models.Worktree{}, false
}
