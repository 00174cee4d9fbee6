package cmd

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"grove/internal/git"

	"github.com/spf13/cobra"
)

var prCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Create a worktree for a GitHub pull request",
	Long: `Look up a pull request with the GitHub CLI (gh), fetch its head into the local
branch pr-<number> and check that out in <project>/pr-<number>-<head branch>.
Running it again for the same pull request leaves the existing worktree alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runPR,
}

func runPR(cmd *cobra.Command, args []string) error {
	number, err := git.ParsePullRequestNumber(args[0])
	if err != nil {
		return err
	}
	if _, err := exec.LookPath("gh"); err != nil {
		return errors.New("gh CLI is not installed; get it from https://cli.github.com/")
	}

	wm, repo, err := openManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Fetching pull request #%d...", number)))
	pr, err := wm.LookupPullRequest(ctx, git.ExecRunner{Binary: "gh", Logger: logger}, number)
	if err != nil {
		return err
	}

	name := pr.WorktreeName()
	worktrees, err := wm.ListWorktrees(ctx)
	if err != nil {
		return err
	}
	if existing, ok := git.FindWorktree(worktrees, name); ok {
		fmt.Fprintf(out, "%s %s\n", warningStyle.Render("Worktree already exists:"), pathStyle.Render(existing.Path))
		return nil
	}

	if err := wm.FetchPullRequest(ctx, pr); err != nil {
		return err
	}

	path := filepath.Join(repo.ProjectRoot, name)
	logger.Debug("adding pull request worktree", "number", number, "head", pr.HeadRef, "path", path)
	if err := wm.AddWorktree(ctx, path, pr.LocalBranch(), false, ""); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created worktree for pull request #%d\n", successStyle.Render("✓"), number)
	fmt.Fprintf(out, "  Branch: %s\n", pr.HeadRef)
	fmt.Fprintf(out, "  Path:   %s\n", pathStyle.Render(path))
	return nil
}
