package cmd

import (
	"errors"
	"fmt"
	"io"

	"grove/internal/git"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [branch]",
	Short: "Update a branch in the bare repository from origin",
	Long: `Fetch a branch from origin straight into the bare repository, so new worktrees
start from the latest commit. Without a branch the default branch is synced.

A branch that is checked out in a worktree cannot be synced this way; fetch and
merge inside that worktree instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	wm, _, err := openManager()
	if err != nil {
		return err
	}

	branch, err := syncTarget(args, wm.DefaultBranch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := wm.SyncBranch(cmd.Context(), branch); err != nil {
		if errors.Is(err, git.ErrBranchCheckedOut) {
			printCheckedOutHint(out, branch)
		}
		return err
	}

	fmt.Fprintf(out, "%s Synced %s %s\n", successStyle.Render("✓"), pathStyle.Render(branch), mutedStyle.Render("from "+git.DefaultRemote))
	return nil
}

func syncTarget(args []string, defaultBranch func() (string, error)) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return defaultBranch()
}

func printCheckedOutHint(out io.Writer, branch string) {
	fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Branch '%s' is checked out in a worktree, and git will not update a checked-out branch.", branch)))
	fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Run 'git fetch %s' there, then merge or rebase from '%s/%s'.", git.DefaultRemote, git.DefaultRemote, branch)))
}
