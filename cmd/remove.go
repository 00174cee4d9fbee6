package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grove/internal/git"
	"grove/internal/models"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	removeForce bool
	removeYes   bool
)

var removeCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a worktree",
	Long: `Remove a worktree by branch name, directory name, or the last part of its branch
(login finds feature/login). Without a name the worktree containing the current
directory is removed. The main worktree and locked worktrees are never removed;
worktrees with uncommitted changes need --force.`,
	Aliases: []string{"rm"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Remove the worktree even if it has uncommitted changes")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	wm, _, err := openManager()
	if err != nil {
		return err
	}

	worktrees, err := wm.ListWorktrees(cmd.Context())
	if err != nil {
		return err
	}

	wt, err := selectWorktree(worktrees, args)
	if err != nil {
		return err
	}
	if err := checkRemovable(wt, removeForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok, err := confirmOrSkip(cmd.InOrStdin(), out, removeYes, fmt.Sprintf("Remove worktree %s (%s)?", wt.Path, wt.Branch))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Operation cancelled.")
		return nil
	}

	if err := wm.RemoveWorktree(cmd.Context(), wt.Path, removeForce); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Removed %s\n", successStyle.Render("✓"), wt.Path)
	return nil
}

func selectWorktree(worktrees []models.Worktree, args []string) (models.Worktree, error) {
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return models.Worktree{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		wt, ok := git.WorktreeContaining(worktrees, cwd)
		if !ok {
			return models.Worktree{}, fmt.Errorf("the current directory is not inside a worktree; pass a name")
		}
		return wt, nil
	}

	name := args[0]
	if wt, ok := git.FindWorktree(worktrees, name); ok {
		return wt, nil
	}

	msg := fmt.Sprintf("no worktree matches %q", name)
	if suggestions := suggestWorktrees(worktrees, name); len(suggestions) > 0 {
		msg += "\n\nDid you mean:\n  " + strings.Join(suggestions, "\n  ")
	}
	return models.Worktree{}, errors.New(msg)
}

func checkRemovable(wt models.Worktree, force bool) error {
	switch {
	case wt.IsMain:
		return fmt.Errorf("refusing to remove the main worktree %s", wt.Path)
	case wt.IsLocked:
		return fmt.Errorf("worktree %s is locked; run `git worktree unlock` first", wt.Path)
	case wt.IsDirty && !force:
		return fmt.Errorf("%w: %s (use --force to remove it anyway)", git.ErrDirtyWorktree, wt.Path)
	}
	return nil
}

// suggestWorktrees returns up to three branch or directory names that fuzzily
// match name, best first.
func suggestWorktrees(worktrees []models.Worktree, name string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, wt := range worktrees {
		for _, n := range []string{wt.Branch, filepath.Base(wt.Path)} {
			if n == "" || n == models.DetachedHead || seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
		}
	}

	var suggestions []string
	for _, m := range fuzzy.Find(name, names) {
		suggestions = append(suggestions, m.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}
