package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grove/internal/duration"
	"grove/internal/git"
	"grove/internal/models"

	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	force      bool
	baseBranch string
	yes        bool
	olderThan  string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove worktrees for merged branches",
	Long: `Remove worktrees associated with branches that have been merged into the base branch.
Squash merges are detected as well. The base branch defaults to [prune] base from the
config file, then to the remote's default branch. Use --base to pick another one.

You can also prune by worktree age using --older-than (this bypasses the merge check):
  30d  (30 days)
  6M   (6 months)
  1y   (1 year)
  2w   (2 weeks)
  12h  (12 hours)
  P30D (ISO 8601)

Main and locked worktrees are never removed. Worktrees with uncommitted changes are
skipped unless --force is given. Interrupting grove stops further removals; worktrees
already removed stay removed.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed without actually removing")
	pruneCmd.Flags().BoolVar(&force, "force", false, "Remove worktrees even if they have uncommitted changes")
	pruneCmd.Flags().StringVar(&baseBranch, "base", "", "Base branch to check for merged branches (cannot be combined with --older-than)")
	pruneCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	pruneCmd.Flags().StringVar(&olderThan, "older-than", "", "Prune worktrees older than specified duration, bypassing merge check (e.g., 30d, 6M, 1y, 2w)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	opts := models.PruneOptions{
		DryRun:     dryRun,
		Force:      force,
		BaseBranch: baseBranch,
	}
	if olderThan != "" {
		if cmd.Flags().Changed("base") {
			return fmt.Errorf("--base and --older-than cannot be used together: %w", git.ErrConflictingPolicy)
		}
		d, err := duration.Parse(olderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value: %w", err)
		}
		opts.OlderThan = d
	}

	wm, _, err := openManager()
	if err != nil {
		return err
	}

	policy, err := resolvePolicy(opts, cfg.Prune.Base, time.Now(), wm.DefaultBranch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if policy.IsAge() {
		fmt.Fprintf(out, "Checking for worktrees older than %s...\n\n", olderThan)
	} else {
		fmt.Fprintf(out, "Checking for worktrees with branches merged into '%s'...\n\n", policy.BaseBranch)
	}

	candidates, err := wm.PruneCandidates(cmd.Context(), policy)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		if policy.IsAge() {
			fmt.Fprintln(out, "No worktrees found older than the specified duration.")
		} else {
			fmt.Fprintln(out, "No worktrees found with merged branches.")
		}
		return nil
	}

	fmt.Fprintf(out, "Found %d worktree(s) to prune:\n\n", len(candidates))
	printCandidates(out, candidates, opts.Force, time.Now())

	if opts.DryRun {
		fmt.Fprintln(out, "This was a dry run. Run without --dry-run to remove the worktrees.")
		return nil
	}

	if dirty := countDirty(candidates); dirty > 0 && !opts.Force {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Warning: %d worktree(s) have uncommitted changes and will be skipped.", dirty)))
		fmt.Fprintln(out, "Use --force to remove them anyway, or commit/stash your changes first.")
	}

	ok, err := confirmOrSkip(cmd.InOrStdin(), out, yes, "Do you want to proceed with removing these worktrees?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Operation cancelled.")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "\nRemoving worktrees...")
	result := git.RemoveWorktrees(ctx, candidates, opts.Force, wm)
	printRemovalResult(out, result)

	if !result.OK() {
		return fmt.Errorf("%d of %d worktree(s) could not be removed", len(result.Failed), len(candidates))
	}
	return nil
}

// resolvePolicy turns the prune flags into a policy. The merge base comes
// from the flag, then the config file, then the repository's default branch.
func resolvePolicy(opts models.PruneOptions, configBase string, now time.Time, defaultBranch func() (string, error)) (models.PrunePolicy, error) {
	if opts.OlderThan > 0 {
		if opts.BaseBranch != "" {
			return models.PrunePolicy{}, git.ErrConflictingPolicy
		}
		return models.AgePolicy(now.Add(-opts.OlderThan)), nil
	}

	base := opts.BaseBranch
	if base == "" {
		base = configBase
	}
	if base == "" {
		b, err := defaultBranch()
		if err != nil {
			return models.PrunePolicy{}, err
		}
		base = b
	}
	return models.MergePolicy(base), nil
}

func countDirty(candidates []models.PruneCandidate) int {
	n := 0
	for _, c := range candidates {
		if c.IsDirty {
			n++
		}
	}
	return n
}

func printCandidates(out io.Writer, candidates []models.PruneCandidate, force bool, now time.Time) {
	for _, c := range candidates {
		status := formatStatus(c.Worktree)
		if c.IsDirty && !force {
			status = warningStyle.Render(status + " (skipped without --force)")
		}

		fmt.Fprintf(out, "  %s\n", pathStyle.Render(c.Path))
		fmt.Fprintf(out, "    Branch: %s\n", c.Branch)
		fmt.Fprintf(out, "    Reason: %s\n", c.Reason)
		fmt.Fprintf(out, "    Status: %s\n", status)
		if !c.CreatedAt.IsZero() {
			fmt.Fprintf(out, "    Created: %s (%s ago)\n", c.CreatedAt.Format("2006-01-02 15:04:05"), formatTimeSince(c.CreatedAt, now))
		}
		fmt.Fprintln(out)
	}
}

func printRemovalResult(out io.Writer, result models.RemovalResult) {
	for _, path := range result.Removed {
		fmt.Fprintf(out, "  %s %s\n", successStyle.Render("✓"), path)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(out, "  %s %s: %v\n", errorStyle.Render("✗"), f.Path, f.Err)
	}
	fmt.Fprintf(out, "\nRemoved %d worktree(s)", len(result.Removed))
	if len(result.Failed) > 0 {
		fmt.Fprintf(out, ", %d failed", len(result.Failed))
	}
	fmt.Fprintln(out, ".")
}
