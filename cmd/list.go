package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
	"text/tabwriter"
	"time"

	"grove/internal/models"

	"github.com/spf13/cobra"
)

var (
	showDetails bool
	showDirty   bool
	showLocked  bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all worktrees",
	Long: `List all worktrees of the current grove project.
Shows the path, branch, creation date, and status of each worktree.
With --json one object is written per line as soon as each worktree is inspected.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&showDetails, "details", false, "Show detailed information")
	listCmd.Flags().BoolVar(&showDirty, "dirty", false, "Show only dirty worktrees")
	listCmd.Flags().BoolVar(&showLocked, "locked", false, "Show only locked worktrees")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Write one JSON object per worktree")
}

func runList(cmd *cobra.Command, args []string) error {
	wm, _, err := openManager()
	if err != nil {
		return err
	}

	opts := models.WorktreeListOptions{
		ShowDirty:   showDirty,
		ShowLocked:  showLocked,
		ShowDetails: showDetails,
	}

	if listJSON {
		return writeJSONLines(cmd.OutOrStdout(), wm.StreamWorktrees(cmd.Context()), opts)
	}

	worktrees, err := wm.ListWorktrees(cmd.Context())
	if err != nil {
		return err
	}

	filteredWorktrees := filterWorktrees(worktrees, opts)

	if len(filteredWorktrees) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No worktrees found matching the criteria.")
		return nil
	}

	printWorktrees(cmd.OutOrStdout(), filteredWorktrees, opts, time.Now())
	return nil
}

// writeJSONLines encodes each worktree as it arrives, so output starts before
// the slowest worktree has been inspected.
func writeJSONLines(w io.Writer, worktrees iter.Seq2[models.Worktree, error], opts models.WorktreeListOptions) error {
	enc := json.NewEncoder(w)
	for wt, err := range worktrees {
		if err != nil {
			return err
		}
		if !matchesListOptions(wt, opts) {
			continue
		}
		if err := enc.Encode(wt); err != nil {
			return fmt.Errorf("failed to write worktree: %w", err)
		}
	}
	return nil
}

func matchesListOptions(wt models.Worktree, opts models.WorktreeListOptions) bool {
	if opts.ShowDirty && !wt.IsDirty {
		return false
	}
	if opts.ShowLocked && !wt.IsLocked {
		return false
	}
	return true
}

func filterWorktrees(worktrees []models.Worktree, opts models.WorktreeListOptions) []models.Worktree {
	var filtered []models.Worktree
	for _, wt := range worktrees {
		if matchesListOptions(wt, opts) {
			filtered = append(filtered, wt)
		}
	}
	return filtered
}

func printWorktrees(out io.Writer, worktrees []models.Worktree, opts models.WorktreeListOptions, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if opts.ShowDetails {
		fmt.Fprintln(w, "PATH\tBRANCH\tHEAD\tCREATED\tSTATUS")
		fmt.Fprintln(w, "----\t------\t----\t-------\t------")
	} else {
		fmt.Fprintln(w, "PATH\tBRANCH\tCREATED\tSTATUS")
		fmt.Fprintln(w, "----\t------\t-------\t------")
	}

	for _, wt := range worktrees {
		status := formatStatus(wt)
		createdStr := formatCreatedTime(wt.CreatedAt, now)
		branch := wt.Branch
		if wt.IsMain {
			branch += " (main)"
		}

		if opts.ShowDetails {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wt.Path, branch, shortHash(wt.Head), createdStr, status)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wt.Path, branch, createdStr, status)
		}
	}
}

func shortHash(hash string) string {
	hash = strings.TrimSpace(hash)
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
