package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"grove/internal/config"
	"grove/internal/git"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfg     = config.Default()
	logger  = newLogger(io.Discard, false)
)

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Grove is a Git worktree management tool",
	Long: `Grove is a CLI tool for managing Git worktrees.
A grove project is a directory holding a bare clone (<name>/<name>.git) and one
worktree per branch next to it. Grove lists those worktrees with their status,
creates and removes them, and prunes the ones whose branches were merged.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log git invocations and diagnostics to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and builds the logger. Flags win over the file.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if !cmd.Flags().Changed("verbose") {
		verbose = cfg.Verbose
	}
	logger = newLogger(cmd.ErrOrStderr(), verbose)
	return nil
}

// newLogger wraps a charm logger in slog; the core packages take *slog.Logger.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "grove",
		ReportTimestamp: false,
	}))
}

// openManager locates the grove repository from the working directory.
func openManager() (*git.WorktreeManager, *git.Repository, error) {
	repo, err := git.Discover("")
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("using repository", "path", repo.Path, "projectRoot", repo.ProjectRoot)

	wm, err := git.NewWorktreeManager(repo,
		git.WithLogger(logger),
		git.WithWorkers(cfg.Workers),
		git.WithRunner(git.ExecRunner{Logger: logger}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize worktree manager: %w", err)
	}
	return wm, repo, nil
}
