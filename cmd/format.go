package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"grove/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	pathStyle    = lipgloss.NewStyle().Bold(true)
)

func formatStatus(wt models.Worktree) string {
	var statuses []string

	if wt.IsDirty {
		statuses = append(statuses, "dirty")
	}
	if wt.IsLocked {
		statuses = append(statuses, "locked")
	}
	if wt.IsPrunable {
		statuses = append(statuses, "prunable")
	}

	if len(statuses) == 0 {
		return "clean"
	}

	return strings.Join(statuses, ", ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatCreatedTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	duration := now.Sub(t)

	switch {
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute") + " ago"
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour") + " ago"
	case duration < 7*24*time.Hour:
		return plural(int(duration.Hours()/24), "day") + " ago"
	case duration < 30*24*time.Hour:
		return plural(int(duration.Hours()/(24*7)), "week") + " ago"
	default:
		return t.Format("2006-01-02")
	}
}

// formatTimeSince formats a duration in a human-readable way
func formatTimeSince(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days == 0:
		hours := int(now.Sub(t).Hours())
		if hours == 0 {
			return "less than an hour"
		}
		return plural(hours, "hour")
	case days < 7:
		return plural(days, "day")
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm asks a yes/no question. Anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// confirmOrSkip prompts unless skip is set. Without a terminal it refuses
// rather than blocking on stdin.
func confirmOrSkip(in io.Reader, out io.Writer, skip bool, question string) (bool, error) {
	if skip {
		return true, nil
	}
	if in == os.Stdin && !interactive() {
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to confirm")
	}
	return confirm(in, out, question)
}
