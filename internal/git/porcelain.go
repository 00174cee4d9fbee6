package git

import (
	"bufio"
	"iter"
	"strings"

	"grove/internal/models"
)

// worktreeEntry is one block of `git worktree list --porcelain` before the
// filesystem checks are run.
type worktreeEntry struct {
	path     string
	head     string
	branch   string
	locked   bool
	prunable bool
	bare     bool
}

// worktreeEntries parses porcelain output lazily. The bare repository's own
// block is never yielded.
//
//	worktree /r/main
//	HEAD aaa
//	branch refs/heads/main
//	locked [reason]
//	prunable [reason]
func worktreeEntries(output string) iter.Seq[worktreeEntry] {
	return func(yield func(worktreeEntry) bool) {
		var current worktreeEntry
		pending := false

		flush := func() bool {
			if !pending || current.bare {
				return true
			}
			return yield(current)
		}

		scanner := bufio.NewScanner(strings.NewReader(output))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")

			if path, ok := strings.CutPrefix(line, "worktree "); ok {
				if !flush() {
					return
				}
				current = worktreeEntry{path: path}
				pending = true
				continue
			}

			switch {
			case strings.HasPrefix(line, "HEAD "):
				current.head = strings.TrimPrefix(line, "HEAD ")
			case strings.HasPrefix(line, "branch "):
				current.branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
			case line == "detached":
				current.branch = models.DetachedHead
			case line == "locked" || strings.HasPrefix(line, "locked "):
				current.locked = true
			case line == "prunable" || strings.HasPrefix(line, "prunable "):
				current.prunable = true
			case line == "bare":
				current.bare = true
			}
		}

		flush()
	}
}
