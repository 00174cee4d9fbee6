package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes git subcommands. dir is the working directory of the
// command; output is stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs a binary found on PATH, git unless Binary says otherwise.
type ExecRunner struct {
	Binary string
	Logger *slog.Logger
}

func (r ExecRunner) binary() string {
	if r.Binary == "" {
		return "git"
	}
	return r.Binary
}

func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	name := r.binary()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if r.Logger != nil {
		r.Logger.Debug(name, "dir", dir, "args", strings.Join(args, " "), "took", time.Since(start), "err", err)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s %s: %s", name, firstArg(args), msg)
		}
		return "", fmt.Errorf("%s %s: %w", name, firstArg(args), err)
	}
	return stdout.String(), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
