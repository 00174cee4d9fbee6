package git

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PullRequest is the part of `gh pr view` grove needs.
type PullRequest struct {
	Number  uint64 `json:"-"`
	HeadRef string `json:"headRefName"`
}

// LocalBranch is the branch the pull request head is fetched into.
func (pr PullRequest) LocalBranch() string {
	return fmt.Sprintf("pr-%d", pr.Number)
}

// WorktreeName is pr-<number>-<head ref>, with characters outside
// [A-Za-z0-9_-] replaced by dashes.
func (pr PullRequest) WorktreeName() string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return '-'
	}, pr.HeadRef)
	cleaned = strings.Trim(strings.ReplaceAll(cleaned, "--", "-"), "-")
	if cleaned == "" {
		return pr.LocalBranch()
	}
	return fmt.Sprintf("pr-%d-%s", pr.Number, cleaned)
}

// ParsePullRequestNumber accepts a positive decimal number.
func ParsePullRequestNumber(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid pull request number: %s", s)
	}
	return n, nil
}

// LookupPullRequest asks the GitHub CLI, run through gh, for the head branch
// of pull request number.
func (wm *WorktreeManager) LookupPullRequest(ctx context.Context, gh Runner, number uint64) (PullRequest, error) {
	output, err := gh.Run(ctx, wm.repoPath, "pr", "view", strconv.FormatUint(number, 10), "--json", "headRefName")
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}

	pr := PullRequest{Number: number}
	if err := json.Unmarshal([]byte(output), &pr); err != nil {
		return PullRequest{}, fmt.Errorf("failed to parse pull request #%d: %w", number, err)
	}
	if pr.HeadRef == "" {
		return PullRequest{}, errors.New("could not determine branch name for pull request #" + strconv.FormatUint(number, 10))
	}
	return pr, nil
}

// FetchPullRequest fetches the pull request head from origin into the local
// branch pr-<number>.
func (wm *WorktreeManager) FetchPullRequest(ctx context.Context, pr PullRequest) error {
	refspec := fmt.Sprintf("pull/%d/head:%s", pr.Number, pr.LocalBranch())
	if _, err := wm.runner.Run(ctx, wm.repoPath, "fetch", DefaultRemote, refspec); err != nil {
		return fmt.Errorf("failed to fetch pull request #%d: %w", pr.Number, err)
	}
	return nil
}
