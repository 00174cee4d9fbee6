package cmd

import (
	"strings"
	"testing"
	"time"

	"grove/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCreatedTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		created time.Time
		want    string
	}{
		{"zero", time.Time{}, "unknown"},
		{"minutes", now.Add(-30 * time.Minute), "30 minutes ago"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"one day", now.Add(-25 * time.Hour), "1 day ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"one week", now.Add(-8 * 24 * time.Hour), "1 week ago"},
		{"weeks", now.Add(-15 * 24 * time.Hour), "2 weeks ago"},
		{"date", now.Add(-45 * 24 * time.Hour), "2024-05-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCreatedTime(tt.created, now))
		})
	}
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Minute, "less than an hour"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
		{24 * time.Hour, "1 day"},
		{6 * 24 * time.Hour, "6 days"},
		{7 * 24 * time.Hour, "1 week"},
		{21 * 24 * time.Hour, "3 weeks"},
		{30 * 24 * time.Hour, "1 month"},
		{200 * 24 * time.Hour, "6 months"},
		{365 * 24 * time.Hour, "1 year"},
		{800 * 24 * time.Hour, "2 years"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimeSince(now.Add(-tt.ago), now))
		})
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "clean", formatStatus(models.Worktree{}))
	assert.Equal(t, "dirty", formatStatus(models.Worktree{IsDirty: true}))
	assert.Equal(t, "dirty, locked, prunable", formatStatus(models.Worktree{IsDirty: true, IsLocked: true, IsPrunable: true}))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"y", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out strings.Builder
			got, err := confirm(strings.NewReader(tt.input), &out, "Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Proceed? [y/N]: ", out.String())
		})
	}
}

func TestConfirmOrSkip(t *testing.T) {
	var out strings.Builder
	ok, err := confirmOrSkip(strings.NewReader(""), &out, true, "Proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, out.String())

	ok, err = confirmOrSkip(strings.NewReader("y\n"), &out, false, "Proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf strings.Builder
	quiet := newLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Warn("shown", "branch", "feat")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "grove:")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "branch=feat")

	buf.Reset()
	loud := newLogger(&buf, true)
	loud.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
