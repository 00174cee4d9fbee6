package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrunePolicyValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		policy  PrunePolicy
		wantErr error
		isAge   bool
	}{
		{name: "merge", policy: MergePolicy("main")},
		{name: "age", policy: AgePolicy(now), isAge: true},
		{name: "both", policy: PrunePolicy{BaseBranch: "main", Cutoff: now}, wantErr: ErrConflictingPolicy, isAge: true},
		{name: "neither", policy: PrunePolicy{}, wantErr: ErrEmptyPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.policy.Validate(), tt.wantErr)
			assert.Equal(t, tt.isAge, tt.policy.IsAge())
		})
	}
}

func TestIsMainBranch(t *testing.T) {
	assert.True(t, IsMainBranch("main"))
	assert.True(t, IsMainBranch("master"))
	assert.False(t, IsMainBranch("develop"))
	assert.False(t, IsMainBranch("feature/main"))
	assert.False(t, IsMainBranch(""))
}

func TestWorktreeIsDetached(t *testing.T) {
	assert.True(t, Worktree{Branch: DetachedHead}.IsDetached())
	assert.False(t, Worktree{Branch: "main"}.IsDetached())
}

func TestPruneReasonString(t *testing.T) {
	assert.Equal(t, "merged", PruneReasonMerged.String())
	assert.Equal(t, "older than threshold", PruneReasonAge.String())
	assert.Equal(t, "unknown", PruneReason(42).String())
}

func TestRemovalResultOK(t *testing.T) {
	assert.True(t, RemovalResult{Removed: []string{"/a"}}.OK())
	assert.False(t, RemovalResult{Failed: []RemovalFailure{{Path: "/b"}}}.OK())
}
