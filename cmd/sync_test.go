package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncTarget(t *testing.T) {
	branch, err := syncTarget([]string{"develop"}, fixedBranch("main"))
	require.NoError(t, err)
	assert.Equal(t, "develop", branch)

	branch, err = syncTarget(nil, fixedBranch("main"))
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	_, err = syncTarget(nil, func() (string, error) { return "", errors.New("no default branch") })
	assert.Error(t, err)
}

func TestPrintCheckedOutHint(t *testing.T) {
	var out strings.Builder
	printCheckedOutHint(&out, "main")

	assert.Contains(t, out.String(), "Branch 'main' is checked out")
	assert.Contains(t, out.String(), "git fetch origin")
	assert.Contains(t, out.String(), "'origin/main'")
}
