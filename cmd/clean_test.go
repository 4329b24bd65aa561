package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

func TestCleanActions_DryRunTouchesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/junk.log", []byte("12345"), 0o644))

	executor := cleaner.NewExecutorWithFS(fs, cleaner.Options{})
	actions := []types.CleaningAction{{
		Kind:           types.ActionDeleteFile,
		Target:         "/tmp/junk.log",
		EstimatedBytes: 5,
		Safety:         types.SafetyLevelSafe,
		Category:       "temp",
	}}

	var out bytes.Buffer
	results, err := cleanActions(context.Background(), &out, executor, actions, true)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, int64(5), results[0].FreedBytes)

	exists, _ := afero.Exists(fs, "/tmp/junk.log")
	assert.True(t, exists, "dry run must leave the file alone")
	assert.Contains(t, out.String(), "Dry Run Report")
}

func TestCleanActions_RemovesTargetAndReports(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/junk.log", []byte("12345"), 0o644))

	executor := cleaner.NewExecutorWithFS(fs, cleaner.Options{})
	actions := []types.CleaningAction{{
		Kind:           types.ActionDeleteFile,
		Target:         "/tmp/junk.log",
		EstimatedBytes: 5,
		Safety:         types.SafetyLevelSafe,
		Category:       "temp",
	}}

	var out bytes.Buffer
	results, err := cleanActions(context.Background(), &out, executor, actions, false)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, int64(5), results[0].FreedBytes)

	exists, _ := afero.Exists(fs, "/tmp/junk.log")
	assert.False(t, exists)
	assert.Contains(t, out.String(), "Cleaning Report")
}
