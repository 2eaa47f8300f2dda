package history_test

import (
	"path/filepath"
	"testing"

	"github.com/reap-dev/reap/internal/history"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndListRuns(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	diags := []lint.Diagnostic{
		{File: "a.py", Line: 1, Col: 8, RuleID: "RP001", Message: "`os` imported but unused"},
		{File: "b.py", Line: 3, Col: 1, RuleID: "RP003", Message: "function `orphan` is defined but never used"},
	}
	id, err := store.RecordRun(2, diags)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 2, runs[0].Files)
	assert.Equal(t, 2, runs[0].Diagnostics)

	got, err := store.RunDiagnostics(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RP001", got[0].RuleID)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(path)
	require.NoError(t, err)
	_, err = store.RecordRun(1, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = history.Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
