package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/reap-dev/reap/internal/cli/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func runCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewCheckCommand()
	cmd.Root().PersistentFlags().String("config", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckReportsIssuesAndExitState(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSource(t, dir, "app.py", "import os\nprint('hi')\n")

	out, err := runCheck(t, ".")
	require.ErrorIs(t, err, commands.ErrIssuesFound)
	assert.Contains(t, out, "RP001")
	assert.Contains(t, out, "Found 1 issue(s)")
}

func TestCheckCleanRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSource(t, dir, "app.py", "import json\nprint(json.dumps({}))\n")

	out, err := runCheck(t, ".")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 0 issue(s)")
}

func TestCheckNoExitCode(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSource(t, dir, "app.py", "import os\n")

	_, err := runCheck(t, "--no-exit-code", ".")
	assert.NoError(t, err)
}

func TestCheckJSONOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSource(t, dir, "app.py", "import os\n")

	out, err := runCheck(t, "--json", "--no-exit-code", ".")
	require.NoError(t, err)

	var doc struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Count)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "RP001", doc.Diagnostics[0].Code)
}

func TestCheckSelectFilters(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeSource(t, dir, "app.py", "import os\n\ndef f(x, unused):\n    return x\n\nf(1, 2)\n")

	out, err := runCheck(t, "--select", "RP008", "--no-exit-code", ".")
	require.NoError(t, err)
	assert.Contains(t, out, "RP008")
	assert.NotContains(t, out, "RP001")
}

func TestCheckExcludeNames(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gen"), 0o750))
	writeSource(t, dir, "app.py", "print('ok')\n")
	writeSource(t, dir, filepath.Join("gen", "stub.py"), "import os\n")

	out, err := runCheck(t, "--exclude", "gen", ".")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 0 issue(s)")
}

func TestCheckBadPathIsRuntimeError(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := runCheck(t, "does-not-exist")
	require.Error(t, err)
	assert.NotErrorIs(t, err, commands.ErrIssuesFound)
}
