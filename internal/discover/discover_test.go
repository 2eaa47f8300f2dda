package discover_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reap-dev/reap/internal/discover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscoverWalksForSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "")
	writeFile(t, root, "pkg/util.py", "")
	writeFile(t, root, "README.md", "")
	writeFile(t, root, "pkg/data.json", "")

	files, err := discover.Discover([]string{root}, discover.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "pkg/util.py"}, rels(t, root, files))
}

func TestAutoExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "")
	writeFile(t, root, ".git/hook.py", "")
	writeFile(t, root, "venv/lib/site.py", "")
	writeFile(t, root, "__pycache__/main.py", "")
	writeFile(t, root, "node_modules/x/setup.py", "")
	writeFile(t, root, "build/out.py", "")

	files, err := discover.Discover([]string{root}, discover.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, rels(t, root, files))
}

func TestExplicitExcludeNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "")
	writeFile(t, root, "migrations/0001.py", "")

	files, err := discover.Discover([]string{root}, discover.Options{Exclude: []string{"migrations"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, rels(t, root, files))
}

func TestIgnoreFileGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, discover.IgnoreFileName, "# generated code\ngen/**\n*_pb2.py\n")
	writeFile(t, root, "main.py", "")
	writeFile(t, root, "gen/schema.py", "")
	writeFile(t, root, "api_pb2.py", "")

	files, err := discover.Discover([]string{root}, discover.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, rels(t, root, files))
}

func TestExplicitFileAlwaysIncluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "script", "")

	files, err := discover.Discover([]string{filepath.Join(root, "script")}, discover.Options{})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestMissingPathIsAnError(t *testing.T) {
	_, err := discover.Discover([]string{filepath.Join(t.TempDir(), "nope")}, discover.Options{})
	assert.Error(t, err)
}

func TestDuplicatePathsDeduplicated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "")

	files, err := discover.Discover([]string{root, root}, discover.Options{})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
