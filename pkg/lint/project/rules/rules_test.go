package rules_test

import (
	"testing"

	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/project"
	_ "github.com/reap-dev/reap/pkg/lint/project/rules"
	"github.com/reap-dev/reap/pkg/parser"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// merge parses and binds every file, then builds the merged project
// context the cross-file rules consume.
func merge(t *testing.T, files map[string]string) *project.Context {
	t.Helper()
	var defs []project.Def
	var uses []project.Use
	for path, src := range files {
		buf := source.New(path, []byte(src))
		toks, _ := lexer.Tokenize(buf)
		res := parser.Parse(buf, toks)
		require.Empty(t, res.Errors, "unexpected parse errors in %s", path)
		tables := binder.Bind(buf, res.Tree)
		d, u := project.Collect(path, buf, tables)
		defs = append(defs, d...)
		uses = append(uses, u...)
	}
	return project.NewContext(defs, uses)
}

func runRule(t *testing.T, id string, files map[string]string) []lint.Diagnostic {
	t.Helper()
	rule, ok := project.Get(id)
	require.True(t, ok)
	diags := rule.Check(merge(t, files))
	lint.Sort(diags)
	return diags
}

func TestRP003OrphanAcrossFiles(t *testing.T) {
	diags := runRule(t, "RP003", map[string]string{
		"a.py": "def helper(): return 1\ndef orphan(): return 2\n",
		"b.py": "from a import helper\nprint(helper())\n",
	})
	require.Len(t, diags, 1)
	assert.Equal(t, "a.py", diags[0].File)
	assert.Contains(t, diags[0].Message, "`orphan`")
}

func TestRP003UsageAnywhereKeepsAlive(t *testing.T) {
	diags := runRule(t, "RP003", map[string]string{
		"a.py": "def worker(): return 1\n",
		"b.py": "import a\nprint(a.worker)\n",
	})
	// a.worker is an attribute access: only `a` counts as a usage, so
	// worker stays flagged, but a bare reference anywhere saves it.
	require.Len(t, diags, 1)

	diags = runRule(t, "RP003", map[string]string{
		"a.py": "def worker(): return 1\n",
		"b.py": "from a import worker\nrun(worker)\n",
	})
	assert.Empty(t, diags)
}

func TestRP003RecursionDoesNotCount(t *testing.T) {
	diags := runRule(t, "RP003", map[string]string{
		"a.py": "def walk(n):\n    if n:\n        return walk(n - 1)\n    return 0\n",
	})
	require.Len(t, diags, 1, "a function called only by itself is still unused")
}

func TestRP003Exemptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"underscore", "def _internal(): return 1\n"},
		{"main", "def main(): return 1\n"},
		{"test function", "def test_roundtrip(): return 1\n"},
		{"setup", "def setUp(): return 1\n"},
		{"exported", "__all__ = ['api']\ndef api(): return 1\n"},
		{"decorated", "@app.route('/')\ndef index(): return 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, runRule(t, "RP003", map[string]string{"a.py": tt.src}))
		})
	}
}

func TestRP003DecoratorAllowList(t *testing.T) {
	files := map[string]string{
		"a.py": "@app.route('/')\ndef index(): return 1\n@cached\ndef compute(): return 2\n",
	}
	ctx := merge(t, files)
	ctx.Options = map[string]map[string]any{
		"RP003": {"exempt_decorators": []string{"route"}},
	}
	rule, ok := project.Get("RP003")
	require.True(t, ok)
	diags := rule.Check(ctx)
	require.Len(t, diags, 1, "with an allow-list, only listed decorators exempt")
	assert.Contains(t, diags[0].Message, "`compute`")
}

func TestRP004UnusedClass(t *testing.T) {
	diags := runRule(t, "RP004", map[string]string{
		"a.py": "class Ghost:\n    pass\nclass Used:\n    pass\n",
		"b.py": "from a import Used\nprint(Used())\n",
	})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`Ghost`")
}

func TestRP004NominalMatchingMarksAllAlive(t *testing.T) {
	// two same-named classes in different files: one usage anywhere
	// keeps both alive (false-negative bias)
	diags := runRule(t, "RP004", map[string]string{
		"a.py": "class Widget:\n    pass\n",
		"b.py": "class Widget:\n    pass\n",
		"c.py": "from a import Widget\nprint(Widget())\n",
	})
	assert.Empty(t, diags)
}

func TestRP003MonotonicityRemovingUsage(t *testing.T) {
	withUse := map[string]string{
		"a.py": "def job(): return 1\n",
		"b.py": "from a import job\njob()\n",
	}
	withoutUse := map[string]string{
		"a.py": "def job(): return 1\n",
		"b.py": "print('idle')\n",
	}
	before := runRule(t, "RP003", withUse)
	after := runRule(t, "RP003", withoutUse)
	assert.GreaterOrEqual(t, len(after), len(before),
		"removing a usage can only surface more unused definitions")
}
