package engine_test

import (
	"context"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/reap-dev/reap/pkg/engine"
	"github.com/reap-dev/reap/pkg/lint"
	_ "github.com/reap-dev/reap/pkg/lint/file/rules"
	_ "github.com/reap-dev/reap/pkg/lint/project/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg engine.Config, sources []engine.Source) []lint.Diagnostic {
	t.Helper()
	res, err := engine.New(cfg).RunSources(context.Background(), sources)
	require.NoError(t, err)
	return res.Diagnostics
}

func runProject(t *testing.T, cfg engine.Config, archive string) []lint.Diagnostic {
	t.Helper()
	arch := txtar.Parse([]byte(archive))
	sources := make([]engine.Source, 0, len(arch.Files))
	for _, f := range arch.Files {
		sources = append(sources, engine.Source{Path: f.Name, Content: f.Data})
	}
	return run(t, cfg, sources)
}

func TestUnusedImportEndToEnd(t *testing.T) {
	diags := run(t, engine.Config{}, []engine.Source{
		{Path: "test.py", Content: []byte("import os\nimport json\nprint(json.loads('{}'))\n")},
	})
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "test.py", d.File)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 8, d.Col)
	assert.Equal(t, "RP001", d.RuleID)
	assert.Contains(t, d.Message, "`os`")
}

func TestUnusedArgumentSelected(t *testing.T) {
	diags := run(t, engine.Config{Select: []string{"RP008"}}, []engine.Source{
		{Path: "test.py", Content: []byte("def f(x, timeout):\n    return x\n")},
	})
	require.Len(t, diags, 1)
	assert.Equal(t, "RP008", diags[0].RuleID)
	assert.Contains(t, diags[0].Message, "`timeout`")
}

func TestUnreachableSelected(t *testing.T) {
	diags := run(t, engine.Config{Select: []string{"RP005"}}, []engine.Source{
		{Path: "test.py", Content: []byte("def f():\n    return 1\n    x = 2\n")},
	})
	require.Len(t, diags, 1)
	assert.Equal(t, "RP005", diags[0].RuleID)
	assert.Equal(t, 3, diags[0].Line)
}

func TestNoCrossArmUnreachable(t *testing.T) {
	diags := run(t, engine.Config{Select: []string{"RP005"}}, []engine.Source{
		{Path: "test.py", Content: []byte("def f(x):\n    match x:\n        case 1: return 1\n        case _: return 0\n")},
	})
	assert.Empty(t, diags)
}

const twoFileProject = `-- a.py --
def helper(): return 1
def orphan(): return 2
-- b.py --
from a import helper
print(helper())
`

func TestCrossFileOrphan(t *testing.T) {
	diags := runProject(t, engine.Config{}, twoFileProject)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "a.py", d.File)
	assert.Equal(t, "RP003", d.RuleID)
	assert.Contains(t, d.Message, "`orphan`")
}

func TestDeadBranchAndTypeChecking(t *testing.T) {
	diags := run(t, engine.Config{Select: []string{"RP006"}}, []engine.Source{
		{Path: "test.py", Content: []byte("if False:\n    x = 1\n")},
	})
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)

	diags = run(t, engine.Config{}, []engine.Source{
		{Path: "test.py", Content: []byte("from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import heavy\n")},
	})
	require.Len(t, diags, 1)
	assert.Equal(t, "RP006", diags[0].RuleID)
	assert.Equal(t, 2, diags[0].Line)
}

func TestNoqaSuppression(t *testing.T) {
	// without the directive, exactly one RP001 fires
	before := run(t, engine.Config{Select: []string{"RP001"}}, []engine.Source{
		{Path: "test.py", Content: []byte("import os\n")},
	})
	require.Len(t, before, 1)

	// a code-specific directive removes it and nothing else
	after := run(t, engine.Config{Select: []string{"RP001"}}, []engine.Source{
		{Path: "test.py", Content: []byte("import os  # noqa: RP001\n")},
	})
	assert.Empty(t, after)

	// a bare noqa suppresses every rule on the line
	bare := run(t, engine.Config{}, []engine.Source{
		{Path: "test.py", Content: []byte("import os  # noqa\n")},
	})
	assert.Empty(t, bare)

	// a directive for a different code suppresses nothing
	other := run(t, engine.Config{Select: []string{"RP001"}}, []engine.Source{
		{Path: "test.py", Content: []byte("import os  # noqa: RP002\n")},
	})
	assert.Len(t, other, 1)
}

func TestNoqaSuppressesProjectRules(t *testing.T) {
	diags := runProject(t, engine.Config{}, `-- a.py --
def orphan(): return 2  # noqa: RP003
`)
	assert.Empty(t, diags)
}

func TestDeterministicOrdering(t *testing.T) {
	sources := []engine.Source{
		{Path: "b.py", Content: []byte("import os\nimport sys\n")},
		{Path: "a.py", Content: []byte("import json\n")},
	}
	reversed := []engine.Source{sources[1], sources[0]}

	first := run(t, engine.Config{}, sources)
	second := run(t, engine.Config{}, reversed)
	require.Equal(t, first, second, "diagnostic order must not depend on input order")

	require.Len(t, first, 3)
	assert.Equal(t, "a.py", first[0].File)
	assert.Equal(t, "b.py", first[1].File)
	assert.True(t, first[1].Line < first[2].Line)
}

func TestCleanProjectIsIdempotent(t *testing.T) {
	src := []engine.Source{
		{Path: "test.py", Content: []byte("import json\n\ndef main():\n    print(json.dumps({}))\n\nmain()\n")},
	}
	for i := 0; i < 2; i++ {
		assert.Empty(t, run(t, engine.Config{}, src))
	}
}

func TestParseErrorStillAnalyzesRest(t *testing.T) {
	diags := run(t, engine.Config{}, []engine.Source{
		{Path: "bad.py", Content: []byte("def broken(:\n    pass\nimport os\n")},
		{Path: "good.py", Content: []byte("import sys\n")},
	})

	var sawSyntax, sawGood bool
	for _, d := range diags {
		if d.File == "bad.py" && d.RuleID == engine.SyntaxRuleID {
			sawSyntax = true
		}
		if d.File == "good.py" && d.RuleID == "RP001" {
			sawGood = true
		}
	}
	assert.True(t, sawSyntax, "the broken file must carry a parse-error diagnostic")
	assert.True(t, sawGood, "a parse error in one file must not abort the others")
}

func TestExemptDecoratorOption(t *testing.T) {
	cfg := engine.Config{
		RuleOptions: map[string]map[string]any{
			"RP003": {"exempt_decorators": []string{"route"}},
		},
	}
	diags := runProject(t, cfg, `-- app.py --
@route('/')
def index(): return 1
@cached
def compute(): return 2
`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`compute`")
}

func TestDistinctNamesOnOneLineAreNotCoalesced(t *testing.T) {
	// two imports on one line bind distinct names at distinct columns;
	// the sink only coalesces identical (file, line, col, rule) keys
	diags := run(t, engine.Config{Select: []string{"RP001"}}, []engine.Source{
		{Path: "test.py", Content: []byte("import os, sys\n")},
	})
	assert.Len(t, diags, 2)
}
