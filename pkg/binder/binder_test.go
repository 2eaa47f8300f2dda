package binder_test

import (
	"testing"

	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/parser"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bind(t *testing.T, src string) *binder.Tables {
	t.Helper()
	buf := source.New("test.py", []byte(src))
	toks, lexErrs := lexer.Tokenize(buf)
	require.Empty(t, lexErrs)
	res := parser.Parse(buf, toks)
	require.Empty(t, res.Errors)
	return binder.Bind(buf, res.Tree)
}

func defsNamed(tables *binder.Tables, name string) []binder.Def {
	var out []binder.Def
	for _, d := range tables.Defs {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func TestModuleScopeBindings(t *testing.T) {
	tables := bind(t, "import os\nx = 1\ndef f():\n    pass\nclass C:\n    pass\n")

	kinds := map[string]binder.DefKind{}
	for _, d := range tables.Defs {
		kinds[d.Name] = d.Kind
	}
	assert.Equal(t, binder.DefImport, kinds["os"])
	assert.Equal(t, binder.DefAssign, kinds["x"])
	assert.Equal(t, binder.DefFunction, kinds["f"])
	assert.Equal(t, binder.DefClass, kinds["C"])

	for _, d := range tables.Defs {
		if d.Kind != binder.DefImport && d.Kind != binder.DefAssign {
			continue
		}
		assert.EqualValues(t, 0, d.Scope, "module-level binding should live in scope 0")
	}
}

func TestFunctionScopeAndUsage(t *testing.T) {
	tables := bind(t, "def f(a, b):\n    c = a + b\n    return c\n")

	cDefs := defsNamed(tables, "c")
	require.Len(t, cDefs, 1)
	assert.True(t, tables.UsedAfter(cDefs[0]), "c is returned after assignment")

	for _, name := range []string{"a", "b"} {
		defs := defsNamed(tables, name)
		require.Len(t, defs, 1)
		assert.True(t, tables.IsUsed(defs[0].Scope, name))
	}
}

func TestSelfReferencingAssignIsNotASubsequentRead(t *testing.T) {
	tables := bind(t, "def f():\n    x = x + 1\n")

	defs := defsNamed(tables, "x")
	require.Len(t, defs, 1)
	assert.False(t, tables.UsedAfter(defs[0]),
		"the read in x = x + 1 must not satisfy the binding it writes")
}

func TestComprehensionTargetScope(t *testing.T) {
	tables := bind(t, "rows = [line for line in data]\n")

	lineDefs := defsNamed(tables, "line")
	require.Len(t, lineDefs, 1)
	assert.Equal(t, binder.DefCompTarget, lineDefs[0].Kind)
	assert.Equal(t, binder.ScopeComprehension, tables.Scopes[lineDefs[0].Scope].Kind,
		"comprehension targets are local to the comprehension scope")
	assert.True(t, tables.IsUsed(lineDefs[0].Scope, "line"))
}

func TestWalrusHoistsOutOfComprehension(t *testing.T) {
	tables := bind(t, "def f(xs):\n    ys = [y for x in xs if (y := x) > 0]\n    return ys\n")

	yDefs := defsNamed(tables, "y")
	require.Len(t, yDefs, 1)
	assert.Equal(t, binder.DefWalrus, yDefs[0].Kind)
	assert.Equal(t, binder.ScopeFunction, tables.Scopes[yDefs[0].Scope].Kind,
		"walrus binds in the enclosing function, not the comprehension")
}

func TestGlobalDeclarationRedirectsBinding(t *testing.T) {
	tables := bind(t, "counter = 0\ndef bump():\n    global counter\n    counter = 1\n")

	defs := defsNamed(tables, "counter")
	require.Len(t, defs, 2)
	for _, d := range defs {
		assert.EqualValues(t, 0, d.Scope, "global declaration rebinds to module scope")
	}
}

func TestClassBodyInvisibleToMethods(t *testing.T) {
	tables := bind(t, "class C:\n    size = 4\n    def area(self):\n        return size\n")

	sizeDefs := defsNamed(tables, "size")
	require.Len(t, sizeDefs, 1)
	assert.False(t, tables.IsUsed(sizeDefs[0].Scope, "size"),
		"a method's read must not resolve to a class-level binding")
}

func TestDunderAllExports(t *testing.T) {
	tables := bind(t, "__all__ = [\"api\", \"Client\"]\ndef api():\n    pass\nclass Client:\n    pass\n")

	assert.True(t, tables.ExportsOK)
	assert.True(t, tables.Exported("api"))
	assert.True(t, tables.Exported("Client"))
	assert.False(t, tables.Exported("other"))

	// export strings count as usages
	apiDefs := defsNamed(tables, "api")
	require.Len(t, apiDefs, 1)
	assert.True(t, tables.IsUsed(apiDefs[0].Scope, "api"))
}

func TestDynamicDunderAllIsIgnored(t *testing.T) {
	tables := bind(t, "__all__ = [\"a\"]\n__all__ += [\"b\"]\n")
	assert.False(t, tables.ExportsOK, "a += onto __all__ makes the export set non-authoritative")
	assert.False(t, tables.Exported("a"))
}

func TestFStringScrapesIdentifiers(t *testing.T) {
	tables := bind(t, "name = \"x\"\ngreeting = f\"hello {name}!\"\nprint(greeting)\n")

	nameDefs := defsNamed(tables, "name")
	require.Len(t, nameDefs, 1)
	assert.True(t, tables.IsUsed(nameDefs[0].Scope, "name"),
		"identifier inside an f-string counts as a potential usage")
}

func TestReflectiveScope(t *testing.T) {
	tables := bind(t, "def dump():\n    x = 1\n    return locals()\n")

	xDefs := defsNamed(tables, "x")
	require.Len(t, xDefs, 1)
	assert.True(t, tables.Scopes[xDefs[0].Scope].Reflective)
}

func TestAttributeBaseOnlyCountsAsUsage(t *testing.T) {
	tables := bind(t, "import json\ndata = json.loads(\"{}\")\nprint(data)\n")

	jsonDefs := defsNamed(tables, "json")
	require.Len(t, jsonDefs, 1)
	assert.True(t, tables.IsUsed(jsonDefs[0].Scope, "json"))

	for _, u := range tables.Uses {
		assert.NotEqual(t, "loads", u.Name, "attribute tails must not contribute usages")
	}
}

func TestTypeCheckingGuardDetection(t *testing.T) {
	tables := bind(t, "from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import heavy\n")

	heavyDefs := defsNamed(tables, "heavy")
	require.Len(t, heavyDefs, 1)
	assert.True(t, tables.InsideTypeCheckingGuard(heavyDefs[0].Stmt))

	tcDefs := defsNamed(tables, "TYPE_CHECKING")
	require.Len(t, tcDefs, 1)
	assert.False(t, tables.InsideTypeCheckingGuard(tcDefs[0].Stmt))
}

func TestTupleUnpackingGroups(t *testing.T) {
	tables := bind(t, "def f(pair):\n    a, b = pair\n    return a\n")

	aDefs := defsNamed(tables, "a")
	bDefs := defsNamed(tables, "b")
	require.Len(t, aDefs, 1)
	require.Len(t, bDefs, 1)
	assert.NotZero(t, aDefs[0].Group)
	assert.Equal(t, aDefs[0].Group, bDefs[0].Group)
}
