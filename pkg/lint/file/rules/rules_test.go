package rules_test

import (
	"testing"

	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
	_ "github.com/reap-dev/reap/pkg/lint/file/rules"
	"github.com/reap-dev/reap/pkg/parser"
	"github.com/reap-dev/reap/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check runs a single rule against one source file.
func check(t *testing.T, ruleID, src string) []lint.Diagnostic {
	t.Helper()
	buf := source.New("test.py", []byte(src))
	toks, _ := lexer.Tokenize(buf)
	res := parser.Parse(buf, toks)
	tables := binder.Bind(buf, res.Tree)
	rule, ok := file.Get(ruleID)
	require.True(t, ok, "rule %s not registered", ruleID)
	return rule.Check(&file.Context{Path: "test.py", Buf: buf, Tree: res.Tree, Tables: tables})
}

// --- RP001 ---

func TestRP001UnusedImport(t *testing.T) {
	diags := check(t, "RP001", "import os\nimport json\nprint(json.loads('{}'))\n")
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 8, diags[0].Col)
	assert.Contains(t, diags[0].Message, "`os`")
}

func TestRP001FromImportAlias(t *testing.T) {
	diags := check(t, "RP001", "from collections import OrderedDict as OD\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "OrderedDict as OD")
}

func TestRP001Exemptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"used via attribute", "import os\nprint(os.sep)\n"},
		{"in __all__", "import os\n__all__ = ['os']\n"},
		{"type-checking guard", "from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import heavy\n"},
		{"future import", "from __future__ import annotations\n"},
		{"star import", "from os import *\n"},
		{"re-export", "from api import Client as Client\n"},
		{"used in f-string", "import os\npath = f\"{os.sep}tmp\"\nprint(path)\n"},
		{"used in annotation", "from typing import List\ndef f() -> List:\n    return []\nf()\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, check(t, "RP001", tt.src))
		})
	}
}

// --- RP002 ---

func TestRP002UnusedLocal(t *testing.T) {
	diags := check(t, "RP002", "def f():\n    x = 1\n    return 0\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`x`")
	assert.Equal(t, 2, diags[0].Line)
}

func TestRP002SelfReferencingAssign(t *testing.T) {
	diags := check(t, "RP002", "def f():\n    x = x + 1\n")
	require.Len(t, diags, 1, "x = x + 1 with no later read is still a dead store")
}

func TestRP002Exemptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"used later", "def f():\n    x = 1\n    return x\n"},
		{"underscore", "def f():\n    _ignored = compute()\n"},
		{"module level", "x = 1\n"},
		{"aug assign", "def f():\n    total = 0\n    total += 1\n"},
		{"locals() in scope", "def f():\n    x = 1\n    return locals()\n"},
		{"vars() in scope", "def f():\n    x = 1\n    return vars()\n"},
		{"unpacking with used sibling", "def f(pair):\n    a, b = pair\n    return a\n"},
		{"used by closure", "def f():\n    x = 1\n    def g():\n        return x\n    return g\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, check(t, "RP002", tt.src))
		})
	}
}

func TestRP002UnpackingAllUnused(t *testing.T) {
	diags := check(t, "RP002", "def f(pair):\n    a, b = pair\n    return 0\n")
	assert.Len(t, diags, 2, "fully-unused unpacking reports every component")
}

// --- RP005 ---

func TestRP005AfterReturn(t *testing.T) {
	diags := check(t, "RP005", "def f():\n    return 1\n    x = 2\n")
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Line)
}

func TestRP005CrossArmIndependence(t *testing.T) {
	src := "def f(x):\n    match x:\n        case 1: return 1\n        case _: return 0\n"
	assert.Empty(t, check(t, "RP005", src))
}

func TestRP005ExhaustiveIf(t *testing.T) {
	src := "def f(x):\n    if x:\n        return 1\n    else:\n        return 2\n    print(x)\n"
	diags := check(t, "RP005", src)
	require.Len(t, diags, 1)
	assert.Equal(t, 6, diags[0].Line)
}

func TestRP005NonExhaustiveIf(t *testing.T) {
	src := "def f(x):\n    if x:\n        return 1\n    return 2\n"
	assert.Empty(t, check(t, "RP005", src))
}

func TestRP005ExhaustiveMatchFollowedByCode(t *testing.T) {
	src := "def f(x):\n    match x:\n        case 1:\n            return 1\n        case _:\n            return 0\n    print(x)\n"
	diags := check(t, "RP005", src)
	require.Len(t, diags, 1)
	assert.Equal(t, 7, diags[0].Line)
}

func TestRP005TryFinallyTerminates(t *testing.T) {
	src := "def f():\n    try:\n        risky()\n    finally:\n        return 0\n    print(1)\n"
	diags := check(t, "RP005", src)
	require.Len(t, diags, 1)
	assert.Equal(t, 6, diags[0].Line)
}

func TestRP005BreakInLoop(t *testing.T) {
	src := "def f(xs):\n    for x in xs:\n        break\n        print(x)\n"
	diags := check(t, "RP005", src)
	require.Len(t, diags, 1)
	assert.Equal(t, 4, diags[0].Line)
}

func TestRP005LoopBodyDoesNotTerminateBlock(t *testing.T) {
	src := "def f(xs):\n    for x in xs:\n        return x\n    return None\n"
	assert.Empty(t, check(t, "RP005", src))
}

// --- RP006 ---

func TestRP006FalsyLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"False", "if False:\n    x = 1\n"},
		{"None", "if None:\n    x = 1\n"},
		{"zero", "if 0:\n    x = 1\n"},
		{"empty string", "if \"\":\n    x = 1\n"},
		{"empty list", "if []:\n    x = 1\n"},
		{"elif False", "if cond():\n    pass\nelif False:\n    x = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := check(t, "RP006", tt.src)
			require.Len(t, diags, 1)
		})
	}
}

func TestRP006FalseAtLineOne(t *testing.T) {
	diags := check(t, "RP006", "if False:\n    x = 1\n")
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
}

func TestRP006TruthyConditionNotReported(t *testing.T) {
	assert.Empty(t, check(t, "RP006", "if True:\n    x = 1\n"))
	assert.Empty(t, check(t, "RP006", "if DEBUG:\n    x = 1\n"))
}

func TestRP006ElseOfConstantTrue(t *testing.T) {
	diags := check(t, "RP006", "if True:\n    x = 1\nelse:\n    y = 2\n")
	require.Len(t, diags, 1)
}

func TestRP006WhileFalse(t *testing.T) {
	diags := check(t, "RP006", "while False:\n    x = 1\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "loop body")
}

func TestRP006TypeChecking(t *testing.T) {
	diags := check(t, "RP006", "from typing import TYPE_CHECKING\nif TYPE_CHECKING:\n    import heavy\n")
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Line)
}

// --- RP007 ---

func TestRP007RedefinedBeforeUse(t *testing.T) {
	diags := check(t, "RP007", "import json\njson = None\nprint(json)\n")
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Line)
}

func TestRP007ReadBetweenKeepsImport(t *testing.T) {
	assert.Empty(t, check(t, "RP007", "import json\nprint(json.dumps({}))\njson = None\n"))
}

func TestRP007DifferentScopeDoesNotShadow(t *testing.T) {
	assert.Empty(t, check(t, "RP007", "import json\ndef f():\n    json = 1\n    return json\nprint(json)\n"))
}

// --- RP008 ---

func TestRP008UnusedArgument(t *testing.T) {
	diags := check(t, "RP008", "def f(x, timeout):\n    return x\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`timeout`")
}

func TestRP008Exemptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"underscore prefix", "def f(x, _timeout):\n    return x\n"},
		{"self in method", "class C:\n    def area(self):\n        return 4\n"},
		{"cls in classmethod", "class C:\n    @classmethod\n    def make(cls):\n        return 1\n"},
		{"varargs", "def f(*args, **kwargs):\n    return 0\n"},
		{"pass stub", "def handler(event, context):\n    pass\n"},
		{"ellipsis stub", "def handler(event):\n    ...\n"},
		{"not implemented stub", "def handler(event):\n    raise NotImplementedError\n"},
		{"docstring then stub", "def handler(event):\n    \"\"\"Handle.\"\"\"\n    pass\n"},
		{"abstractmethod", "class C:\n    @abc.abstractmethod\n    def run(self, payload):\n        return None\n"},
		{"lambda", "f = lambda unused: 0\nf(1)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, check(t, "RP008", tt.src))
		})
	}
}

func TestRP008SelfOutsideClassIsFlagged(t *testing.T) {
	diags := check(t, "RP008", "def f(self):\n    return 1\n")
	require.Len(t, diags, 1)
}

func TestRP008PropertyDoesNotExempt(t *testing.T) {
	diags := check(t, "RP008", "class C:\n    @property\n    def name(self, extra):\n        return 1\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`extra`")
}

// --- RP009 ---

func TestRP009UnusedLoopVariable(t *testing.T) {
	diags := check(t, "RP009", "def f(items):\n    for item in items:\n        print(\"tick\")\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`item`")
}

func TestRP009Exemptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"used in body", "def f(items):\n    for item in items:\n        print(item)\n"},
		{"underscore", "def f(items):\n    for _ in items:\n        print(\"tick\")\n"},
		{"underscore prefixed", "def f(items):\n    for _item in items:\n        print(\"tick\")\n"},
		{"tuple partially used", "def f(pairs):\n    for key, value in pairs:\n        print(key)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, check(t, "RP009", tt.src))
		})
	}
}

func TestRP009TupleAllUnused(t *testing.T) {
	diags := check(t, "RP009", "def f(pairs):\n    for key, value in pairs:\n        print(\"tick\")\n")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "`key`")
	assert.Contains(t, diags[0].Message, "`value`")
}
