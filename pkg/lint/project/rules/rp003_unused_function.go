// Package rules implements the cross-file dead-code checkers, decided
// against the merged project tables. Importing this package for side
// effects registers them with pkg/lint/project's registry.
package rules

import (
	"strings"

	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/project"
)

func init() {
	project.Register(UnusedFunction)
}

// UnusedFunction flags function definitions no file in the project
// references. A function called only recursively from its own body is
// still unused.
var UnusedFunction = project.Rule{
	ID:          "RP003",
	Name:        "project.unused_function",
	Group:       "project",
	Description: "Function is never referenced by any file in the project.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedFunction,
}

func checkUnusedFunction(ctx *project.Context) []lint.Diagnostic {
	return checkUnusedDefs(ctx, project.DefFunction, "RP003", lint.SeverityWarning,
		"function `%s` is defined but never used")
}

// checkUnusedDefs is the shared body of RP003/RP004: the two rules
// differ only in which definition kind they inspect.
func checkUnusedDefs(ctx *project.Context, kind project.DefKind, id string, sev lint.Severity, format string) []lint.Diagnostic {
	exempt, _ := ctx.Options[id]["exempt_decorators"].([]string)

	var diags []lint.Diagnostic
	for _, defs := range ctx.Defs() {
		for _, d := range defs {
			if d.Kind != kind {
				continue
			}
			if exemptName(d.Name) {
				continue
			}
			if d.Exported {
				continue
			}
			if project.ExemptByDecorators(d, exempt) {
				continue
			}
			if ctx.Alive(d) {
				continue
			}
			diags = append(diags, ctx.Diagnostic(id, sev, d, format, d.Name))
		}
	}
	return diags
}

// exemptName covers conventional entry points no caller references by
// name: scripts' main, test functions discovered by test runners, and
// the unittest setup/teardown family. Leading-underscore names are
// intentionally private and never flagged.
func exemptName(name string) bool {
	if strings.HasPrefix(name, "_") {
		return true
	}
	if name == "main" || strings.HasPrefix(name, "test_") {
		return true
	}
	switch name {
	case "setup", "teardown", "setUp", "tearDown",
		"setUpClass", "tearDownClass", "setUpModule", "tearDownModule":
		return true
	}
	return false
}
