package rules

import (
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/project"
)

func init() {
	project.Register(UnusedClass)
}

// UnusedClass flags class definitions no file in the project
// references.
var UnusedClass = project.Rule{
	ID:          "RP004",
	Name:        "project.unused_class",
	Group:       "project",
	Description: "Class is never referenced by any file in the project.",
	Severity:    lint.SeverityWarning,
	Check:       checkUnusedClass,
}

func checkUnusedClass(ctx *project.Context) []lint.Diagnostic {
	return checkUnusedDefs(ctx, project.DefClass, "RP004", lint.SeverityWarning,
		"class `%s` is defined but never used")
}
