package config

import (
	"fmt"
	"os"

	"go.starlark.net/starlark"
)

// applyPolicy evaluates the optional Starlark policy file and merges
// its globals into cfg as project-level defaults: explicit
// configuration from yaml, environment, or flags always wins.
//
// A policy file may define, as top-level globals:
//
//	select = ["RP001", "RP003"]
//	exclude = ["migrations"]
//	project_entry_point_decorators = ["route", "command", "task"]
//
// The last is the configurable decorator allow-list for the
// project-wide unused-definition rules.
func applyPolicy(cfg *Config) error {
	path := cfg.Policy
	if path == "" {
		if _, err := os.Stat(DefaultPolicyFile); err != nil {
			return nil
		}
		path = DefaultPolicyFile
	}

	thread := &starlark.Thread{Name: "reap-policy"}
	globals, err := starlark.ExecFile(thread, path, nil, nil)
	if err != nil {
		return fmt.Errorf("evaluating policy %s: %w", path, err)
	}

	if len(cfg.Select) == 0 {
		if v, err := stringList(globals, "select"); err != nil {
			return fmt.Errorf("policy %s: %w", path, err)
		} else if v != nil {
			cfg.Select = v
		}
	}
	if len(cfg.Exclude) == 0 {
		if v, err := stringList(globals, "exclude"); err != nil {
			return fmt.Errorf("policy %s: %w", path, err)
		} else if v != nil {
			cfg.Exclude = v
		}
	}

	decorators, err := stringList(globals, "project_entry_point_decorators")
	if err != nil {
		return fmt.Errorf("policy %s: %w", path, err)
	}
	if decorators != nil {
		if cfg.Rules == nil {
			cfg.Rules = make(map[string]RuleOptions)
		}
		for _, id := range []string{"RP003", "RP004"} {
			opts := cfg.Rules[id]
			if len(opts.ExemptDecorators) == 0 {
				opts.ExemptDecorators = decorators
				cfg.Rules[id] = opts
			}
		}
	}
	return nil
}

// stringList reads a global as a list of strings; a missing global
// returns nil without error.
func stringList(globals starlark.StringDict, name string) ([]string, error) {
	v, ok := globals[name]
	if !ok {
		return nil, nil
	}
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("global %q must be a list of strings, got %s", name, v.Type())
	}
	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, fmt.Errorf("global %q must contain only strings", name)
		}
		out = append(out, s)
	}
	return out, nil
}
