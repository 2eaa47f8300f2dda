// Package config loads reap's layered configuration: built-in
// defaults, then reap.yaml, then REAP_-prefixed environment variables,
// then CLI flags, each overriding the last. An optional Starlark
// policy file supplies project-level defaults for anything the layers
// above left unset.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultPolicyFile is the Starlark policy looked for next to the
// config file when no explicit path is configured.
const DefaultPolicyFile = "policy.star"

// RuleOptions holds per-rule configuration.
type RuleOptions struct {
	// ExemptDecorators narrows the decorator exemption for the
	// project-wide rules: when set, only definitions carrying one of
	// these decorators are exempt. When empty, any decorator exempts.
	ExemptDecorators []string `koanf:"exempt_decorators"`
}

// Config is the resolved configuration for one invocation.
type Config struct {
	Select     []string               `koanf:"select"`
	Exclude    []string               `koanf:"exclude"`
	JSON       bool                   `koanf:"json"`
	NoExitCode bool                   `koanf:"no-exit-code"`
	Verbose    bool                   `koanf:"verbose"`
	Policy     string                 `koanf:"policy"`
	History    string                 `koanf:"history"`
	Rules      map[string]RuleOptions `koanf:"rules"`
}

// RuleOptionMap converts the typed rule options into the generic map
// the engine's rule dispatch consumes.
func (c *Config) RuleOptionMap() map[string]map[string]any {
	if len(c.Rules) == 0 {
		return nil
	}
	out := make(map[string]map[string]any, len(c.Rules))
	for id, opts := range c.Rules {
		out[id] = map[string]any{"exempt_decorators": opts.ExemptDecorators}
	}
	return out
}

// findConfigFile finds the config file to use.
// Priority: explicit path > reap.yaml > reap.yml > .reap.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"reap.yaml", "reap.yml", ".reap.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves configuration from every layer. flags may be nil.
func Load(explicitPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"select":       []string{},
		"exclude":      []string{},
		"json":         false,
		"no-exit-code": false,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(explicitPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("REAP_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "REAP_"))
		return strings.ReplaceAll(key, "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// comma-joined values arrive as single elements from env/flags
	cfg.Select = splitAll(cfg.Select)
	cfg.Exclude = splitAll(cfg.Exclude)

	if err := applyPolicy(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitAll expands comma-separated entries and trims whitespace.
func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
