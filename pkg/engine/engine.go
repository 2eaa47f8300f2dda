// Package engine orchestrates the two-pass analysis: every file runs
// buffer → lex → parse → bind → per-file checks as one data-parallel
// task, then a single-threaded merge pass decides the project-wide
// rules and the sink applies suppression, dedupe, and ordering.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"github.com/reap-dev/reap/internal/suppress"
	"github.com/reap-dev/reap/pkg/binder"
	"github.com/reap-dev/reap/pkg/lexer"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
	"github.com/reap-dev/reap/pkg/lint/project"
	"github.com/reap-dev/reap/pkg/parser"
	"github.com/reap-dev/reap/pkg/source"
)

// SyntaxRuleID is the code carried by lex/parse/internal-error
// diagnostics. Unlike the RP0NN rules it cannot be selected away: a
// file that fails to parse always says so.
const SyntaxRuleID = "RP000"

// Config configures an analysis run.
type Config struct {
	// Select limits which rule codes run; empty means all.
	Select []string

	// RuleOptions carries per-rule configuration keyed by rule ID
	// (e.g. RP003's exempt_decorators list).
	RuleOptions map[string]map[string]any

	// Workers bounds file-level parallelism; 0 means GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Engine runs analyses. It is stateless between runs; the project
// tables built during a run are discarded once the merge completes.
type Engine struct {
	cfg      Config
	selected map[string]bool
	logger   *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var selected map[string]bool
	if len(cfg.Select) > 0 {
		selected = make(map[string]bool, len(cfg.Select))
		for _, id := range cfg.Select {
			selected[id] = true
		}
	}
	return &Engine{cfg: cfg, selected: selected, logger: logger}
}

// Source is one file's content, read before task dispatch so no I/O
// interleaves with analysis.
type Source struct {
	Path    string
	Content []byte
}

// Result is the outcome of one analysis run.
type Result struct {
	Diagnostics []lint.Diagnostic
	Files       int
}

// Run reads the given files and analyzes them. An unreadable file
// aborts the run with an error, per the I/O row of the error taxonomy.
func (e *Engine) Run(ctx context.Context, paths []string) (*Result, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		sources = append(sources, Source{Path: p, Content: decode(raw)})
	}
	return e.RunSources(ctx, sources)
}

// fileResult is one task's contribution: local diagnostics plus the
// exported defs/usages the merge pass consumes, written into a
// task-local slot so no locking is needed during analysis.
type fileResult struct {
	path        string
	diagnostics []lint.Diagnostic
	defs        []project.Def
	uses        []project.Use
	matcher     *suppress.Matcher
}

// RunSources analyzes in-memory sources: one goroutine per file, then
// the single-threaded merge and sink.
func (e *Engine) RunSources(ctx context.Context, sources []Source) (*Result, error) {
	results := make([]fileResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.analyzeFile(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// merge pass: concatenate every task's contributions, then decide
	// the cross-file rules
	var allDefs []project.Def
	var allUses []project.Use
	var diags []lint.Diagnostic
	matchers := make(map[string]*suppress.Matcher, len(results))
	for _, r := range results {
		allDefs = append(allDefs, r.defs...)
		allUses = append(allUses, r.uses...)
		diags = append(diags, r.diagnostics...)
		matchers[r.path] = r.matcher
	}

	pctx := project.NewContext(allDefs, allUses)
	pctx.Options = e.cfg.RuleOptions
	for _, rule := range project.All() {
		if !e.ruleSelected(rule.ID) {
			continue
		}
		diags = append(diags, rule.Check(pctx)...)
	}

	// sink: suppression, coalescing, total order
	kept := diags[:0]
	for _, d := range diags {
		if m := matchers[d.File]; m != nil && m.Suppressed(d.Line, d.RuleID) {
			continue
		}
		kept = append(kept, d)
	}
	kept = lint.Dedupe(kept)
	lint.Sort(kept)

	e.logger.Debug("analysis complete", "files", len(sources), "diagnostics", len(kept))
	return &Result{Diagnostics: kept, Files: len(sources)}, nil
}

// analyzeFile runs the whole per-file pipeline. A panic anywhere inside
// is recovered (at this task boundary, or in the panicking checker's
// own goroutine) and converted into an RP000 diagnostic, so a bug in
// one checker for one file never aborts the run.
func (e *Engine) analyzeFile(src Source) (result fileResult) {
	result.path = src.Path
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("checker panic", "path", src.Path, "panic", r)
			result.diagnostics = append(result.diagnostics, lint.Diagnostic{
				File: src.Path, Line: 1, Col: 1,
				RuleID:   SyntaxRuleID,
				Severity: lint.SeverityError,
				Message:  fmt.Sprintf("internal error while analyzing file: %v", r),
			})
		}
	}()

	buf := source.New(src.Path, src.Content)
	toks, lexErrs := lexer.Tokenize(buf)
	result.matcher = suppress.New(buf, toks)

	res := parser.Parse(buf, toks)

	for _, lerr := range lexErrs {
		result.diagnostics = append(result.diagnostics, lint.Diagnostic{
			File: src.Path, Line: lerr.Pos.Line, Col: lerr.Pos.Column,
			RuleID:   SyntaxRuleID,
			Severity: lint.SeverityError,
			Message:  lerr.Message,
		})
	}
	for _, perr := range res.Errors {
		result.diagnostics = append(result.diagnostics, lint.Diagnostic{
			File: src.Path, Line: perr.Pos.Line, Col: perr.Pos.Column,
			RuleID:   SyntaxRuleID,
			Severity: lint.SeverityError,
			Message:  fmt.Sprintf("syntax error: %s", perr.Message),
		})
	}

	tables := binder.Bind(buf, res.Tree)
	fctx := &file.Context{Path: src.Path, Buf: buf, Tree: res.Tree, Tables: tables}

	// checkers share only the immutable tree and tables, so they run
	// concurrently even within one file
	rules := file.All()
	perRule := make([][]lint.Diagnostic, len(rules))
	var wg sync.WaitGroup
	for i, rule := range rules {
		if !e.ruleSelected(rule.ID) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("checker panic", "path", src.Path, "rule", rule.ID, "panic", r)
					perRule[i] = []lint.Diagnostic{{
						File: src.Path, Line: 1, Col: 1,
						RuleID:   SyntaxRuleID,
						Severity: lint.SeverityError,
						Message:  fmt.Sprintf("internal error in %s while analyzing file: %v", rule.ID, r),
					}}
				}
			}()
			if opts, ok := e.cfg.RuleOptions[rule.ID]; ok {
				ruleCtx := *fctx
				ruleCtx.Options = opts
				perRule[i] = rule.Check(&ruleCtx)
			} else {
				perRule[i] = rule.Check(fctx)
			}
		}()
	}
	wg.Wait()
	for _, d := range perRule {
		result.diagnostics = append(result.diagnostics, d...)
	}

	result.defs, result.uses = project.Collect(src.Path, buf, tables)
	return result
}

func (e *Engine) ruleSelected(id string) bool {
	if e.selected == nil {
		return true
	}
	return e.selected[id]
}

// decode returns UTF-8 text for raw file bytes, falling back to a
// Latin-1 reinterpretation for files that are not valid UTF-8 so the
// lexer never sees broken rune boundaries.
func decode(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return out
}
