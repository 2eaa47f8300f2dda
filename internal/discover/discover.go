// Package discover walks the given paths for target-language source
// files, honoring the project ignore file and a fixed auto-exclude
// list of directories no one wants linted.
package discover

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreFileName is the project-root ignore file: one glob pattern per
// line, '#' comments allowed.
const IgnoreFileName = ".reapignore"

// Extension is the target-language source extension.
const Extension = ".py"

// autoExclude lists directory names skipped regardless of
// configuration: version control, virtual environments, caches, and
// build output. Directories named *.egg-info are skipped as well.
var autoExclude = map[string]bool{
	".git":               true,
	".hg":                true,
	".svn":               true,
	"venv":               true,
	".venv":              true,
	"env":                true,
	"__pycache__":        true,
	".mypy_cache":        true,
	".pytest_cache":      true,
	".ruff_cache":        true,
	".tox":               true,
	"node_modules":       true,
	"dist":               true,
	"build":              true,
	".eggs":              true,
	"site-packages":      true,
	".ipynb_checkpoints": true,
}

// Options configures a discovery walk.
type Options struct {
	// Exclude lists extra names: any path component equal to one of
	// them is skipped.
	Exclude []string
}

// Discover expands paths (files or directories) into the sorted,
// deduplicated list of source files to analyze. Explicitly named files
// are always included, whatever their extension.
func Discover(paths []string, opts Options) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}

		ignores, err := loadIgnoreFile(filepath.Join(root, IgnoreFileName))
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && (autoExclude[name] || strings.HasSuffix(name, ".egg-info") || excluded[name] || matchAny(ignores, rel)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(name, Extension) {
				return nil
			}
			if excluded[name] || matchAny(ignores, rel) {
				return nil
			}
			add(filepath.Clean(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// loadIgnoreFile reads and compiles the ignore file's glob patterns.
// A missing file is not an error; a malformed pattern is.
func loadIgnoreFile(path string) ([]glob.Glob, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var globs []glob.Glob
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g, err := glob.Compile(line, '/')
		if err != nil {
			return nil, fmt.Errorf("%s: bad pattern %q: %w", path, line, err)
		}
		globs = append(globs, g)
	}
	return globs, scanner.Err()
}

func matchAny(globs []glob.Glob, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
