// Package loader builds a fully type-checked view of a Go module for
// the analysis passes. A Program is immutable once loaded and safe for
// concurrent readers.
package loader

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"
)

// Config controls which module is loaded and how.
type Config struct {
	// Dir is the directory the load runs in, typically the module root.
	// Defaults to the current directory.
	Dir string

	// Patterns are the package patterns passed to the build system.
	// Defaults to ./... so the whole module is in scope.
	Patterns []string

	// BuildFlags are extra flags for the underlying build system.
	BuildFlags []string

	// Env is appended to the current process environment for the load.
	Env []string

	// Tests includes test packages in the load.
	Tests bool
}

// loadMode requests syntax and full type information for the matched
// packages and their dependencies, so documentation on imported types
// stays reachable.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Program is a type-checked snapshot of a module.
type Program struct {
	fset   *token.FileSet
	pkgs   []*packages.Package
	byPath map[string]*packages.Package
	dir    string
}

// Load type-checks the module selected by cfg. Any parse, type, or
// load error fails the whole load; callers never see a partial
// Program.
func Load(ctx context.Context, cfg Config) (*Program, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve dir %s: %w", dir, err)
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	fset := token.NewFileSet()
	pcfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        abs,
		Fset:       fset,
		Tests:      cfg.Tests,
		BuildFlags: cfg.BuildFlags,
		// Comments carry the documentation this tool exists to read,
		// so parsing always retains them.
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			const mode = parser.ParseComments | parser.AllErrors | parser.SkipObjectResolution
			return parser.ParseFile(fset, filename, src, mode)
		},
	}
	if len(cfg.Env) > 0 {
		pcfg.Env = append(os.Environ(), cfg.Env...)
	}

	roots, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loader: load %v: %w", patterns, err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("loader: no packages matched %v in %s", patterns, abs)
	}

	// Dependencies are kept alongside the roots so declarations and
	// doc comments on imported types stay resolvable.
	var (
		pkgs     []*packages.Package
		loadErrs []packages.Error
	)
	packages.Visit(roots, nil, func(pkg *packages.Package) {
		pkgs = append(pkgs, pkg)
		loadErrs = append(loadErrs, pkg.Errors...)
	})
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("loader: %d error(s) loading %v, first: %w", len(loadErrs), patterns, loadErrs[0])
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	byPath := make(map[string]*packages.Package, len(pkgs))
	for _, pkg := range pkgs {
		byPath[pkg.PkgPath] = pkg
	}
	return &Program{fset: fset, pkgs: pkgs, byPath: byPath, dir: abs}, nil
}

// Dir returns the absolute directory the load ran in.
func (p *Program) Dir() string { return p.dir }

// Fset returns the file set shared by every loaded file.
func (p *Program) Fset() *token.FileSet { return p.fset }

// Packages returns the loaded packages sorted by import path.
func (p *Program) Packages() []*packages.Package { return p.pkgs }

// Package returns the loaded package with the given import path.
func (p *Program) Package(path string) (*packages.Package, bool) {
	pkg, ok := p.byPath[path]
	return pkg, ok
}

// Match returns the packages selected by pattern. A pattern is an
// import path, a directory relative to the load dir, or either form
// with a trailing /... wildcard.
func (p *Program) Match(pattern string) []*packages.Package {
	if pattern == "" || pattern == "." {
		return p.Under(".")
	}
	if base, ok := strings.CutSuffix(pattern, "/..."); ok {
		if isDirPattern(base) {
			return p.Under(base)
		}
		var out []*packages.Package
		for _, pkg := range p.pkgs {
			if pkg.PkgPath == base || strings.HasPrefix(pkg.PkgPath, base+"/") {
				out = append(out, pkg)
			}
		}
		return out
	}
	if pkg, ok := p.byPath[pattern]; ok {
		return []*packages.Package{pkg}
	}
	if isDirPattern(pattern) {
		abs := p.abs(pattern)
		var out []*packages.Package
		for _, pkg := range p.pkgs {
			if dir, ok := pkgDir(pkg); ok && dir == abs {
				out = append(out, pkg)
			}
		}
		return out
	}
	return nil
}

// Under returns the packages whose sources live in or below dir,
// resolved relative to the load dir. Results keep the import path
// order of Packages.
func (p *Program) Under(dir string) []*packages.Package {
	abs := p.abs(dir)
	var out []*packages.Package
	for _, pkg := range p.pkgs {
		d, ok := pkgDir(pkg)
		if !ok {
			continue
		}
		if d == abs || strings.HasPrefix(d, abs+string(filepath.Separator)) {
			out = append(out, pkg)
		}
	}
	return out
}

// FileFor returns the syntax tree and package containing pos.
func (p *Program) FileFor(pos token.Pos) (*ast.File, *packages.Package, bool) {
	if !pos.IsValid() {
		return nil, nil, false
	}
	for _, pkg := range p.pkgs {
		for _, f := range pkg.Syntax {
			if f.FileStart <= pos && pos <= f.FileEnd {
				return f, pkg, true
			}
		}
	}
	return nil, nil, false
}

// PathTo returns the AST path enclosing obj's declaring identifier,
// innermost node first, along with the package the syntax belongs to.
func (p *Program) PathTo(obj types.Object) ([]ast.Node, *packages.Package, bool) {
	file, pkg, ok := p.FileFor(obj.Pos())
	if !ok {
		return nil, nil, false
	}
	path, _ := astutil.PathEnclosingInterval(file, obj.Pos(), obj.Pos())
	if len(path) == 0 {
		return nil, nil, false
	}
	return path, pkg, true
}

// Position resolves pos against the shared file set.
func (p *Program) Position(pos token.Pos) token.Position {
	return p.fset.Position(pos)
}

// Rel returns path relative to the load dir when it lies inside it,
// in slash form for stable human-facing output.
func (p *Program) Rel(path string) string {
	rel, err := filepath.Rel(p.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (p *Program) abs(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(p.dir, dir)
}

// pkgDir returns the directory holding the package's sources.
func pkgDir(pkg *packages.Package) (string, bool) {
	if len(pkg.GoFiles) > 0 {
		return filepath.Dir(pkg.GoFiles[0]), true
	}
	if len(pkg.CompiledGoFiles) > 0 {
		return filepath.Dir(pkg.CompiledGoFiles[0]), true
	}
	return "", false
}

func isDirPattern(s string) bool {
	return s == "." || s == ".." ||
		strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		filepath.IsAbs(s)
}
