// Package scan locates the exported instances of designated factory
// calls across a type-checked program.
//
// A factory is an exported function in a configured entry package.
// An instance is an exported package-level var whose initializer,
// possibly through a chain of var re-exports, is a call to one of the
// factories. Matching is by type-checker object identity, never by
// name, so wrapper functions with the same name do not match.
package scan

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/jward/refdoc/internal/loader"
)

const defaultMaxAliasDepth = 16

// Factory is a resolved factory function.
type Factory struct {
	Name string
	Pkg  *packages.Package
	Obj  *types.Func
}

// Instance is one exported factory call discovered in the program.
type Instance struct {
	// Name is the exported identifier naming the handle.
	Name string

	// Pkg declares the identifier; Obj, Ident, Spec, and Decl describe
	// the declaration itself.
	Pkg   *packages.Package
	Obj   types.Object
	Ident *ast.Ident
	Spec  *ast.ValueSpec
	Decl  *ast.GenDecl

	// Call is the originating factory call after alias chasing, and
	// CallPkg the package whose type info covers it.
	Call    *ast.CallExpr
	CallPkg *packages.Package

	// Factory the call resolves to.
	Factory Factory

	// Depth is the number of re-export links followed to reach Call.
	// Zero means the var is initialized by the call directly.
	Depth int
}

// Scanner discovers factory instances in a Program.
type Scanner struct {
	prog     *loader.Program
	maxDepth int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxAliasDepth bounds how many re-export links a lookup follows
// before failing with a CycleError.
func WithMaxAliasDepth(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// New returns a Scanner over prog.
func New(prog *loader.Program, opts ...Option) *Scanner {
	s := &Scanner{prog: prog, maxDepth: defaultMaxAliasDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory resolves the exported factory name within the entry pattern.
// The entry may be an import path, a relative directory, or either
// form with a trailing /... wildcard.
func (s *Scanner) Factory(entry, name string) (Factory, error) {
	pkgs := s.prog.Match(entry)
	if len(pkgs) == 0 {
		return Factory{}, fmt.Errorf("scan: entry %q matched no loaded packages", entry)
	}

	var found []Factory
	for _, pkg := range pkgs {
		obj := pkg.Types.Scope().Lookup(name)
		if obj == nil || !obj.Exported() {
			continue
		}
		fn, err := s.chaseToFunc(obj, name)
		if err != nil {
			return Factory{}, err
		}
		if fn == nil {
			continue
		}
		found = append(found, Factory{Name: name, Pkg: pkg, Obj: fn})
	}
	if len(found) == 0 {
		return Factory{}, &NotFoundError{Name: name, Entry: entry}
	}
	first := found[0]
	for _, f := range found[1:] {
		if f.Obj != first.Obj {
			return Factory{}, &AmbiguousError{Name: name, Positions: []string{
				s.prog.Position(first.Obj.Pos()).String(),
				s.prog.Position(f.Obj.Pos()).String(),
			}}
		}
	}
	return first, nil
}

// Instances scans dirs for exported package-level declarations whose
// initializer reaches one of the factories. Results keep scan order:
// packages by import path, files in compile order, declarations in
// source order. Any unresolvable chain aborts the whole scan.
func (s *Scanner) Instances(factories []Factory, dirs []string) ([]Instance, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	byObj := make(map[*types.Func]Factory, len(factories))
	for _, f := range factories {
		byObj[f.Obj] = f
	}

	var scanPkgs []*packages.Package
	seenPkg := make(map[string]bool)
	for _, dir := range dirs {
		for _, pkg := range s.prog.Under(dir) {
			if seenPkg[pkg.PkgPath] || isInternal(pkg.PkgPath) {
				continue
			}
			seenPkg[pkg.PkgPath] = true
			scanPkgs = append(scanPkgs, pkg)
		}
	}
	sort.Slice(scanPkgs, func(i, j int) bool { return scanPkgs[i].PkgPath < scanPkgs[j].PkgPath })

	var out []Instance
	byCall := make(map[token.Pos]int)
	for _, pkg := range scanPkgs {
		for _, file := range pkg.Syntax {
			for _, d := range file.Decls {
				gen, ok := d.(*ast.GenDecl)
				if !ok || gen.Tok != token.VAR {
					continue
				}
				for _, sp := range gen.Specs {
					vs, ok := sp.(*ast.ValueSpec)
					if !ok {
						continue
					}
					for _, ident := range vs.Names {
						if !ident.IsExported() {
							continue
						}
						inst, err := s.instanceFor(pkg, gen, vs, ident, byObj)
						if err != nil {
							return nil, err
						}
						if inst == nil {
							continue
						}
						if i, dup := byCall[inst.Call.Pos()]; dup {
							// Another export already reaches this call; the
							// most direct declaration names the entity.
							if inst.Depth < out[i].Depth {
								out[i] = *inst
							}
							continue
						}
						byCall[inst.Call.Pos()] = len(out)
						out = append(out, *inst)
					}
				}
			}
		}
	}

	byName := make(map[string]*Instance, len(out))
	for i := range out {
		inst := &out[i]
		if prev, dup := byName[inst.Name]; dup {
			return nil, &AmbiguousError{Name: inst.Name, Positions: []string{
				s.prog.Position(prev.Ident.Pos()).String(),
				s.prog.Position(inst.Ident.Pos()).String(),
			}}
		}
		byName[inst.Name] = inst
	}
	return out, nil
}

func (s *Scanner) instanceFor(pkg *packages.Package, gen *ast.GenDecl, vs *ast.ValueSpec, ident *ast.Ident, byObj map[*types.Func]Factory) (*Instance, error) {
	expr := initExpr(vs, ident)
	if expr == nil {
		return nil, nil
	}
	obj := pkg.TypesInfo.Defs[ident]
	if obj == nil {
		return nil, nil
	}
	visited := map[types.Object]bool{obj: true}
	chain := []string{s.objRef(obj)}
	call, callPkg, depth, err := s.chase(pkg, expr, visited, 0, chain, ident.Name)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, nil
	}
	factory, ok := s.factoryFor(callPkg, call, byObj)
	if !ok {
		return nil, nil
	}
	return &Instance{
		Name:    ident.Name,
		Pkg:     pkg,
		Obj:     obj,
		Ident:   ident,
		Spec:    vs,
		Decl:    gen,
		Call:    call,
		CallPkg: callPkg,
		Factory: factory,
		Depth:   depth,
	}, nil
}

// chase follows identifier and selector indirection from expr until it
// lands on a call expression or a form it cannot follow.
func (s *Scanner) chase(pkg *packages.Package, expr ast.Expr, visited map[types.Object]bool, depth int, chain []string, name string) (*ast.CallExpr, *packages.Package, int, error) {
	if call, ok := ast.Unparen(expr).(*ast.CallExpr); ok {
		return call, pkg, depth, nil
	}
	obj := s.resolveUse(pkg, expr)
	if obj == nil {
		return nil, nil, 0, nil
	}
	if visited[obj] {
		return nil, nil, 0, &CycleError{Name: name, Chain: append(chain, s.objRef(obj))}
	}
	if depth+1 > s.maxDepth {
		return nil, nil, 0, &CycleError{Name: name, Chain: chain, Limit: s.maxDepth}
	}
	visited[obj] = true

	ident, spec, _, declPkg, ok := s.declOf(obj)
	if !ok {
		return nil, nil, 0, nil
	}
	next := initExpr(spec, ident)
	if next == nil {
		return nil, nil, 0, nil
	}
	return s.chase(declPkg, next, visited, depth+1, append(chain, s.objRef(obj)), name)
}

// chaseToFunc resolves obj to the function it ultimately names, for
// factories published as var aliases of a function.
func (s *Scanner) chaseToFunc(obj types.Object, name string) (*types.Func, error) {
	visited := map[types.Object]bool{}
	for depth := 0; ; depth++ {
		if fn, ok := obj.(*types.Func); ok {
			return fn, nil
		}
		if _, ok := obj.(*types.Var); !ok {
			return nil, nil
		}
		if visited[obj] {
			return nil, &CycleError{Name: name, Chain: []string{s.objRef(obj)}}
		}
		if depth >= s.maxDepth {
			return nil, &CycleError{Name: name, Limit: s.maxDepth}
		}
		visited[obj] = true

		ident, spec, _, declPkg, ok := s.declOf(obj)
		if !ok {
			return nil, nil
		}
		expr := initExpr(spec, ident)
		if expr == nil {
			return nil, nil
		}
		next := s.resolveUse(declPkg, expr)
		if next == nil {
			return nil, nil
		}
		obj = next
	}
}

// resolveUse maps an identifier or package-qualified selector to the
// object it uses. Other expression forms are not chaseable.
func (s *Scanner) resolveUse(pkg *packages.Package, expr ast.Expr) types.Object {
	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident:
		return pkg.TypesInfo.Uses[e]
	case *ast.SelectorExpr:
		if _, ok := ast.Unparen(e.X).(*ast.Ident); !ok {
			return nil
		}
		return pkg.TypesInfo.Uses[e.Sel]
	}
	return nil
}

// declOf locates the declaring syntax for a package-level object.
func (s *Scanner) declOf(obj types.Object) (ident *ast.Ident, spec *ast.ValueSpec, decl *ast.GenDecl, pkg *packages.Package, ok bool) {
	path, declPkg, found := s.prog.PathTo(obj)
	if !found {
		return nil, nil, nil, nil, false
	}
	for _, node := range path {
		switch n := node.(type) {
		case *ast.Ident:
			if ident == nil {
				ident = n
			}
		case *ast.ValueSpec:
			spec = n
		case *ast.GenDecl:
			decl = n
		}
	}
	if ident == nil || spec == nil {
		return nil, nil, nil, nil, false
	}
	return ident, spec, decl, declPkg, true
}

func (s *Scanner) factoryFor(pkg *packages.Package, call *ast.CallExpr, byObj map[*types.Func]Factory) (Factory, bool) {
	id := Callee(call)
	if id == nil {
		return Factory{}, false
	}
	// For a generic instantiation, Uses records the generic origin, so
	// this matches the factory declaration itself.
	fn, ok := pkg.TypesInfo.Uses[id].(*types.Func)
	if !ok {
		return Factory{}, false
	}
	f, ok := byObj[fn]
	return f, ok
}

func (s *Scanner) objRef(obj types.Object) string {
	return fmt.Sprintf("%s (%s)", obj.Name(), s.prog.Position(obj.Pos()))
}

// Callee returns the identifier a call's function expression resolves
// through, unwrapping any explicit instantiation.
func Callee(call *ast.CallExpr) *ast.Ident {
	fun := ast.Unparen(call.Fun)
	switch f := fun.(type) {
	case *ast.IndexExpr:
		fun = ast.Unparen(f.X)
	case *ast.IndexListExpr:
		fun = ast.Unparen(f.X)
	}
	switch f := fun.(type) {
	case *ast.Ident:
		return f
	case *ast.SelectorExpr:
		return f.Sel
	}
	return nil
}

// initExpr returns the initializer belonging to ident within spec.
func initExpr(spec *ast.ValueSpec, ident *ast.Ident) ast.Expr {
	if spec == nil || ident == nil {
		return nil
	}
	if len(spec.Values) == 1 && len(spec.Names) > 1 {
		// Multi-assign from a single call; members cannot be factory
		// handles individually.
		return nil
	}
	for i, n := range spec.Names {
		if n == ident && i < len(spec.Values) {
			return spec.Values[i]
		}
	}
	return nil
}

// isInternal reports whether an import path contains an internal
// segment, which makes its exports unreachable for outside callers.
func isInternal(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == "internal" {
			return true
		}
	}
	return false
}
