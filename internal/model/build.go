package model

import (
	"bytes"
	"cmp"
	"fmt"
	"go/ast"
	"go/constant"
	"go/printer"
	"go/token"
	"go/types"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/jward/refdoc/internal/loader"
	"github.com/jward/refdoc/internal/scan"
)

// maxEmbedDepth bounds interface embedding recursion.
const maxEmbedDepth = 16

// Builder converts factory instances into documents.
type Builder struct {
	prog *loader.Program
}

// NewBuilder returns a Builder reading from prog.
func NewBuilder(prog *loader.Program) *Builder {
	return &Builder{prog: prog}
}

// Build produces the document for one instance. Everything the
// document needs is copied out of the program; a failure on any part
// yields an error rather than a partial document.
func (b *Builder) Build(inst scan.Instance) (Document, error) {
	pos := b.prog.Position(inst.Ident.Pos())
	file := b.prog.Rel(pos.Filename)

	fail := func(err error) (Document, error) {
		return Document{}, &BuildError{Name: inst.Name, File: file, Err: err}
	}

	id, err := b.identity(inst)
	if err != nil {
		return Document{}, err
	}

	subj, err := b.subjectType(inst)
	if err != nil {
		return fail(err)
	}

	shape, members, decl, err := b.flatten(subj)
	if err != nil {
		return fail(err)
	}

	doc := strings.TrimSpace(docText(inst.Spec.Doc, inst.Decl))
	if doc == "" {
		doc = strings.TrimSpace(b.typeDoc(subj))
	}

	return Document{
		ID:          id,
		Name:        inst.Name,
		Package:     inst.Pkg.PkgPath,
		File:        file,
		Description: doc,
		Deprecated:  isDeprecated(doc),
		Signature:   types.TypeString(inst.Obj.Type(), pkgNameQualifier(inst.Pkg.Types)),
		Decl:        decl,
		Shape:       shape,
		Members:     members,
	}, nil
}

// identity extracts the compile-time identity the handle is published
// under: either a constant string argument or the ID field of a
// composite-literal config argument.
func (b *Builder) identity(inst scan.Instance) (string, error) {
	pos := b.prog.Position(inst.Call.Pos()).String()
	bad := func(reason string) (string, error) {
		return "", &IdentityError{Name: inst.Name, Pos: pos, Reason: reason}
	}

	info := inst.CallPkg.TypesInfo
	for _, arg := range inst.Call.Args {
		if s, ok := constString(info, arg); ok {
			if s == "" {
				return bad("identity is empty")
			}
			return s, nil
		}
		lit, ok := ast.Unparen(arg).(*ast.CompositeLit)
		if !ok {
			continue
		}
		for _, elt := range lit.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				continue
			}
			key, ok := kv.Key.(*ast.Ident)
			if !ok || key.Name != "ID" {
				continue
			}
			s, ok := constString(info, kv.Value)
			if !ok {
				return bad("ID field is not a compile-time string constant")
			}
			if s == "" {
				return bad("identity is empty")
			}
			return s, nil
		}
	}
	return bad("no identity argument on the factory call")
}

// constString resolves expr through constant folding to a string.
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(tv.Value), true
}

// subjectType resolves the factory call's first type argument.
func (b *Builder) subjectType(inst scan.Instance) (types.Type, error) {
	id := scan.Callee(inst.Call)
	if id == nil {
		return nil, fmt.Errorf("factory call has no resolvable callee")
	}
	if inf, ok := inst.CallPkg.TypesInfo.Instances[id]; ok && inf.TypeArgs.Len() > 0 {
		return inf.TypeArgs.At(0), nil
	}
	return nil, fmt.Errorf("factory call has no type argument to document")
}

// flatten renders the subject type's apparent form into members and a
// normalized declaration block. The supported forms are a closed set;
// anything else is an error rather than an empty document.
func (b *Builder) flatten(subj types.Type) (Shape, []Member, string, error) {
	subj = types.Unalias(subj)
	named, _ := subj.(*types.Named)
	var qual types.Qualifier
	if named != nil && named.Obj().Pkg() != nil {
		qual = pkgNameQualifier(named.Obj().Pkg())
	}

	switch subj.Underlying().(type) {
	case *types.Interface:
		if named == nil {
			return "", nil, "", fmt.Errorf("anonymous interface types cannot be documented")
		}
		members, err := b.interfaceMembers(named, qual)
		if err != nil {
			return "", nil, "", err
		}
		return ShapeInterface, members, b.declSource(named, qual), nil
	case *types.Struct:
		if named == nil {
			return "", nil, "", fmt.Errorf("anonymous struct types cannot be documented")
		}
		return ShapeStruct, b.structMembers(named, qual), b.declSource(named, qual), nil
	default:
		if named == nil {
			return "", nil, "", fmt.Errorf("unsupported subject type %s", subj)
		}
		members, decl, ok := b.enumMembers(named, qual)
		if !ok {
			return "", nil, "", fmt.Errorf("unsupported subject type %s: not an interface, struct, or enumerated type", named.Obj().Name())
		}
		return ShapeEnum, members, decl, nil
	}
}

// interfaceMembers flattens an interface's own and embedded methods in
// declaration order. Instantiated interfaces use the type checker's
// view so substituted signatures stay correct.
func (b *Builder) interfaceMembers(named *types.Named, qual types.Qualifier) ([]Member, error) {
	seen := make(map[string]bool)
	var out []Member
	if named.TypeArgs().Len() > 0 {
		typeInterfaceMembers(named.Underlying().(*types.Interface), qual, seen, &out)
		return out, nil
	}
	if err := b.walkInterface(named, qual, seen, &out, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) walkInterface(named *types.Named, qual types.Qualifier, seen map[string]bool, out *[]Member, depth int) error {
	if depth > maxEmbedDepth {
		return fmt.Errorf("interface embedding deeper than %d levels", maxEmbedDepth)
	}
	spec, _, declPkg, ok := b.typeSpec(named.Obj())
	if !ok {
		// No syntax for this package; the type checker still knows the
		// complete method set, just without doc comments.
		iface, isIface := named.Underlying().(*types.Interface)
		if !isIface {
			return fmt.Errorf("embedded type %s is not an interface", named.Obj().Name())
		}
		typeInterfaceMembers(iface, qual, seen, out)
		return nil
	}
	if it, isIface := spec.Type.(*ast.InterfaceType); isIface {
		return b.walkInterfaceType(declPkg, it, qual, seen, out, depth)
	}
	// Defined in terms of another type; follow it.
	tv, ok := declPkg.TypesInfo.Types[spec.Type]
	if !ok {
		return fmt.Errorf("cannot resolve the definition of %s", named.Obj().Name())
	}
	return b.walkEmbedded(tv.Type, qual, seen, out, depth+1)
}

func (b *Builder) walkInterfaceType(pkg *packages.Package, it *ast.InterfaceType, qual types.Qualifier, seen map[string]bool, out *[]Member, depth int) error {
	if it.Methods == nil {
		return nil
	}
	for _, field := range it.Methods.List {
		if len(field.Names) > 0 {
			name := field.Names[0]
			if !name.IsExported() || seen[name.Name] {
				continue
			}
			obj, ok := pkg.TypesInfo.Defs[name].(*types.Func)
			if !ok {
				continue
			}
			seen[name.Name] = true
			doc := strings.TrimSpace(fieldDoc(field))
			*out = append(*out, Member{
				Name:       name.Name,
				Kind:       KindMethod,
				Signature:  methodSignature(name.Name, obj.Type().(*types.Signature), qual),
				Doc:        doc,
				Deprecated: isDeprecated(doc),
			})
			continue
		}
		tv, ok := pkg.TypesInfo.Types[field.Type]
		if !ok {
			continue
		}
		if err := b.walkEmbedded(tv.Type, qual, seen, out, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) walkEmbedded(t types.Type, qual types.Qualifier, seen map[string]bool, out *[]Member, depth int) error {
	t = types.Unalias(t)
	if named, ok := t.(*types.Named); ok {
		if _, isIface := named.Underlying().(*types.Interface); isIface {
			return b.walkInterface(named, qual, seen, out, depth)
		}
		return nil
	}
	if iface, ok := t.(*types.Interface); ok {
		typeInterfaceMembers(iface, qual, seen, out)
	}
	return nil
}

// typeInterfaceMembers lists an interface's complete method set from
// type information alone, ordered by source position.
func typeInterfaceMembers(iface *types.Interface, qual types.Qualifier, seen map[string]bool, out *[]Member) {
	ms := make([]*types.Func, 0, iface.NumMethods())
	for i := 0; i < iface.NumMethods(); i++ {
		ms = append(ms, iface.Method(i))
	}
	slices.SortFunc(ms, func(a, b *types.Func) int { return cmp.Compare(a.Pos(), b.Pos()) })
	for _, m := range ms {
		if !m.Exported() || seen[m.Name()] {
			continue
		}
		seen[m.Name()] = true
		*out = append(*out, Member{
			Name:      m.Name(),
			Kind:      KindMethod,
			Signature: methodSignature(m.Name(), m.Type().(*types.Signature), qual),
		})
	}
}

// structMembers lists exported fields in declaration order, then
// exported declared methods.
func (b *Builder) structMembers(named *types.Named, qual types.Qualifier) []Member {
	var out []Member
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return out
	}
	fieldDocs := b.fieldDocs(named.Obj())
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() {
			continue
		}
		doc := fieldDocs[f.Name()]
		out = append(out, Member{
			Name:       f.Name(),
			Kind:       KindField,
			Signature:  f.Name() + " " + types.TypeString(f.Type(), qual),
			Doc:        doc,
			Deprecated: isDeprecated(doc),
		})
	}

	ms := make([]*types.Func, 0, named.NumMethods())
	for i := 0; i < named.NumMethods(); i++ {
		ms = append(ms, named.Method(i))
	}
	slices.SortFunc(ms, func(a, b *types.Func) int { return cmp.Compare(a.Pos(), b.Pos()) })
	for _, m := range ms {
		if !m.Exported() {
			continue
		}
		doc := strings.TrimSpace(b.funcDoc(m))
		out = append(out, Member{
			Name:       m.Name(),
			Kind:       KindMethod,
			Signature:  methodSignature(m.Name(), m.Type().(*types.Signature), qual),
			Doc:        doc,
			Deprecated: isDeprecated(doc),
		})
	}
	return out
}

// enumMembers lists the exported constants declared with the named
// type, in declaration order. A defined type with no constants is not
// an enumeration.
func (b *Builder) enumMembers(named *types.Named, qual types.Qualifier) ([]Member, string, bool) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return nil, "", false
	}
	scope := obj.Pkg().Scope()
	var consts []*types.Const
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if !ok || !c.Exported() {
			continue
		}
		if !types.Identical(c.Type(), named) {
			continue
		}
		consts = append(consts, c)
	}
	if len(consts) == 0 {
		return nil, "", false
	}
	slices.SortFunc(consts, func(a, b *types.Const) int { return cmp.Compare(a.Pos(), b.Pos()) })

	out := make([]Member, 0, len(consts))
	for _, c := range consts {
		doc := strings.TrimSpace(b.constDoc(c))
		out = append(out, Member{
			Name:       c.Name(),
			Kind:       KindConstant,
			Signature:  fmt.Sprintf("%s %s = %s", c.Name(), obj.Name(), c.Val().ExactString()),
			Doc:        doc,
			Deprecated: isDeprecated(doc),
		})
	}
	return out, b.enumDecl(named, consts, qual), true
}

// declSource renders the normalized source of the subject type's
// declaration. Without syntax it falls back to the type checker's
// rendering.
func (b *Builder) declSource(named *types.Named, qual types.Qualifier) string {
	spec, _, _, ok := b.typeSpec(named.Obj())
	if !ok || named.TypeArgs().Len() > 0 {
		return fmt.Sprintf("type %s %s", named.Obj().Name(), types.TypeString(named.Underlying(), qual))
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "type %s ", named.Obj().Name())
	if err := printer.Fprint(&buf, b.prog.Fset(), spec.Type); err != nil {
		return fmt.Sprintf("type %s %s", named.Obj().Name(), types.TypeString(named.Underlying(), qual))
	}
	return normalizeDecl(buf.String())
}

// enumDecl renders the type declaration followed by the const block
// that enumerates it.
func (b *Builder) enumDecl(named *types.Named, consts []*types.Const, qual types.Qualifier) string {
	head := b.declSource(named, qual)
	path, _, ok := b.prog.PathTo(consts[0])
	if !ok {
		return head
	}
	for _, node := range path {
		if gd, ok := node.(*ast.GenDecl); ok && gd.Tok == token.CONST {
			var buf bytes.Buffer
			if err := printer.Fprint(&buf, b.prog.Fset(), gd); err == nil {
				return head + "\n\n" + normalizeDecl(buf.String())
			}
			break
		}
	}
	return head
}

// typeSpec locates the declaring type spec for a type name.
func (b *Builder) typeSpec(obj types.Object) (*ast.TypeSpec, *ast.GenDecl, *packages.Package, bool) {
	path, pkg, ok := b.prog.PathTo(obj)
	if !ok {
		return nil, nil, nil, false
	}
	var spec *ast.TypeSpec
	var decl *ast.GenDecl
	for _, node := range path {
		switch n := node.(type) {
		case *ast.TypeSpec:
			spec = n
		case *ast.GenDecl:
			decl = n
		}
	}
	if spec == nil {
		return nil, nil, nil, false
	}
	return spec, decl, pkg, true
}

// typeDoc returns the doc comment on the subject type's declaration.
func (b *Builder) typeDoc(subj types.Type) string {
	named, ok := types.Unalias(subj).(*types.Named)
	if !ok {
		return ""
	}
	spec, decl, _, ok := b.typeSpec(named.Obj())
	if !ok {
		return ""
	}
	if spec.Doc != nil {
		return spec.Doc.Text()
	}
	if decl != nil && decl.Doc != nil {
		return decl.Doc.Text()
	}
	return ""
}

// fieldDocs collects doc comments per field name for a struct type.
func (b *Builder) fieldDocs(obj types.Object) map[string]string {
	docs := make(map[string]string)
	spec, _, _, ok := b.typeSpec(obj)
	if !ok {
		return docs
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return docs
	}
	for _, field := range st.Fields.List {
		doc := strings.TrimSpace(fieldDoc(field))
		if doc == "" {
			continue
		}
		for _, name := range field.Names {
			docs[name.Name] = doc
		}
	}
	return docs
}

// constDoc returns the doc comment on a constant's value spec.
func (b *Builder) constDoc(c *types.Const) string {
	path, _, ok := b.prog.PathTo(c)
	if !ok {
		return ""
	}
	for _, node := range path {
		if vs, ok := node.(*ast.ValueSpec); ok {
			if vs.Doc != nil {
				return vs.Doc.Text()
			}
			if vs.Comment != nil {
				return vs.Comment.Text()
			}
			return ""
		}
	}
	return ""
}

// funcDoc returns the doc comment on a function declaration.
func (b *Builder) funcDoc(obj types.Object) string {
	path, _, ok := b.prog.PathTo(obj)
	if !ok {
		return ""
	}
	for _, node := range path {
		if fd, ok := node.(*ast.FuncDecl); ok {
			return fd.Doc.Text()
		}
	}
	return ""
}

// fieldDoc prefers a field's leading comment, falling back to the
// trailing line comment.
func fieldDoc(field *ast.Field) string {
	if field.Doc != nil {
		return field.Doc.Text()
	}
	if field.Comment != nil {
		return field.Comment.Text()
	}
	return ""
}

// docText picks the doc comment for a var declaration: the spec's own
// comment when present, otherwise the comment on the enclosing decl.
func docText(specDoc *ast.CommentGroup, decl *ast.GenDecl) string {
	if specDoc != nil {
		return specDoc.Text()
	}
	if decl != nil && decl.Doc != nil {
		return decl.Doc.Text()
	}
	return ""
}

// pkgNameQualifier prints types from pkg unqualified and foreign
// packages by bare name, so handle and member signatures share one
// register instead of leaking full import paths.
func pkgNameQualifier(pkg *types.Package) types.Qualifier {
	return func(p *types.Package) string {
		if p == pkg {
			return ""
		}
		return p.Name()
	}
}

// normalizeDecl collapses go/printer's alignment tabs to single
// spaces, keeping the leading tabs that carry indentation.
func normalizeDecl(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		rest := strings.TrimLeft(line, "\t")
		indent := line[:len(line)-len(rest)]
		for strings.Contains(rest, "\t\t") {
			rest = strings.ReplaceAll(rest, "\t\t", "\t")
		}
		lines[i] = indent + strings.ReplaceAll(rest, "\t", " ")
	}
	return strings.Join(lines, "\n")
}

// methodSignature renders name plus the signature's parameter and
// result lists.
func methodSignature(name string, sig *types.Signature, qual types.Qualifier) string {
	return name + strings.TrimPrefix(types.TypeString(sig, qual), "func")
}

// isDeprecated reports whether doc carries a paragraph in the standard
// Deprecated: form.
func isDeprecated(doc string) bool {
	for _, p := range strings.Split(doc, "\n\n") {
		if strings.HasPrefix(strings.TrimSpace(p), "Deprecated:") {
			return true
		}
	}
	return false
}
