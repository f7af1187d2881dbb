package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeModule lays out a throwaway module on disk and returns its root.
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func loadModule(t *testing.T, files map[string]string) *Program {
	t.Helper()
	dir := writeModule(t, files)
	prog, err := Load(context.Background(), Config{
		Dir: dir,
		Env: []string{"GOWORK=off", "GOFLAGS=-mod=mod"},
	})
	require.NoError(t, err)
	return prog
}

func TestLoad_TypeChecksModule(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "package a\n\n// Answer is the canonical answer.\nconst Answer = 42\n",
		"b/b.go": "package b\n\nimport \"example.com/m/a\"\n\nvar V = a.Answer\n",
	})

	require.Len(t, prog.Packages(), 2)
	assert.True(t, filepath.IsAbs(prog.Dir()))

	pkg, ok := prog.Package("example.com/m/a")
	require.True(t, ok)
	assert.Equal(t, "a", pkg.Name)
	require.NotNil(t, pkg.Types)
	assert.NotNil(t, pkg.Types.Scope().Lookup("Answer"))

	_, ok = prog.Package("example.com/m/missing")
	assert.False(t, ok)
}

func TestLoad_RetainsComments(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "// Package a holds constants.\npackage a\n\n// Answer is the canonical answer.\nconst Answer = 42\n",
	})

	pkg, ok := prog.Package("example.com/m/a")
	require.True(t, ok)
	require.Len(t, pkg.Syntax, 1)
	file := pkg.Syntax[0]
	require.NotNil(t, file.Doc)
	assert.Contains(t, file.Doc.Text(), "Package a holds constants.")
	assert.NotEmpty(t, file.Comments)
}

func TestLoad_FailsOnTypeError(t *testing.T) {
	dir := writeModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "package a\n\nvar V = undefinedSymbol\n",
	})

	_, err := Load(context.Background(), Config{
		Dir: dir,
		Env: []string{"GOWORK=off", "GOFLAGS=-mod=mod"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefinedSymbol")
}

func TestLoad_FailsOnEmptyMatch(t *testing.T) {
	dir := writeModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "package a\n",
	})

	_, err := Load(context.Background(), Config{
		Dir:      dir,
		Patterns: []string{"./nosuchdir/..."},
		Env:      []string{"GOWORK=off", "GOFLAGS=-mod=mod"},
	})
	require.Error(t, err)
}

func TestMatch(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod":       "module example.com/m\n\ngo 1.21\n",
		"a/a.go":       "package a\n\nconst A = 1\n",
		"a/inner/i.go": "package inner\n\nconst I = 1\n",
		"b/b.go":       "package b\n\nconst B = 1\n",
	})

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"import path", "example.com/m/a", []string{"example.com/m/a"}},
		{"relative dir", "./a", []string{"example.com/m/a"}},
		{"import wildcard", "example.com/m/a/...", []string{"example.com/m/a", "example.com/m/a/inner"}},
		{"dir wildcard", "./a/...", []string{"example.com/m/a", "example.com/m/a/inner"}},
		{"whole module", "./...", []string{"example.com/m/a", "example.com/m/a/inner", "example.com/m/b"}},
		{"no match", "example.com/other", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, pkg := range prog.Match(tt.pattern) {
				got = append(got, pkg.PkgPath)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnder_KeepsImportPathOrder(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod":     "module example.com/m\n\ngo 1.21\n",
		"pkg/z/z.go": "package z\n\nconst Z = 1\n",
		"pkg/a/a.go": "package a\n\nconst A = 1\n",
	})

	var got []string
	for _, pkg := range prog.Under("pkg") {
		got = append(got, pkg.PkgPath)
	}
	assert.Equal(t, []string{"example.com/m/pkg/a", "example.com/m/pkg/z"}, got)
}

func TestRel(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "package a\n\nconst A = 1\n",
	})

	inside := filepath.Join(prog.Dir(), "a", "a.go")
	assert.Equal(t, "a/a.go", prog.Rel(inside))

	outside := string(filepath.Separator) + filepath.Join("somewhere", "else.go")
	assert.Equal(t, filepath.ToSlash(outside), prog.Rel(outside))
}

func TestPathTo(t *testing.T) {
	prog := loadModule(t, map[string]string{
		"go.mod": "module example.com/m\n\ngo 1.21\n",
		"a/a.go": "package a\n\n// V is documented.\nvar V = 42\n",
	})

	pkg, ok := prog.Package("example.com/m/a")
	require.True(t, ok)
	obj := pkg.Types.Scope().Lookup("V")
	require.NotNil(t, obj)

	path, declPkg, ok := prog.PathTo(obj)
	require.True(t, ok)
	assert.Equal(t, pkg.PkgPath, declPkg.PkgPath)
	assert.NotEmpty(t, path)
}
