// Package script evaluates Risor render scripts against documents.
//
// A render script receives the document as a doc map global plus
// highlight and fence helpers, and its final expression must be the
// rendered page string.
package script

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/refdoc/internal/highlight"
	"github.com/jward/refdoc/internal/model"
)

// Runtime embeds a Risor VM configured with the render host functions.
type Runtime struct {
	dir  string
	fsys fs.FS
	hl   highlight.Highlighter
	log  *zap.SugaredLogger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS loads scripts and Risor imports from fsys instead of disk.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) { r.fsys = fsys }
}

// WithDir loads scripts and Risor imports from a directory on disk.
func WithDir(dir string) Option {
	return func(r *Runtime) { r.dir = dir }
}

// WithHighlighter sets the highlighter behind the highlight builtin.
func WithHighlighter(h highlight.Highlighter) Option {
	return func(r *Runtime) {
		if h != nil {
			r.hl = h
		}
	}
}

// WithLogger routes script log output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Runtime) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRuntime returns a Runtime. Without options it highlights with
// plain fenced blocks and logs nowhere.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{hl: highlight.Plain{}, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads a .risor script by name from the configured source. The
// extension may be omitted.
func (r *Runtime) Load(name string) (string, error) {
	if !strings.HasSuffix(name, ".risor") {
		name += ".risor"
	}
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(name), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("script: loading %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}
	path := name
	if !filepath.IsAbs(path) && r.dir != "" {
		path = filepath.Join(r.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("script: loading %s: %w", path, err)
	}
	return string(data), nil
}

// Render evaluates source with doc bound as a global map and returns
// the script's value, which must be the rendered page string.
func (r *Runtime) Render(ctx context.Context, source string, doc model.Document) (string, error) {
	globals := r.buildGlobals(doc)

	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return "", fmt.Errorf("script: eval: %w", err)
	}
	str, ok := result.(*object.String)
	if !ok {
		got := "nil"
		if result != nil {
			got = string(result.Type())
		}
		return "", fmt.Errorf("script: produced %s, want a string page", got)
	}
	return str.Value(), nil
}

// buildGlobals constructs the globals exposed to render scripts.
func (r *Runtime) buildGlobals(doc model.Document) map[string]any {
	return map[string]any{
		"doc":       docObject(doc),
		"highlight": r.makeHighlightFn(),
		"fence":     makeFenceFn(),
		"log":       r.makeLogFn(),
	}
}

// buildImporter returns a Risor importer over the configured script
// source, so scripts can factor shared helpers into imports.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: names,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.dir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: names,
			SourceDir:   r.dir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}
