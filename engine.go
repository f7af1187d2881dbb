package refdoc

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jward/refdoc/internal/cache"
	"github.com/jward/refdoc/internal/config"
	"github.com/jward/refdoc/internal/highlight"
	"github.com/jward/refdoc/internal/loader"
	"github.com/jward/refdoc/internal/model"
	"github.com/jward/refdoc/internal/render"
	"github.com/jward/refdoc/internal/scan"
	"github.com/jward/refdoc/internal/script"
)

// ManifestName is the navigation manifest file written next to the
// rendered pages.
const ManifestName = "nav.yaml"

const (
	cacheDirName  = ".refdoc"
	cacheFileName = "cache.db"

	// metaRenderStamp keys the cache metadata row invalidating every
	// cached page when the renderer configuration changes.
	metaRenderStamp = "render_stamp"
)

// Engine orchestrates the refdoc pipeline: program loading, factory
// instance discovery, document building, rendering, and cache-aware
// persistence.
type Engine struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	scriptsFS fs.FS

	// newRenderer produces one fresh renderer per document.
	newRenderer render.Factory

	// scriptSrc holds the resolved render script source, folded into
	// the render stamp so editing the script invalidates cached pages.
	scriptSrc string

	aliasDepth  int
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine diagnostics. The default logger discards
// everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithParallel controls parallel document building. When true (default),
// Generate builds and renders documents through a worker pool. Set to
// false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithRenderer replaces the renderer factory derived from the config.
// The factory is invoked once per document.
func WithRenderer(factory render.Factory) Option {
	return func(e *Engine) {
		e.newRenderer = factory
	}
}

// WithAliasDepth bounds how many re-export links discovery follows
// before reporting a cycle.
func WithAliasDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.aliasDepth = n
		}
	}
}

// WithScriptsFS configures the Engine to resolve builtin: render
// scripts from the given filesystem. This enables embedding scripts
// via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// New creates an Engine for cfg. Defaults are applied and the config
// validated before any analysis work starts.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("refdoc: %w", err)
	}
	e := &Engine{
		cfg:         cfg,
		log:         zap.NewNop().Sugar(),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.newRenderer == nil {
		factory, err := e.rendererFactory()
		if err != nil {
			return nil, err
		}
		e.newRenderer = factory
	}
	return e, nil
}

// Config returns the merged, validated configuration the Engine runs
// with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Page is one rendered document plus its artifact file name.
type Page struct {
	Doc      model.Document
	FileName string
	Markup   string
}

// DocSet is the complete output of one Generate: the ordered pages and
// the rendered navigation manifest.
type DocSet struct {
	Title    string
	Pages    []Page
	Manifest []byte
}

// Generate runs the analysis pipeline and returns the full document
// set: load the program, resolve the factories, discover exported
// instances, build and render one page per instance, order by id, and
// produce the manifest. Any discovery or build failure aborts the whole
// run; nothing is written to disk.
func (e *Engine) Generate(ctx context.Context) (*DocSet, error) {
	start := time.Now()
	prog, err := loader.Load(ctx, loader.Config{
		Dir:        e.cfg.Module,
		BuildFlags: e.cfg.BuildFlags,
		Env:        e.cfg.Env,
		Tests:      e.cfg.TestsEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("refdoc: load program: %w", err)
	}
	e.log.Debugw("program loaded",
		"module", e.cfg.Module,
		"packages", len(prog.Packages()),
		"elapsed", time.Since(start).Round(time.Millisecond))

	var scanOpts []scan.Option
	if e.aliasDepth > 0 {
		scanOpts = append(scanOpts, scan.WithMaxAliasDepth(e.aliasDepth))
	}
	scanner := scan.New(prog, scanOpts...)

	factories := make([]scan.Factory, 0, len(e.cfg.Factories))
	for _, name := range e.cfg.Factories {
		fac, err := scanner.Factory(e.cfg.Entry, name)
		if err != nil {
			return nil, fmt.Errorf("refdoc: resolve factory: %w", err)
		}
		factories = append(factories, fac)
	}

	instances, err := scanner.Instances(factories, e.cfg.Dirs)
	if err != nil {
		return nil, fmt.Errorf("refdoc: scan instances: %w", err)
	}
	e.log.Debugw("instances discovered", "count", len(instances))

	builder := model.NewBuilder(prog)
	var pages []Page
	if e.useParallel {
		pages, err = e.buildPagesParallel(ctx, builder, instances)
	} else {
		pages, err = e.buildPagesSerial(ctx, builder, instances)
	}
	if err != nil {
		return nil, err
	}

	if err := checkDuplicateIDs(pages); err != nil {
		return nil, err
	}

	// Discovery order is traversal order; the published order is the
	// case-insensitive id order, stable under ties.
	slices.SortStableFunc(pages, model.ByKey(func(p Page) string { return p.Doc.ID }))

	if err := checkFileCollisions(pages); err != nil {
		return nil, err
	}

	entries := make([]render.Entry, len(pages))
	for i, p := range pages {
		entries[i] = render.Entry{ID: p.Doc.ID, File: p.FileName}
	}
	manifest, err := render.Manifest(e.cfg.Title, entries)
	if err != nil {
		return nil, fmt.Errorf("refdoc: %w", err)
	}

	e.log.Debugw("document set built",
		"pages", len(pages),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return &DocSet{Title: e.cfg.Title, Pages: pages, Manifest: manifest}, nil
}

// buildPage turns one instance into a rendered page with a fresh
// renderer, so no state leaks across documents.
func (e *Engine) buildPage(ctx context.Context, builder *model.Builder, inst scan.Instance) (Page, error) {
	doc, err := builder.Build(inst)
	if err != nil {
		return Page{}, err
	}
	r, err := e.newRenderer()
	if err != nil {
		return Page{}, fmt.Errorf("refdoc: renderer for %s: %w", doc.ID, err)
	}
	markup, err := r.Render(ctx, doc)
	if err != nil {
		return Page{}, fmt.Errorf("refdoc: render %s: %w", doc.ID, err)
	}
	return Page{Doc: doc, FileName: render.Filename(doc.Name), Markup: markup}, nil
}

func (e *Engine) buildPagesSerial(ctx context.Context, builder *model.Builder, instances []scan.Instance) ([]Page, error) {
	pages := make([]Page, 0, len(instances))
	for _, inst := range instances {
		page, err := e.buildPage(ctx, builder, inst)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// checkDuplicateIDs rejects two handles published under the same
// identity; artifact cross-references key on the id, so silently
// keeping one page would shadow the other.
func checkDuplicateIDs(pages []Page) error {
	byID := make(map[string]*Page, len(pages))
	for i := range pages {
		p := &pages[i]
		if prev, dup := byID[p.Doc.ID]; dup {
			return &model.IdentityError{
				Name: p.Doc.Name,
				Pos:  p.Doc.File,
				Reason: fmt.Sprintf("duplicate id %q also published by %s (%s)",
					p.Doc.ID, prev.Doc.Name, prev.Doc.File),
			}
		}
		byID[p.Doc.ID] = p
	}
	return nil
}

// checkFileCollisions rejects two handles whose names map to the same
// artifact file. Name uniqueness is case-sensitive but file names are
// lowercased, so Users and USERS can coexist as handles yet collide on
// disk; writing both would shadow one page.
func checkFileCollisions(pages []Page) error {
	byFile := make(map[string]*Page, len(pages))
	for i := range pages {
		p := &pages[i]
		if prev, dup := byFile[p.FileName]; dup {
			return fmt.Errorf("refdoc: handles %s (%s) and %s (%s) both render to %s",
				prev.Doc.Name, prev.Doc.File, p.Doc.Name, p.Doc.File, p.FileName)
		}
		byFile[p.FileName] = p
	}
	return nil
}

// WriteStats reports what one Write changed on disk.
type WriteStats struct {
	Written int
	Skipped int
	Removed int
}

// Write persists a generated set into the configured output directory.
// Pages whose cached hashes match are skipped unless force is set or
// the renderer configuration changed since the cached run. Pages for
// handles that no longer exist are removed. Each artifact is staged to
// a temporary file and renamed into place.
func (e *Engine) Write(ctx context.Context, set *DocSet, force bool) (WriteStats, error) {
	var stats WriteStats
	outDir := e.cfg.Output
	if err := os.MkdirAll(filepath.Join(outDir, cacheDirName), 0o755); err != nil {
		return stats, fmt.Errorf("refdoc: create output dir: %w", err)
	}

	c, err := cache.Open(e.CachePath())
	if err != nil {
		return stats, fmt.Errorf("refdoc: open cache: %w", err)
	}
	defer c.Close()

	stamp := e.renderStamp(set.Title)
	stored, err := c.GetMetadata(metaRenderStamp)
	if err != nil {
		return stats, fmt.Errorf("refdoc: read cache metadata: %w", err)
	}
	if stored != stamp {
		force = true
	}

	now := time.Now()
	current := make(map[string]bool, len(set.Pages)+1)
	current[ManifestName] = true
	rows := make([]*cache.Artifact, 0, len(set.Pages))
	for _, p := range set.Pages {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("refdoc: write: %w", err)
		}
		current[p.FileName] = true
		docHash := cache.ComputeDocHash(p.Doc)
		outHash := cache.HashBytes([]byte(p.Markup))
		rows = append(rows, &cache.Artifact{
			ID:         p.Doc.ID,
			Name:       p.Doc.Name,
			FileName:   p.FileName,
			DocHash:    docHash,
			OutputHash: outHash,
			RenderedAt: now,
		})

		path := filepath.Join(outDir, p.FileName)
		if !force {
			prev, err := c.Artifact(p.Doc.ID)
			if err != nil {
				return stats, fmt.Errorf("refdoc: cache lookup %s: %w", p.Doc.ID, err)
			}
			if prev != nil && prev.FileName == p.FileName &&
				prev.DocHash == docHash && prev.OutputHash == outHash &&
				fileExists(path) {
				stats.Skipped++
				continue
			}
		}
		if err := stageWrite(path, []byte(p.Markup)); err != nil {
			return stats, fmt.Errorf("refdoc: write %s: %w", p.FileName, err)
		}
		stats.Written++
	}

	if err := stageWrite(filepath.Join(outDir, ManifestName), set.Manifest); err != nil {
		return stats, fmt.Errorf("refdoc: write %s: %w", ManifestName, err)
	}

	pruned, err := c.ReplaceAll(rows)
	if err != nil {
		return stats, fmt.Errorf("refdoc: update cache: %w", err)
	}
	for _, name := range pruned {
		// A file name can move between ids across runs; never remove a
		// file the current set still owns.
		if current[name] {
			continue
		}
		if err := os.Remove(filepath.Join(outDir, name)); err != nil && !os.IsNotExist(err) {
			return stats, fmt.Errorf("refdoc: prune %s: %w", name, err)
		}
		stats.Removed++
	}

	if err := c.SetMetadata(metaRenderStamp, stamp); err != nil {
		return stats, fmt.Errorf("refdoc: store cache metadata: %w", err)
	}

	e.log.Debugw("set written",
		"output", outDir,
		"written", stats.Written,
		"skipped", stats.Skipped,
		"removed", stats.Removed)
	return stats, nil
}

// Run is Generate followed by Write.
func (e *Engine) Run(ctx context.Context, force bool) (*DocSet, WriteStats, error) {
	set, err := e.Generate(ctx)
	if err != nil {
		return nil, WriteStats{}, err
	}
	stats, err := e.Write(ctx, set, force)
	if err != nil {
		return nil, WriteStats{}, err
	}
	return set, stats, nil
}

// rendererFactory derives the per-document renderer factory from the
// config: a Risor script renderer when a script is configured, the
// built-in markdown renderer otherwise.
func (e *Engine) rendererFactory() (render.Factory, error) {
	if e.cfg.Script != "" {
		source, scriptOpts, err := e.resolveScript()
		if err != nil {
			return nil, err
		}
		e.scriptSrc = source
		return func() (render.Renderer, error) {
			rt := script.NewRuntime(scriptOpts...)
			return render.NewScript(rt, source), nil
		}, nil
	}
	return func() (render.Renderer, error) {
		opts := []render.MarkdownOption{render.WithLogger(e.log)}
		switch e.cfg.Highlight {
		case config.HighlightHTML:
			opts = append(opts, render.WithHighlighter(highlight.NewSitter()))
		case config.HighlightOff:
			opts = append(opts, render.WithoutDeclarations())
		}
		return render.NewMarkdown(opts...), nil
	}, nil
}

// resolveScript loads the configured render script source and builds
// the runtime options scripts need to import siblings from the same
// location.
func (e *Engine) resolveScript() (string, []script.Option, error) {
	base := []script.Option{
		script.WithHighlighter(e.highlighter()),
		script.WithLogger(e.log),
	}
	if name, ok := strings.CutPrefix(e.cfg.Script, config.BuiltinScriptPrefix); ok {
		if e.scriptsFS == nil {
			return "", nil, fmt.Errorf("refdoc: script %q needs an embedded script set (WithScriptsFS)", e.cfg.Script)
		}
		sub, err := fs.Sub(e.scriptsFS, "render")
		if err != nil {
			return "", nil, fmt.Errorf("refdoc: embedded scripts: %w", err)
		}
		opts := append(base, script.WithFS(sub))
		source, err := script.NewRuntime(opts...).Load(name)
		if err != nil {
			return "", nil, fmt.Errorf("refdoc: %w", err)
		}
		return source, opts, nil
	}
	opts := append(base, script.WithDir(filepath.Dir(e.cfg.Script)))
	source, err := script.NewRuntime(opts...).Load(filepath.Base(e.cfg.Script))
	if err != nil {
		return "", nil, fmt.Errorf("refdoc: %w", err)
	}
	return source, opts, nil
}

func (e *Engine) highlighter() highlight.Highlighter {
	if e.cfg.Highlight == config.HighlightHTML {
		return highlight.NewSitter()
	}
	return highlight.Plain{}
}

// renderStamp hashes everything that shapes rendered output besides
// the documents themselves. A stamp mismatch forces a full rewrite.
func (e *Engine) renderStamp(title string) string {
	h := sha256.New()
	fmt.Fprintf(h, "title:%s\n", title)
	fmt.Fprintf(h, "highlight:%s\n", e.cfg.Highlight)
	fmt.Fprintf(h, "script:%s\n", e.cfg.Script)
	fmt.Fprintf(h, "source:%s\n", e.scriptSrc)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// stageWrite writes data to a temporary file next to path and renames
// it into place.
func stageWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".stage-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
