// Package refdoc documents typed API handles published through a
// designated generic factory function, for example:
//
//	var StorageAPI = refs.New[Storage](refs.Config{ID: "core.storage"})
//
// Given a module, an entry package declaring the factory, and a set of
// search directories, refdoc finds every exported package-level var
// whose initializer reaches such a call, documents the subject type the
// call was instantiated with, and writes one markdown page per handle
// plus an ordered YAML navigation manifest.
//
// # Pipeline
//
// A run has four stages:
//
//  1. Load: type-check the module with go/packages, retaining doc
//     comments. Load or type errors abort the run.
//
//  2. Scan: resolve the configured factory names to canonical
//     declarations, then walk the search directories for exported vars
//     whose initializer, possibly through a chain of var re-exports,
//     is a call to one of them. Matching is by type-checker object
//     identity, never by name.
//
//  3. Build + render: flatten each subject type's apparent form
//     (interface, struct, or const-enumerated type) into an immutable
//     Document with members in declaration order, then render it with
//     a fresh renderer per document. Documents are ordered by
//     case-insensitive id before anything is emitted.
//
//  4. Write: persist pages and the manifest into the output directory,
//     consulting a SQLite cache so unchanged pages are skipped and
//     pages for removed handles are pruned.
//
// # Usage
//
// Create an Engine from a config, generate, and write:
//
//	cfg := refdoc.Config{
//		Entry:     "./refs",
//		Factories: []string{"New"},
//		Dirs:      []string{"."},
//		Output:    "docs/reference",
//	}
//	e, err := refdoc.New(cfg)
//	if err != nil { ... }
//
//	ctx := context.Background()
//	set, err := e.Generate(ctx)
//	if err != nil { ... }
//	stats, err := e.Write(ctx, set, false)
//
// [Engine.Run] combines both steps. Discovery and build failures are
// typed — [NotFoundError], [AmbiguousError], [CycleError],
// [IdentityError], [BuildError] — and always abort the run before any
// artifact is written; a partial reference set is never produced.
//
// # Rendering
//
// The built-in renderer emits markdown with declaration blocks
// highlighted through tree-sitter; highlighting failures degrade to
// plain fenced code, never to a failed page. A Risor render script can
// replace the built-in layout entirely: the script receives the
// document as a doc map plus highlight and fence helpers, and its
// value becomes the page. See scripts/render/reference.risor for the
// built-in layout expressed as a script.
package refdoc
