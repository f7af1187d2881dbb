// Package render turns documents into markdown pages and produces the
// YAML navigation manifest that indexes them.
package render

import (
	"context"

	"github.com/jward/refdoc/internal/model"
)

// Renderer produces the rendered page for a single document.
type Renderer interface {
	Render(ctx context.Context, doc model.Document) (string, error)
}

// Factory builds a fresh Renderer for one render call. Renderers and
// their highlighters are not shared across documents, so a renderer
// may keep per-page state without synchronization.
type Factory func() (Renderer, error)
