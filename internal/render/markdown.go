package render

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jward/refdoc/internal/highlight"
	"github.com/jward/refdoc/internal/model"
)

// Markdown is the built-in renderer. It emits the document title,
// deprecation notice, description, identity bullets, the highlighted
// declaration block, and the members grouped by kind.
type Markdown struct {
	hl    highlight.Highlighter
	log   *zap.SugaredLogger
	decls bool
}

var _ Renderer = (*Markdown)(nil)

// MarkdownOption configures the built-in renderer.
type MarkdownOption func(*Markdown)

// WithHighlighter sets the highlighter used for declaration blocks.
func WithHighlighter(h highlight.Highlighter) MarkdownOption {
	return func(m *Markdown) {
		if h != nil {
			m.hl = h
		}
	}
}

// WithLogger routes renderer diagnostics.
func WithLogger(log *zap.SugaredLogger) MarkdownOption {
	return func(m *Markdown) {
		if log != nil {
			m.log = log
		}
	}
}

// WithoutDeclarations omits declaration code blocks from pages.
func WithoutDeclarations() MarkdownOption {
	return func(m *Markdown) { m.decls = false }
}

// NewMarkdown returns the built-in renderer. Without options it fences
// declarations as plain code blocks.
func NewMarkdown(opts ...MarkdownOption) *Markdown {
	m := &Markdown{hl: highlight.Plain{}, log: zap.NewNop().Sugar(), decls: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var memberSections = []struct {
	kind  model.MemberKind
	title string
}{
	{model.KindMethod, "Methods"},
	{model.KindField, "Fields"},
	{model.KindConstant, "Constants"},
}

// Render produces the markdown page for doc.
func (m *Markdown) Render(ctx context.Context, doc model.Document) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", doc.Name)
	if doc.Deprecated {
		b.WriteString("\n> **Deprecated.**\n")
	}
	if desc := strings.TrimSpace(doc.Description); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}

	fmt.Fprintf(&b, "\n- Id: `%s`\n", doc.ID)
	fmt.Fprintf(&b, "- Package: `%s`\n", doc.Package)
	if doc.Signature != "" {
		fmt.Fprintf(&b, "- Handle: `%s`\n", doc.Signature)
	}

	if m.decls && doc.Decl != "" {
		b.WriteString("\n## Declaration\n\n")
		b.WriteString(m.codeBlock(ctx, doc.Decl))
		b.WriteString("\n")
	}

	for _, sec := range memberSections {
		m.writeSection(&b, sec.title, sec.kind, doc.Members)
	}
	return b.String(), nil
}

// writeSection emits one member-kind heading plus its members in
// declaration order. Empty sections are skipped entirely.
func (m *Markdown) writeSection(b *strings.Builder, title string, kind model.MemberKind, members []model.Member) {
	var picked []model.Member
	for _, mem := range members {
		if mem.Kind == kind {
			picked = append(picked, mem)
		}
	}
	if len(picked) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", title)
	for _, mem := range picked {
		fmt.Fprintf(b, "\n### %s\n", mem.Name)
		if mem.Deprecated {
			b.WriteString("\n> **Deprecated.**\n")
		}
		b.WriteString("\n" + highlight.Fence(mem.Signature, "go") + "\n")
		if text := strings.TrimSpace(mem.Doc); text != "" {
			b.WriteString("\n" + text + "\n")
		}
	}
}

// codeBlock highlights src, falling back to a fenced block when the
// highlighter cannot handle the snippet.
func (m *Markdown) codeBlock(ctx context.Context, src string) string {
	out, err := m.hl.Highlight(ctx, src, "go")
	if err != nil {
		m.log.Debugw("highlight failed, falling back to fenced block", "error", err)
		return highlight.Fence(src, "go")
	}
	return out
}
