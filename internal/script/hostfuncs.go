package script

import (
	"context"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/refdoc/internal/highlight"
	"github.com/jward/refdoc/internal/model"
)

// docObject converts a document into a Risor map so scripts can walk
// it with plain indexing and iteration.
func docObject(doc model.Document) *object.Map {
	members := make([]object.Object, len(doc.Members))
	for i, m := range doc.Members {
		members[i] = object.NewMap(map[string]object.Object{
			"name":       object.NewString(m.Name),
			"kind":       object.NewString(string(m.Kind)),
			"signature":  object.NewString(m.Signature),
			"doc":        object.NewString(m.Doc),
			"deprecated": object.NewBool(m.Deprecated),
		})
	}
	return object.NewMap(map[string]object.Object{
		"id":          object.NewString(doc.ID),
		"name":        object.NewString(doc.Name),
		"package":     object.NewString(doc.Package),
		"file":        object.NewString(doc.File),
		"description": object.NewString(doc.Description),
		"deprecated":  object.NewBool(doc.Deprecated),
		"signature":   object.NewString(doc.Signature),
		"decl":        object.NewString(doc.Decl),
		"shape":       object.NewString(string(doc.Shape)),
		"members":     object.NewList(members),
	})
}

// makeHighlightFn exposes the configured highlighter as
// highlight(code, lang). A failure falls back to a plain fenced block
// so one stubborn snippet never fails the page.
func (r *Runtime) makeHighlightFn() object.Object {
	return object.NewBuiltin("highlight", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("highlight", 2, len(args))
		}
		code, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("type error: highlight() expected a string code argument (got %s)", args[0].Type())
		}
		lang, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("type error: highlight() expected a string lang argument (got %s)", args[1].Type())
		}
		out, err := r.hl.Highlight(ctx, code.Value(), lang.Value())
		if err != nil {
			r.log.Debugw("highlight failed, falling back to fenced block",
				"lang", lang.Value(),
				"error", err)
			return object.NewString(highlight.Fence(code.Value(), lang.Value()))
		}
		return object.NewString(out)
	})
}

// makeFenceFn exposes fence(code, lang) for scripts that want plain
// fenced blocks regardless of the configured highlighter.
func makeFenceFn() object.Object {
	return object.NewBuiltin("fence", func(_ context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("fence", 2, len(args))
		}
		code, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("type error: fence() expected a string code argument (got %s)", args[0].Type())
		}
		lang, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("type error: fence() expected a string lang argument (got %s)", args[1].Type())
		}
		return object.NewString(highlight.Fence(code.Value(), lang.Value()))
	})
}

// makeLogFn exposes log(...) so scripts can leave a trail without
// printing into the rendered page.
func (r *Runtime) makeLogFn() object.Object {
	return object.NewBuiltin("log", func(_ context.Context, args ...object.Object) object.Object {
		parts := make([]string, len(args))
		for i, arg := range args {
			if s, ok := arg.(*object.String); ok {
				parts[i] = s.Value()
				continue
			}
			parts[i] = arg.Inspect()
		}
		r.log.Info(strings.Join(parts, " "))
		return object.Nil
	})
}
