package qsd

import (
	"context"
	"html/template"
	"io"
	"log/slog"
)

// InlineFuncName is the template function that renders a record inside another template:
//
//	{{ render_inline_qsd "learn/bar" }}
const InlineFuncName = "render_inline_qsd"

// InlineFuncs returns the template functions backed by svc. Every call goes
// through the service, so a template parsed once reflects later edits.
// Lookup failures are logged and render as an empty fragment.
func InlineFuncs(ctx context.Context, svc Service) template.FuncMap {
	return template.FuncMap{
		InlineFuncName: func(key string) template.HTML {
			fragment, err := svc.RenderInline(ctx, key)
			if err != nil {
				slog.WarnContext(ctx, "Inline render failed", "key", key, "error", err)
				return ""
			}
			return fragment
		},
	}
}

// ExecuteInline executes a clone of t with inline functions bound to ctx.
// t must have been parsed with InlineFuncs so the function name is known to
// the parser, and must not be executed directly (html/template refuses to
// clone executed templates).
func ExecuteInline(ctx context.Context, svc Service, t *template.Template, w io.Writer, data any) error {
	clone, err := t.Clone()
	if err != nil {
		return err
	}
	return clone.Funcs(InlineFuncs(ctx, svc)).Execute(w, data)
}
