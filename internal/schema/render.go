package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TextRenderer writes an indented guide of the options a schema accepts,
// one line per option with its dotted path, type and default.
//
//	llm_model  string  default "gpt-4o-mini"
//	    Model used by the extractor.
type TextRenderer struct {
	w      io.Writer
	path   string
	depth  int
	req    bool
	indent string
	err    error
}

// NewTextRenderer returns a renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w, indent: "  "}
}

// Render writes the guide for root.
func (r *TextRenderer) Render(root Node) error {
	r.path, r.depth, r.req, r.err = "", 0, false, nil
	if err := Walk(root, r); err != nil {
		return err
	}
	return r.err
}

func (r *TextRenderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *TextRenderer) line(m *Meta, typ string) {
	pad := strings.Repeat(r.indent, r.depth)

	name := r.path
	if name == "" {
		name = "(root)"
	}
	r.printf("%s%s  %s", pad, name, typ)
	if r.req {
		r.printf("  required")
	}
	if m.Default != nil {
		r.printf("  default %s", formatValue(m.Default))
	}
	r.printf("\n")

	if m.Title != "" && m.Title != r.path {
		r.printf("%s%s%s\n", pad, r.indent+r.indent, m.Title)
	}
	if m.Description != "" {
		r.printf("%s%s%s\n", pad, r.indent+r.indent, m.Description)
	}
}

// VisitObject implements Visitor.
func (r *TextRenderer) VisitObject(o *Object) error {
	if r.path != "" {
		r.line(&o.Meta, "object")
		r.depth++
		defer func() { r.depth-- }()
	}

	parent := r.path
	for _, p := range o.Properties {
		r.path = joinPath(parent, p.Name)
		r.req = o.IsRequired(p.Name)
		if err := Walk(p.Node, r); err != nil {
			return err
		}
	}
	r.path = parent
	return nil
}

// VisitString implements Visitor.
func (r *TextRenderer) VisitString(s *String) error {
	typ := "string"
	if s.Format != "" {
		typ += " (" + s.Format + ")"
	}
	r.line(&s.Meta, typ)
	return nil
}

// VisitNumber implements Visitor.
func (r *TextRenderer) VisitNumber(n *Number) error {
	typ := "number"
	if n.Integer {
		typ = "integer"
	}
	switch {
	case n.Minimum != nil && n.Maximum != nil:
		typ += fmt.Sprintf(" [%g..%g]", *n.Minimum, *n.Maximum)
	case n.Minimum != nil:
		typ += fmt.Sprintf(" [>=%g]", *n.Minimum)
	case n.Maximum != nil:
		typ += fmt.Sprintf(" [<=%g]", *n.Maximum)
	}
	r.line(&n.Meta, typ)
	return nil
}

// VisitBoolean implements Visitor.
func (r *TextRenderer) VisitBoolean(b *Boolean) error {
	r.line(&b.Meta, "boolean")
	return nil
}

// VisitArray implements Visitor.
func (r *TextRenderer) VisitArray(a *Array) error {
	typ := "array"
	if a.Items != nil {
		typ += " of " + kindOf(a.Items)
	}
	r.line(&a.Meta, typ)
	return nil
}

// VisitEnum implements Visitor.
func (r *TextRenderer) VisitEnum(e *Enum) error {
	values := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		values = append(values, formatValue(v))
	}
	r.line(&e.Meta, "one of "+strings.Join(values, ", "))
	return nil
}

// VisitRaw implements Visitor.
func (r *TextRenderer) VisitRaw(raw *Raw) error {
	typ := "json"
	if raw.Type != "" {
		typ += " " + raw.Type
	}
	r.line(&raw.Meta, typ)
	return nil
}

func kindOf(n Node) string {
	switch node := n.(type) {
	case *Object:
		return "object"
	case *String:
		return "string"
	case *Number:
		if node.Integer {
			return "integer"
		}
		return "number"
	case *Boolean:
		return "boolean"
	case *Array:
		return "array"
	case *Enum:
		return "enum"
	default:
		return "json"
	}
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
