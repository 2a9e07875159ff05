package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Coerce turns raw option strings keyed by dotted path into the typed
// plugin options described by root.
//
// Numbers, booleans and enum members are parsed from their text. Arrays
// take a JSON array or a comma-separated list, raw nodes take JSON.
// Options without a value get the schema default. Keys the schema does
// not know, values that do not parse and missing required options are
// reported as ValidationErrors; the returned map holds every option that
// did convert.
func Coerce(root Node, values map[string]string) (map[string]any, ValidationErrors) {
	obj, ok := root.(*Object)
	if !ok {
		return nil, ValidationErrors{{Message: fmt.Sprintf("plugin schema root is %s, not an object", kindOf(root))}}
	}

	c := &coercer{
		values: values,
		used:   make(map[string]bool, len(values)),
		out:    make(map[string]any),
	}
	c.object(obj, "", c.out)

	unknown := make([]string, 0)
	for key := range values {
		if !c.used[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		c.errs = append(c.errs, ValidationError{Path: key, Message: "unknown option"})
	}

	if len(c.errs) > 0 {
		return c.out, c.errs
	}
	return c.out, nil
}

// coercer is a Visitor over leaf nodes. The current path and value are
// set by object before each Walk, and leaf visits store into target.
type coercer struct {
	values map[string]string
	used   map[string]bool
	out    map[string]any
	errs   ValidationErrors

	path     string
	raw      string
	hasRaw   bool
	required bool
	target   map[string]any
	key      string
}

func (c *coercer) object(o *Object, prefix string, target map[string]any) {
	for _, p := range o.Properties {
		path := joinPath(prefix, p.Name)

		if child, ok := p.Node.(*Object); ok {
			nested := make(map[string]any)
			c.object(child, path, nested)
			if len(nested) > 0 {
				target[p.Name] = nested
			}
			continue
		}

		raw, hasRaw := c.values[path]
		if hasRaw {
			c.used[path] = true
		}
		c.path, c.raw, c.hasRaw = path, raw, hasRaw
		c.required = o.IsRequired(p.Name)
		c.target, c.key = target, p.Name

		if err := Walk(p.Node, c); err != nil {
			c.fail("%v", err)
		}
	}
}

func (c *coercer) fail(format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Path: c.path, Message: fmt.Sprintf(format, args...)})
}

// present handles the missing-value case. It returns false when there is
// nothing to convert.
func (c *coercer) present(m *Meta) bool {
	if c.hasRaw && strings.TrimSpace(c.raw) != "" {
		return true
	}
	switch {
	case m.Default != nil:
		c.target[c.key] = m.Default
	case c.required:
		c.fail("required")
	}
	return false
}

// VisitObject implements Visitor. Nested objects are handled by object.
func (c *coercer) VisitObject(*Object) error { return nil }

// VisitString implements Visitor.
func (c *coercer) VisitString(s *String) error {
	if c.hasRaw && c.raw != "" {
		c.target[c.key] = c.raw
		return nil
	}
	c.present(&s.Meta)
	return nil
}

// VisitNumber implements Visitor.
func (c *coercer) VisitNumber(n *Number) error {
	if !c.present(&n.Meta) {
		return nil
	}
	text := strings.TrimSpace(c.raw)

	var f float64
	if n.Integer {
		i, err := strconv.Atoi(text)
		if err != nil {
			c.fail("%q is not an integer", c.raw)
			return nil
		}
		f = float64(i)
		c.target[c.key] = i
	} else {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			c.fail("%q is not a number", c.raw)
			return nil
		}
		f = v
		c.target[c.key] = v
	}

	if n.Minimum != nil && f < *n.Minimum {
		delete(c.target, c.key)
		c.fail("%g is below the minimum %g", f, *n.Minimum)
	} else if n.Maximum != nil && f > *n.Maximum {
		delete(c.target, c.key)
		c.fail("%g is above the maximum %g", f, *n.Maximum)
	}
	return nil
}

// VisitBoolean implements Visitor.
func (c *coercer) VisitBoolean(b *Boolean) error {
	if !c.present(&b.Meta) {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(c.raw))
	if err != nil {
		c.fail("%q is not a boolean", c.raw)
		return nil
	}
	c.target[c.key] = v
	return nil
}

// VisitArray implements Visitor.
func (c *coercer) VisitArray(a *Array) error {
	if !c.present(&a.Meta) {
		return nil
	}
	text := strings.TrimSpace(c.raw)

	if strings.HasPrefix(text, "[") {
		var list []any
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			c.fail("invalid JSON array: %v", err)
			return nil
		}
		c.target[c.key] = list
		return nil
	}

	list := make([]any, 0)
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := convertItem(a.Items, item)
		if err != nil {
			c.fail("item %q: %v", item, err)
			return nil
		}
		list = append(list, v)
	}
	c.target[c.key] = list
	return nil
}

// VisitEnum implements Visitor.
func (c *coercer) VisitEnum(e *Enum) error {
	if !c.present(&e.Meta) {
		return nil
	}
	for _, v := range e.Values {
		if s, ok := v.(string); ok && s == c.raw {
			c.target[c.key] = v
			return nil
		}
		if formatValue(v) == strings.TrimSpace(c.raw) {
			c.target[c.key] = v
			return nil
		}
	}

	allowed := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		allowed = append(allowed, formatValue(v))
	}
	c.fail("%q is not one of %s", c.raw, strings.Join(allowed, ", "))
	return nil
}

// VisitRaw implements Visitor.
func (c *coercer) VisitRaw(r *Raw) error {
	if !c.present(&r.Meta) {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(c.raw), &v); err != nil {
		c.fail("invalid JSON: %v", err)
		return nil
	}
	c.target[c.key] = v
	return nil
}

// convertItem converts one comma-separated array item by its item schema.
func convertItem(items Node, text string) (any, error) {
	switch n := items.(type) {
	case *Number:
		if n.Integer {
			return strconv.Atoi(text)
		}
		return strconv.ParseFloat(text, 64)
	case *Boolean:
		return strconv.ParseBool(text)
	default:
		return text, nil
	}
}
