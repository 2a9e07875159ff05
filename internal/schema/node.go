package schema

import "encoding/json"

// Widget names recognized in a node's ui block.
const (
	WidgetJSONEditor = "json-editor"
	WidgetTextarea   = "textarea"
	WidgetSwitch     = "switch"
	WidgetCheckbox   = "checkbox"
	WidgetRadio      = "radio"
)

// Node is one parsed schema node. The concrete type is one of *Object,
// *String, *Number, *Boolean, *Array, *Enum or *Raw.
type Node interface {
	// Info returns the metadata shared by all variants.
	Info() *Meta

	isNode()
}

// Meta is the metadata every node carries.
type Meta struct {
	Title       string
	Description string

	// Default is the decoded "default" value, nil when absent.
	Default any

	// Widget is ui.widget, empty when absent.
	Widget string
}

// Info implements Node.
func (m *Meta) Info() *Meta { return m }

func (*Meta) isNode() {}

// Label returns the title, or fallback when there is none.
func (m *Meta) Label(fallback string) string {
	if m.Title != "" {
		return m.Title
	}
	return fallback
}

// Property is a named child of an Object, in document order.
type Property struct {
	Name string
	Node Node
}

// Object is a schema of type object whose properties are rendered as
// separate options.
type Object struct {
	Meta
	Properties []Property
	Required   []string
}

// IsRequired reports whether name is listed in required.
func (o *Object) IsRequired(name string) bool {
	for _, r := range o.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Property returns the child called name.
func (o *Object) Property(name string) (Node, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p.Node, true
		}
	}
	return nil, false
}

// String is a schema of type string.
type String struct {
	Meta
	Format string
}

// Number is a schema of type number or integer.
type Number struct {
	Meta
	Integer bool
	Minimum *float64
	Maximum *float64
}

// Boolean is a schema of type boolean.
type Boolean struct {
	Meta
}

// Array is a schema of type array. Items is nil when the schema does not
// describe its items.
type Array struct {
	Meta
	Items Node
}

// Enum is any schema with an enum list. Values keep their JSON types.
type Enum struct {
	Meta
	Values []any
}

// Raw is a schema edited as free JSON: objects with the json-editor
// widget and any type this package does not model.
type Raw struct {
	Meta
	Type   string
	Schema json.RawMessage
}
